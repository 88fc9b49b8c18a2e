package payload

import "errors"

var (
	// ErrEmptyBody is returned for a body that is empty after trimming.
	ErrEmptyBody = errors.New("empty body")
	// ErrNotMapping is returned when the body decodes to something other than a key/value mapping.
	ErrNotMapping = errors.New("body is not a mapping")
	// ErrFieldType is returned when theme or input is a list or a mapping.
	ErrFieldType = errors.New("field is not a scalar")
)
