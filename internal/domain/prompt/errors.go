package prompt

import "errors"

// ErrTemplate is returned when the chat template cannot be loaded or rendered.
var ErrTemplate = errors.New("prompt template")
