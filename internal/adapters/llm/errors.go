package llm

import "errors"

var (
	// ErrGenerationFailed wraps every provider error.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown provider")
)
