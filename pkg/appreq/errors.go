package appreq

import "errors"

// Errors returned while constructing or building a request. None of them is
// transient.
var (
	// ErrParameter reports a missing or empty parameter.
	ErrParameter = errors.New("invalid request parameter")

	// ErrInvalidCommand reports a command outside the supported set.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrConfiguration reports a missing, unparsable or modified template.
	ErrConfiguration = errors.New("template configuration error")

	// ErrSigning reports an unusable key or a failed signing operation.
	ErrSigning = errors.New("signing failed")
)
