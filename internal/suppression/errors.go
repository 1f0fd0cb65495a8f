package suppression

import "errors"

var (
	// ErrInvalidArgument reports a caller contract violation, such as a blank project name.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDecodeFailure reports a suppression file that exists but cannot be parsed.
	ErrDecodeFailure = errors.New("failed to decode suppressions file")
)
