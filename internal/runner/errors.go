package runner

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid runner argument")
	ErrStartFailure    = errors.New("failed to start process")
	ErrPanic           = errors.New("analyzer run panicked")
)
