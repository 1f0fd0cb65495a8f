package orchestrator

import "errors"

var ErrInvalidArgument = errors.New("invalid argument")
