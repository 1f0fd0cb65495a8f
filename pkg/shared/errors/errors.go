package errors

import (
	"fmt"
)

// Custom error type for not implemented errors
type NotImplementedError struct {
	MethodName string
	PluginName string
}

// Implement the error interface for NotImplementedError
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("method %q is not implemented for %q", e.MethodName, e.PluginName)
}

// Constructor for NotImplementedError
func NewNotImplementedError(methodName, pluginName string) error {
	return &NotImplementedError{
		MethodName: methodName,
		PluginName: pluginName,
	}
}

// RunError reports an analysis run that did not finish cleanly.
type RunError struct {
	ExitCode    int
	CommonError string
	Problems    int // number of problems reported before the run ended
}

// Error implements the error interface, returning the message from the common error.
func (e *RunError) Error() string {
	return e.CommonError
}

// NewRunError creates a new RunError carrying the process exit code.
func NewRunError(err error, code int, problems int) *RunError {
	return &RunError{
		ExitCode:    code,
		CommonError: err.Error(),
		Problems:    problems,
	}
}
