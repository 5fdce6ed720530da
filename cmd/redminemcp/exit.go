package main

import "fmt"

// Exit codes returned by the CLI.
const (
	exitFailure     = 1
	exitToolFailed  = 2
	exitConfig      = 3
	exitInputParse  = 4
	exitUnreachable = 5
)

// ExitError is an error that carries a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// exitError creates a new ExitError with the given code and formatted message.
func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
