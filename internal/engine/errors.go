package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/correlate/internal/ir"
)

// UnexpectedCommandError is raised when a handler receives a command of a
// kind it was not registered for. It means the reactor routing table is
// inconsistent, which is a programming error, so it is raised as a panic.
type UnexpectedCommandError struct {
	// Handler names the handler that received the command.
	Handler string

	// Got is the kind of the command received.
	Got ir.CommandKind
}

// Error implements the error interface.
func (e *UnexpectedCommandError) Error() string {
	return fmt.Sprintf("%s handler received %s command", e.Handler, e.Got)
}

// IsUnexpectedCommandError returns true if err is an UnexpectedCommandError.
// Uses errors.As to handle wrapped errors.
func IsUnexpectedCommandError(err error) bool {
	var uc *UnexpectedCommandError
	return errors.As(err, &uc)
}
