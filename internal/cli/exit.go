// Package cli defines the process exit status contract shared by the mako
// maintenance binaries and the mapping from errors onto it.
//
// The per-line recoverable conditions of a batch run never surface as
// errors; they are carried in each component's summary value and the
// binaries pick the exit code from that. Errors reaching main are resource
// or configuration faults.
package cli

import (
	"errors"
	"fmt"
)

// Exit codes. The external supervision script keys off these: a Malformed
// exit tells it to preserve the batch file for offline inspection, a Fault
// exit tells it the run aborted.
const (
	ExitOK        = 0
	ExitMalformed = 1
	ExitFault     = 2
)

// ExitError associates an error with the exit code the process should
// terminate with. It is unwrapped with errors.As by CodeFor, so it may be
// wrapped further on the way up.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exitf builds an ExitError with a formatted message.
func Exitf(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// CodeFor maps an error onto an exit code: nil is ExitOK, an error carrying
// an ExitError keeps its own code, anything else is a fault.
func CodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return ExitFault
}
