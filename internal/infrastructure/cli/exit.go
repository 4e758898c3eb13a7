package cli

import (
	"errors"

	"github.com/cerebrum/bofh-go/internal/domain"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitAuth    = 2
	ExitNetwork = 3
	ExitCatalog = 4
)

// ExitError carries the process exit code for a fatal error.
type ExitError struct {
	Code int
	Err  error
	// Silent marks errors that were already reported to the operator.
	Silent bool
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// startupError classifies a startup failure by its cause.
func startupError(err error) error {
	if err == nil {
		return nil
	}
	code := ExitFailure
	switch {
	case errors.Is(err, domain.ErrAuthFailed):
		code = ExitAuth
	case errors.Is(err, domain.ErrCatalogFetchFailed):
		code = ExitCatalog
	case errors.Is(err, domain.ErrNetwork):
		code = ExitNetwork
	}
	return &ExitError{Code: code, Err: err}
}

// ShouldReport reports whether err still needs to be printed.
func ShouldReport(err error) bool {
	var exit *ExitError
	if errors.As(err, &exit) {
		return !exit.Silent
	}
	return err != nil
}

// ExitCode maps an error returned by the root command to an exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return ExitFailure
}
