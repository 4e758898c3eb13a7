package domain

import (
	"errors"
	"fmt"
)

// Startup-phase failures abort the process; the rest are reported inside
// the shell loop and never end the session.
var (
	ErrCatalogFetchFailed      = errors.New("catalog fetch failed")
	ErrAuthFailed              = errors.New("authentication failed")
	ErrNetwork                 = errors.New("network error")
	ErrCompletionLookupTimeout = errors.New("completion lookup timed out")
	ErrInvalidInputSyntax      = errors.New("invalid input syntax")
	ErrSessionExpired          = errors.New("session expired")
	ErrServerRestarted         = errors.New("server restarted")
	ErrNoSession               = errors.New("no session established")
	ErrUnknownCommand          = errors.New("unknown command")
)

// FaultKind distinguishes the fault families a bofhd server reports.
type FaultKind string

const (
	FaultCerebrum       FaultKind = "CerebrumError"
	FaultNotImplemented FaultKind = "NotImplementedError"
	FaultServerRestart  FaultKind = "ServerRestartedError"
	FaultSessionExpired FaultKind = "SessionExpiredError"
	FaultOther          FaultKind = "Fault"
)

// RemoteFault is a server-side rejection of a call.
type RemoteFault struct {
	Kind    FaultKind
	Code    int
	Message string
}

func (f *RemoteFault) Error() string {
	if f.Message == "" {
		return string(f.Kind)
	}
	return f.Message
}

// Is lets errors.Is match restart and expiry faults against the
// corresponding sentinels.
func (f *RemoteFault) Is(target error) bool {
	switch f.Kind {
	case FaultServerRestart:
		return target == ErrServerRestarted
	case FaultSessionExpired:
		return target == ErrSessionExpired
	}
	return false
}

// IsRemoteFault reports whether err carries a *RemoteFault.
func IsRemoteFault(err error) bool {
	var fault *RemoteFault
	return errors.As(err, &fault)
}

// SyntaxError reports malformed operator input at a byte offset.
type SyntaxError struct {
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at column %d", e.Reason, e.Offset+1)
}

func (e *SyntaxError) Unwrap() error {
	return ErrInvalidInputSyntax
}
