package log

import (
	"fmt"
)

// Common errors that can happen on startup.
var (
	ErrMalformedConfig = newFatalErrorWithReason("ERR_MALFORMED_CONFIG", "config file is malformed")
	ErrBadFlags        = newFatalErrorWithReason("ERR_BAD_FLAGS", "bad CLI flags")
	ErrBindRecovery    = newFatalErrorWithReason("ERR_BIND_RECOVERY", "could not bind recovery listener")
	ErrOpenFeed        = newFatalErrorWithReason("ERR_OPEN_FEED", "could not open feed transport")
)

// FatalError describes an error that prevents a component from starting.
type FatalError struct {
	Code   string
	Text   string
	Reason error
}

func newFatalErrorWithReason(code, text string) func(reason error) *FatalError {
	return func(reason error) *FatalError {
		return &FatalError{
			Code:   code,
			Text:   text,
			Reason: reason,
		}
	}
}

func (fe *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", fe.Text, fe.Reason)
}

func (fe *FatalError) Unwrap() error {
	return fe.Reason
}
