// Package errs defines the error taxonomy shared across the store, parser,
// executor and persistence layers so callers can classify failures without
// string matching.
package errs

import "errors"

// Kind classifies an error for logging and for the session loop's decision
// on whether to keep a connection open.
type Kind int

const (
	KindParse Kind = iota
	KindValidation
	KindTxConflict
	KindCollaboratorUnavailable
	KindIOFailure
	KindFatalInternal
)

// Error wraps an underlying cause with a Kind so the executor and session
// loop can decide recoverability without inspecting message text.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Msg: msg, Err: cause}
}

func Parse(msg string) error                { return newErr(KindParse, msg, nil) }
func Validation(msg string) error           { return newErr(KindValidation, msg, nil) }
func TxConflict(msg string) error           { return newErr(KindTxConflict, msg, nil) }
func CollaboratorUnavailable(msg string) error { return newErr(KindCollaboratorUnavailable, msg, nil) }
func IOFailure(msg string, cause error) error  { return newErr(KindIOFailure, msg, cause) }
func FatalInternal(msg string, cause error) error {
	return newErr(KindFatalInternal, msg, cause)
}

// KindOf extracts the Kind from err, defaulting to KindValidation for plain
// errors raised outside this package (e.g. a bare errors.New from a
// collaborator).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindValidation
}

// Recoverable reports whether the session loop should keep the connection
// open after this error; only KindFatalInternal propagates to process exit.
func Recoverable(err error) bool {
	return KindOf(err) != KindFatalInternal
}
