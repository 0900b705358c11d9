// Package sgerr holds common error objects used across sentgen. Notably, it
// contains the Error type, which can be created with one or more 'cause'
// errors. Calling errors.Is() on an Error with any of its causes as the target
// returns true, so callers can check for failure categories such as
// ErrConfiguration without typecasting.
//
// It also holds the user-facing error type used by the interactive shell.
package sgerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the cause of every error due to a bad grammar,
	// lexicon, repair table, or bound setting.
	ErrConfiguration = errors.New("configuration error")

	// ErrRepairNonTermination is the cause of an error given when forced
	// terminal repair did not converge within its pass cap.
	ErrRepairNonTermination = errors.New("forced terminal repair did not terminate")

	// ErrEmptyDerivation is used by drivers to count derivations that produced
	// no words. The derivation engine itself never returns it.
	ErrEmptyDerivation = errors.New("derivation produced no words")

	// ErrTooManyAttempts is the cause of an error given when a driver could
	// not produce enough acceptable sentences within its attempt cap.
	ErrTooManyAttempts = errors.New("too many derivations were rejected")

	ErrNotFound      = errors.New("the requested entity could not be found")
	ErrAlreadyExists = errors.New("resource with same identifying information already exists")
	ErrStore         = errors.New("an error occured with the export store")
	ErrBadArgument   = errors.New("one or more of the arguments is invalid")
	ErrBodyUnmarshal = errors.New("malformed data in request")
	ErrBadToken      = errors.New("the supplied token is invalid or expired")
)

// Error is a typed error returned by sentgen functions. It contains both a
// message explaining what happened as well as one or more error values it
// considers to be its causes, and is compatible with errors.Is against any of
// them.
//
// If Error has at least one cause defined, Error() is its primary message with
// the message of its first cause appended.
//
// Error should not be used directly; call New to create one.
type Error struct {
	msg   string
	cause []error
}

func (e Error) Error() string {
	if e.msg == "" && e.cause != nil {
		return e.cause[0].Error()
	}

	if e.cause != nil {
		return e.msg + ": " + e.cause[0].Error()
	}

	return e.msg
}

// Unwrap returns the causes of Error. The return value will be nil if no causes
// were defined for it.
func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

// Is returns whether Error either Is itself the given target error, or one of
// its causes is.
func (e Error) Is(target error) bool {
	if errTarget, ok := target.(Error); ok {
		if e.msg == errTarget.msg && len(e.cause) == len(errTarget.cause) {
			allCausesEqual := true
			for i := range e.cause {
				if e.cause[i] != errTarget.cause[i] {
					allCausesEqual = false
					break
				}
			}
			if allCausesEqual {
				return true
			}
		}
	}

	for i := range e.cause {
		if e.cause[i] == target {
			return true
		}
	}
	return false
}

// New creates a new Error with the given message, along with any errors it
// should wrap as its causes.
func New(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}

// Configf returns an Error with a formatted message that has ErrConfiguration
// as its cause.
func Configf(format string, a ...interface{}) Error {
	return New(fmt.Sprintf(format, a...), ErrConfiguration)
}

// WrapStore creates a new Error that wraps the given error as a cause and
// automatically adds ErrStore as another cause.
func WrapStore(msg string, err error) Error {
	return Error{
		msg:   msg,
		cause: []error{err, ErrStore},
	}
}

// userError is an error caused by input to the interactive shell. It includes
// a message to show to the operator as well as the usual technical message.
type userError struct {
	msg   string
	human string
	wrap  error
}

func (e *userError) Error() string {
	return e.msg
}

func (e *userError) Unwrap() error {
	return e.wrap
}

// Userf returns an error whose message shown to the user is built from the
// given format string and arguments.
func Userf(format string, a ...interface{}) error {
	human := fmt.Sprintf(format, a...)
	return &userError{
		msg:   fmt.Sprintf("got UserError(%q)", human),
		human: human,
	}
}

// WrapUserf is the same as Userf but the returned error wraps e.
func WrapUserf(e error, format string, a ...interface{}) error {
	human := fmt.Sprintf(format, a...)
	return &userError{
		msg:   fmt.Sprintf("got UserError(%q): %s", human, e.Error()),
		human: human,
		wrap:  e,
	}
}

// Message gets the message to display to the console for the given error. If
// it was created with Userf or WrapUserf, the user message is returned.
// Otherwise, err.Error() is returned.
func Message(err error) string {
	var uErr *userError
	if errors.As(err, &uErr) {
		return uErr.human
	}
	return err.Error()
}
