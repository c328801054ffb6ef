package pkg

import (
	"fmt"
	"strings"
)

// Error is a chain of errors, innermost first.
type Error []error

var (
	// ErrInvalidVersion is returned when the embedded version is not a
	// semantic version.
	ErrInvalidVersion = MakeErrorf("invalid version")
	// ErrInvalidConstraint is returned when a version constraint does not
	// parse.
	ErrInvalidConstraint = MakeErrorf("invalid version constraint")
)

// MakeError constructs an Error from errs, dropping nils.
// The first argument is the innermost error of the chain.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, UnwrapErrors(err)...)
		}
	}

	return e
}

// MakeErrorf constructs an Error from a formatted message.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Error joins the chain with ": ", innermost first.
func (e Error) Error() string {
	parts := make([]string, 0, len(e))
	for _, err := range e {
		parts = append(parts, err.Error())
	}

	return strings.Join(parts, ": ")
}

// Wrap returns a copy of the chain with err appended.
func (e Error) Wrap(err ...error) Error {
	return append(e[:len(e):len(e)], err...)
}

// Wrapf returns a copy of the chain with a formatted error appended.
func (e Error) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Unwrap returns the errors of the chain.
func (e Error) Unwrap() []error { return e }

// UnwrapErrors flattens the chain rooted at err, innermost first.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	var chain Error

	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, wrapped := range e.Unwrap() {
			chain = append(chain, UnwrapErrors(wrapped)...)
		}
	case interface{ Unwrap() error }:
		chain = append(chain, UnwrapErrors(e.Unwrap())...)
	}

	return append(chain, err)
}
