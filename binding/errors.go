package binding

import (
	"errors"
	"fmt"

	"golang.org/x/xerrors"
)

var (
	ErrExists   = errors.New("binding already exists")
	ErrNotFound = errors.New("binding not found")
)

// Error reports a failed store operation on a single binding.
type Error struct {
	Name    string
	Message string

	inner error
	frame xerrors.Frame
}

func newError(name, message string, inner error) *Error {
	return &Error{
		Name:    name,
		Message: message,
		inner:   inner,
		frame:   xerrors.Caller(1),
	}
}

func (e *Error) Error() string {
	if e.inner == nil {
		return fmt.Sprintf("%s (binding %q)", e.Message, e.Name)
	}
	return fmt.Sprintf("%s (binding %q): %v", e.Message, e.Name, e.inner)
}

func (e *Error) Format(f fmt.State, c rune) { // implements fmt.Formatter
	xerrors.FormatError(e, f, c)
}

func (e *Error) FormatError(p xerrors.Printer) error { // implements xerrors.Formatter
	p.Print(fmt.Sprintf("%s (binding %q)", e.Message, e.Name))
	if p.Detail() {
		e.frame.Format(p)
	}
	return e.inner
}

func (e *Error) Unwrap() error {
	return e.inner
}
