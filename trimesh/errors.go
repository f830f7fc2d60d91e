package trimesh

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Error reports a malformed mesh.  Face is the offending source polygon, or
// -1 when the problem is not tied to a face.
type Error struct {
	Face    int
	Message string

	frame xerrors.Frame
}

func newError(face int, format string, args ...interface{}) *Error {
	return &Error{
		Face:    face,
		Message: fmt.Sprintf(format, args...),
		frame:   xerrors.Caller(1),
	}
}

func (e *Error) Error() string {
	if e.Face < 0 {
		return fmt.Sprintf("malformed mesh: %s", e.Message)
	}
	return fmt.Sprintf("malformed mesh: face %d: %s", e.Face, e.Message)
}

func (e *Error) Format(f fmt.State, c rune) { // implements fmt.Formatter
	xerrors.FormatError(e, f, c)
}

func (e *Error) FormatError(p xerrors.Printer) error { // implements xerrors.Formatter
	p.Print(e.Error())
	if p.Detail() {
		e.frame.Format(p)
	}
	return nil
}
