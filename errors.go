package tmplc

import (
	"fmt"

	"github.com/juju/errors"
)

// ErrorKind distinguishes the five error categories spec.md §7 requires
// the core to tell apart.
type ErrorKind int

const (
	LexError ErrorKind = iota
	ParseError
	LoadError
	RuntimeError
	InterpolationError
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "lex"
	case ParseError:
		return "parse"
	case LoadError:
		return "load"
	case RuntimeError:
		return "runtime"
	case InterpolationError:
		return "interpolation"
	default:
		return "unknown"
	}
}

// PosError is the public error type for anything that can be pinned to a
// row/column in the source template, mirroring the teacher's
// Error{Filename,Line,Column,Sender,OrigError} shape in error.go/context.go.
type PosError struct {
	Kind     ErrorKind
	Filename string
	Row      int
	Col      int
	Sender   string
	OrigErr  error
}

func (e *PosError) Error() string {
	s := fmt.Sprintf("[%s error", e.Kind)
	if e.Sender != "" {
		s += " in " + e.Sender
	}
	if e.Filename != "" {
		s += " " + e.Filename
	}
	if e.Row >= 0 {
		s += fmt.Sprintf(" line %d col %d", e.Row+1, e.Col+1)
	}
	s += "] "
	if e.OrigErr != nil {
		s += e.OrigErr.Error()
	}
	return s
}

func (e *PosError) Unwrap() error { return e.OrigErr }

// newPosError annotates err with juju/errors before wrapping it in a
// PosError, so callers further up the stack can still errors.Cause() down
// to the root.
func newPosError(kind ErrorKind, sender string, row, col int, err error) *PosError {
	return &PosError{
		Kind:    kind,
		Row:     row,
		Col:     col,
		Sender:  sender,
		OrigErr: errors.Trace(err),
	}
}

func lexErrorf(row, col int, format string, args ...any) error {
	return newPosError(LexError, "lexer", row, col, fmt.Errorf(format, args...))
}

func parseErrorf(tok *Token, format string, args ...any) error {
	row, col := -1, -1
	if tok != nil {
		row, col = tok.Row, tok.Col
	}
	return newPosError(ParseError, "parser", row, col, fmt.Errorf(format, args...))
}

func loadErrorf(format string, args ...any) error {
	return newPosError(LoadError, "loader", -1, -1, fmt.Errorf(format, args...))
}

func runtimeErrorf(pc int, format string, args ...any) error {
	return newPosError(RuntimeError, fmt.Sprintf("vm pc=%d", pc), -1, -1, fmt.Errorf(format, args...))
}

func interpolationErrorf(format string, args ...any) error {
	return newPosError(InterpolationError, "interpolate", -1, -1, fmt.Errorf(format, args...))
}
