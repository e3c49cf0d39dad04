package tmplc

import (
	"fmt"
	"strconv"
)

// ValueKind is the closed set of runtime value shapes the VM ever pushes
// onto the data stack, stores in the environment, or holds in a register.
type ValueKind int

const (
	VNil ValueKind = iota
	VBool
	VInt
	VString
	VList
)

// Value is the tagged union described in spec.md §3 ("Value is a
// discriminated union of: integer, boolean, string, list of Value, or
// opcode-specific identifier"). Identifiers (label/register/variable/
// builtin names) are carried as plain Go strings on instructions rather
// than as a Value kind, since they never reach the stack.
type Value struct {
	Kind ValueKind
	B    bool
	I    int
	S    string
	L    []Value
}

func Nil() Value           { return Value{Kind: VNil} }
func Bool(b bool) Value    { return Value{Kind: VBool, B: b} }
func Int(i int) Value      { return Value{Kind: VInt, I: i} }
func Str(s string) Value   { return Value{Kind: VString, S: s} }
func List(l []Value) Value { return Value{Kind: VList, L: l} }

// Truthy implements the VM's boolean coercion: bools are themselves,
// an empty string/list or zero int is false, everything else is true.
// This mirrors Python's implicit truthiness which the original
// implementation relies on for JMPIF/EVAL1("!").
func (v Value) Truthy() bool {
	switch v.Kind {
	case VNil:
		return false
	case VBool:
		return v.B
	case VInt:
		return v.I != 0
	case VString:
		return v.S != ""
	case VList:
		return len(v.L) != 0
	default:
		return false
	}
}

// String renders a Value the way the VM's EMIT/interpolate path needs:
// the literal text that should appear in rendered output.
func (v Value) String() string {
	switch v.Kind {
	case VNil:
		return ""
	case VBool:
		if v.B {
			return "true"
		}
		return "false"
	case VInt:
		return strconv.Itoa(v.I)
	case VString:
		return v.S
	case VList:
		parts := make([]string, len(v.L))
		for i, e := range v.L {
			parts[i] = e.String()
		}
		return fmt.Sprintf("%v", parts)
	default:
		return ""
	}
}

// Len implements XCALL len: character count for a string, element count
// for a list, per spec.md §8.
func (v Value) Len() int {
	switch v.Kind {
	case VString:
		return len([]rune(v.S))
	case VList:
		return len(v.L)
	default:
		return 0
	}
}

// compare implements the six EVAL2 comparison operators. Ints compare
// numerically; non-numeric same-kind pairs fall back to comparing the
// rendered string form for ordering operators. "==" and "!=" go through
// valuesEqual, which does not string-coerce across kinds.
func compare(op string, a, b Value) (Value, error) {
	switch op {
	case "==":
		return Bool(valuesEqual(a, b)), nil
	case "!=":
		return Bool(!valuesEqual(a, b)), nil
	}

	if a.Kind == VInt && b.Kind == VInt {
		switch op {
		case "<":
			return Bool(a.I < b.I), nil
		case "<=":
			return Bool(a.I <= b.I), nil
		case ">":
			return Bool(a.I > b.I), nil
		case ">=":
			return Bool(a.I >= b.I), nil
		}
	}

	as, bs := a.String(), b.String()
	switch op {
	case "<":
		return Bool(as < bs), nil
	case "<=":
		return Bool(as <= bs), nil
	case ">":
		return Bool(as > bs), nil
	case ">=":
		return Bool(as >= bs), nil
	}
	return Nil(), fmt.Errorf("unknown comparison operator %q", op)
}

// valuesEqual mirrors Python's native "==" on the EVAL2 original, per
// original_source/generic_templates/template_vm.py's EVAL2: Python's bool
// is a subclass of int, so True == 1 holds, but no other cross-kind pair
// auto-coerces (in particular a string never compares equal to a bool or
// int just because their rendered text matches).
func valuesEqual(a, b Value) bool {
	if a.Kind == b.Kind {
		switch a.Kind {
		case VNil:
			return true
		case VBool:
			return a.B == b.B
		case VInt:
			return a.I == b.I
		case VString:
			return a.S == b.S
		case VList:
			if len(a.L) != len(b.L) {
				return false
			}
			for i := range a.L {
				if !valuesEqual(a.L[i], b.L[i]) {
					return false
				}
			}
			return true
		}
	}
	if isNumeric(a) && isNumeric(b) {
		return numericValue(a) == numericValue(b)
	}
	return false
}

func isNumeric(v Value) bool {
	return v.Kind == VBool || v.Kind == VInt
}

func numericValue(v Value) int {
	if v.Kind == VBool {
		if v.B {
			return 1
		}
		return 0
	}
	return v.I
}
