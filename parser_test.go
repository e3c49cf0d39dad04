package tmplc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func compileString(t *testing.T, src string) Program {
	t.Helper()
	toks := lexString(t, src)
	prog, err := NewParser("test.template", toks).Parse()
	require.NoError(t, err)
	return prog
}

func runProgram(t *testing.T, prog Program, env map[string]Value, argv []string) *VM {
	t.Helper()
	vm := NewVM(env, argv)
	require.NoError(t, vm.Load(prog))
	require.NoError(t, vm.Execute())
	return vm
}

func TestParseDefineAndIf(t *testing.T) {
	// A bare #define binds Bool(true), which is not == "true" (a string):
	// cross-kind equality only coerces bool<->int, never bool<->string.
	prog := compileString(t, "#define FOO\n#if FOO == \"true\"\nyes\n#else\nno\n#endif\n")
	vm := runProgram(t, prog, nil, nil)
	require.Equal(t, "no\n", joinOutput(vm))
}

func TestParseIfndefInversion(t *testing.T) {
	prog := compileString(t, "#ifndef BAR\nmissing\n#else\npresent\n#endif\n")
	vm := runProgram(t, prog, map[string]Value{"BAR": Str("x")}, nil)
	require.Equal(t, "present\n", joinOutput(vm))
}

func TestParseComparisonOperandOrder(t *testing.T) {
	// "A" < "B" must read left-to-right as written, regardless of the
	// push-right-then-left EVAL2 convention used internally.
	prog := compileString(t, "#if A < B\nless\n#else\nnotless\n#endif\n")
	vm := runProgram(t, prog, map[string]Value{"A": Int(1), "B": Int(2)}, nil)
	require.Equal(t, "less\n", joinOutput(vm))

	vm2 := runProgram(t, prog, map[string]Value{"A": Int(5), "B": Int(2)}, nil)
	require.Equal(t, "notless\n", joinOutput(vm2))
}

func TestParseForeachParallelIteration(t *testing.T) {
	prog := compileString(t, "#for PNAME, PAGE in NAMES, AGES\n- PNAME is PAGE\n#endfor\n")
	env := map[string]Value{
		"NAMES": List([]Value{Str("alice"), Str("bob")}),
		"AGES":  List([]Value{Str("30"), Str("40")}),
	}
	vm := runProgram(t, prog, env, nil)
	require.Equal(t, "- alice is 30\n- bob is 40\n", joinOutput(vm))
}

func joinOutput(vm *VM) string {
	out := ""
	for _, s := range vm.Output {
		out += s
	}
	return out
}
