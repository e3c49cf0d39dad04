package tmplc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVMEmitInterpolatesLongestNameFirst(t *testing.T) {
	vm := NewVM(map[string]Value{
		"NAME":      Str("x"),
		"NAME_FULL": Str("y"),
	}, nil)
	require.NoError(t, vm.Load(Program{
		Emit("hello NAME_FULL and NAME\n"),
		Halt(),
	}))
	require.NoError(t, vm.Execute())
	assert.Equal(t, "hello y and x\n", joinOutput(vm))
}

func TestVMRegisterSaveRestore(t *testing.T) {
	vm := NewVM(nil, nil)
	vm.setReg("R0", Int(99))
	require.NoError(t, vm.Load(Program{
		Push("R0"),
		Const(Int(7)),
		Pop("R0"),
		Pop("R0"),
		Halt(),
	}))
	require.NoError(t, vm.Execute())
	assert.Equal(t, Int(99), vm.getReg("R0"))
}

func TestVMStackUnderflowIsRuntimeError(t *testing.T) {
	vm := NewVM(nil, nil)
	require.NoError(t, vm.Load(Program{Pop("R0"), Halt()}))
	err := vm.Execute()
	require.Error(t, err)
	var posErr *PosError
	require.ErrorAs(t, err, &posErr)
	assert.Equal(t, RuntimeError, posErr.Kind)
}

func TestVMOutfileDerivesRelativeToFile(t *testing.T) {
	vm := NewVM(map[string]Value{"__FILE__": Str("/tmp/app/config.template")}, nil)
	require.NoError(t, vm.Load(Program{
		Const(Str("out/config.json")),
		Outfile(),
		Halt(),
	}))
	require.NoError(t, vm.Execute())
	require.NotNil(t, vm.Outfile)
	assert.Equal(t, "/tmp/app/out/config.json", *vm.Outfile)
}

func TestVMOutfileRejectsAbsolutePath(t *testing.T) {
	vm := NewVM(map[string]Value{"__FILE__": Str("/tmp/app/config.template")}, nil)
	require.NoError(t, vm.Load(Program{
		Const(Str("/etc/passwd")),
		Outfile(),
		Halt(),
	}))
	err := vm.Execute()
	require.Error(t, err)
}

func TestVMBuiltins(t *testing.T) {
	vm := NewVM(nil, nil)
	require.NoError(t, vm.Load(Program{
		Const(Str("/a/b/c.txt")),
		XCall("basename"),
		Const(Str("/a/b/c.txt")),
		XCall("dirname"),
		Const(Str("hello")),
		XCall("len"),
		Halt(),
	}))
	require.NoError(t, vm.Execute())
	length, err := vm.pop()
	require.NoError(t, err)
	dir, err := vm.pop()
	require.NoError(t, err)
	base, err := vm.pop()
	require.NoError(t, err)
	assert.Equal(t, Int(5), length)
	assert.Equal(t, Str("/a/b"), dir)
	assert.Equal(t, Str("c.txt"), base)
}

func TestVMArgBindsPositionalArguments(t *testing.T) {
	vm := NewVM(nil, []string{"first", "second"})
	require.NoError(t, vm.Load(Program{
		Arg(0, "A"),
		Arg(1, "B"),
		Halt(),
	}))
	require.NoError(t, vm.Execute())
	assert.Equal(t, Str("first"), vm.Vars["A"])
	assert.Equal(t, Str("second"), vm.Vars["B"])
}
