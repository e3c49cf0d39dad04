package tmplc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kr/pretty"
)

// RegisterCount matches the Python original's 64-register file
// (template_vm.py: `{f'R{x}': None for x in range(64)}`).
const RegisterCount = 64

func regName(i int) string { return fmt.Sprintf("R%d", i) }

// VM is the stack + register + environment interpreter of spec.md §4.4,
// grounded on original_source/generic_templates/template_vm.py's
// PreprocessorVM.
type VM struct {
	Vars    map[string]Value
	Argv    []string
	Output  []string
	Outfile *string

	program   Program
	labels    map[string]int
	registers map[string]Value
	stack     []Value
	pc        int
	running   bool
}

// NewVM seeds the environment and positional argument list exactly as
// the caller supplies them; env is used directly (not copied), matching
// the Python VM's `self.vars = env`.
func NewVM(env map[string]Value, argv []string) *VM {
	if env == nil {
		env = map[string]Value{}
	}
	regs := make(map[string]Value, RegisterCount)
	for i := 0; i < RegisterCount; i++ {
		regs[regName(i)] = Nil()
	}
	return &VM{
		Vars:      env,
		Argv:      argv,
		registers: regs,
		program:   Program{Label("main")},
		labels:    map[string]int{},
	}
}

// Load appends a compiled Program to program memory and rescans labels,
// per spec.md §3 invariant 1 ("resolves in the label table after all
// program fragments have been loaded").
func (vm *VM) Load(prog Program) error {
	vm.program = append(vm.program, prog...)
	return vm.scanLabels()
}

func (vm *VM) scanLabels() error {
	labels := make(map[string]int, len(vm.labels))
	for i, instr := range vm.program {
		if instr.Op != OpLabel {
			continue
		}
		name := instr.Arg1.(string)
		if _, dup := labels[name]; dup {
			return loadErrorf("duplicate label %q", name)
		}
		labels[name] = i
	}
	vm.labels = labels
	logger.Tracef("rescanned %d labels over %d instructions", len(labels), len(vm.program))
	return nil
}

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (Value, error) {
	if len(vm.stack) == 0 {
		return Nil(), runtimeErrorf(vm.pc, "stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *VM) getReg(name string) Value {
	return vm.registers[name]
}

func (vm *VM) setReg(name string, v Value) {
	vm.registers[name] = v
}

// Execute runs the loaded program from its "main" label until HALT,
// per spec.md §4.4 "Execution loop".
func (vm *VM) Execute() error {
	idx, ok := vm.labels["main"]
	if !ok {
		return loadErrorf("missing entry label \"main\"")
	}
	vm.pc = idx
	vm.running = true
	for vm.running {
		if err := vm.step(); err != nil {
			logger.Errorf("vm fatal at pc=%d instr=%v: %v", vm.pc, vm.program[vm.pc], err)
			return err
		}
	}
	return nil
}

// step executes exactly one instruction. Any exception surfaces the
// program counter and the failing instruction, per spec.md §4.4.
func (vm *VM) step() error {
	if !vm.running {
		return nil
	}
	pc := vm.pc
	instr := vm.program[pc]
	vm.pc++

	switch instr.Op {
	case OpLabel:
		// no-op at run time (spec.md §8: "LABEL never alters stack,
		// environment, or output")

	case OpJmp:
		target := instr.Arg1.(string)
		idx, ok := vm.labels[target]
		if !ok {
			return runtimeErrorf(pc, "unknown label %q", target)
		}
		vm.pc = idx

	case OpJmpIf:
		cond, err := vm.pop()
		if err != nil {
			return err
		}
		if cond.Truthy() {
			target := instr.Arg1.(string)
			idx, ok := vm.labels[target]
			if !ok {
				return runtimeErrorf(pc, "unknown label %q", target)
			}
			vm.pc = idx
		}

	case OpEmit:
		text := instr.Arg1.(string)
		vm.Output = append(vm.Output, vm.interpolateEmit(text))

	case OpConst:
		vm.push(instr.Arg1.(Value))

	case OpGet:
		sym := instr.Arg1.(string)
		v, ok := vm.Vars[sym]
		if !ok {
			v = Str("")
		}
		vm.push(v)

	case OpSet:
		sym := instr.Arg1.(string)
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.Vars[sym] = v

	case OpDup:
		if len(vm.stack) == 0 {
			return runtimeErrorf(pc, "stack underflow in DUP")
		}
		vm.push(vm.stack[len(vm.stack)-1])

	case OpPush:
		vm.push(vm.getReg(instr.Arg1.(string)))

	case OpPop:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.setReg(instr.Arg1.(string), v)

	case OpAdd:
		reg := instr.Arg1.(string)
		k := instr.Arg2.(int)
		cur := vm.getReg(reg)
		vm.setReg(reg, Int(cur.I+k))

	case OpGetIdx:
		arr := vm.getReg(instr.Arg1.(string))
		idxv := vm.getReg(instr.Arg2.(string))
		if idxv.I < 0 || idxv.I >= len(arr.L) {
			return runtimeErrorf(pc, "index %d out of range (len %d)", idxv.I, len(arr.L))
		}
		vm.push(arr.L[idxv.I])

	case OpEval1:
		op := instr.Arg1.(string)
		a, err := vm.pop()
		if err != nil {
			return err
		}
		switch op {
		case "!":
			vm.push(Bool(!a.Truthy()))
		case "defined":
			_, ok := vm.Vars[a.S]
			vm.push(Bool(ok))
		default:
			return runtimeErrorf(pc, "unknown EVAL1 operator %q", op)
		}

	case OpEval2:
		op := instr.Arg1.(string)
		a, err := vm.pop()
		if err != nil {
			return err
		}
		b, err := vm.pop()
		if err != nil {
			return err
		}
		result, err := compare(op, a, b)
		if err != nil {
			return runtimeErrorf(pc, "%s", err)
		}
		vm.push(result)

	case OpXCall:
		name := instr.Arg1.(string)
		v, err := vm.pop()
		if err != nil {
			return err
		}
		result, err := vm.callBuiltin(name, v)
		if err != nil {
			return runtimeErrorf(pc, "%s", err)
		}
		vm.push(result)

	case OpArg:
		i := instr.Arg1.(int)
		sym := instr.Arg2.(string)
		if i >= len(vm.Argv) {
			return runtimeErrorf(pc, "template asks for argument %d but only %d were given", i, len(vm.Argv))
		}
		vm.Vars[sym] = Str(vm.Argv[i])

	case OpOutfile:
		fileVar, ok := vm.Vars["__FILE__"]
		if !ok {
			return runtimeErrorf(pc, "__FILE__ not set before OUTFILE")
		}
		name, err := vm.pop()
		if err != nil {
			return err
		}
		if strings.HasPrefix(name.S, "/") {
			return runtimeErrorf(pc, "OUTFILE path %q must be relative", name.S)
		}
		full := filepath.Join(filepath.Dir(fileVar.S), name.S)
		vm.Outfile = &full

	case OpInclude:
		return runtimeErrorf(pc, "#include is reserved, not implemented (%v)", instr.Arg1)

	case OpPrint:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, v.String())

	case OpHalt:
		vm.running = false

	default:
		return runtimeErrorf(pc, "unimplemented opcode %s", instr.Op)
	}
	return nil
}

// interpolateEmit performs EMIT-time interpolation: variable names are
// substring-replaced in descending order of length so that a shorter
// name never shadows a longer one sharing its prefix (spec.md §4.4,
// testable property #2).
func (vm *VM) interpolateEmit(body string) string {
	names := make([]string, 0, len(vm.Vars))
	for k := range vm.Vars {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for _, name := range names {
		body = strings.ReplaceAll(body, name, vm.Vars[name].String())
	}
	return body
}

func (vm *VM) callBuiltin(name string, v Value) (Value, error) {
	switch name {
	case "basename":
		return Str(filepath.Base(v.S)), nil
	case "dirname":
		return Str(filepath.Dir(v.S)), nil
	case "interpolate":
		return Str(vm.interpolateEmit(v.S)), nil
	case "len":
		return Int(v.Len()), nil
	case "indices":
		n := v.Len()
		l := make([]Value, n)
		for i := 0; i < n; i++ {
			l[i] = Int(i)
		}
		return List(l), nil
	default:
		return Nil(), fmt.Errorf("unknown builtin %q", name)
	}
}

// DumpState renders the VM's stack, environment, and register file for
// diagnostics, using kr/pretty the way a test failure or a trace log
// line would want to see it.
func (vm *VM) DumpState() string {
	return fmt.Sprintf("pc=%d stack=%s vars=%s", vm.pc, pretty.Sprint(vm.stack), pretty.Sprint(vm.Vars))
}
