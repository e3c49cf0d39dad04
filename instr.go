package tmplc

import "fmt"

// OpCode enumerates the bytecode instruction set of spec.md §3.
type OpCode int

const (
	OpLabel OpCode = iota
	OpJmp
	OpJmpIf
	OpEmit
	OpConst
	OpGet
	OpSet
	OpDup
	OpPush
	OpPop
	OpAdd
	OpGetIdx
	OpEval1
	OpEval2
	OpXCall
	OpArg
	OpOutfile
	OpHalt
	OpInclude
	OpPrint
)

var opCodeNames = map[OpCode]string{
	OpLabel: "LABEL", OpJmp: "JMP", OpJmpIf: "JMPIF", OpEmit: "EMIT",
	OpConst: "CONST", OpGet: "GET", OpSet: "SET", OpDup: "DUP",
	OpPush: "PUSH", OpPop: "POP", OpAdd: "ADD", OpGetIdx: "GETIDX",
	OpEval1: "EVAL1", OpEval2: "EVAL2", OpXCall: "XCALL", OpArg: "ARG",
	OpOutfile: "OUTFILE", OpHalt: "HALT", OpInclude: "INCLUDE", OpPrint: "PRINT",
}

func (o OpCode) String() string {
	if n, ok := opCodeNames[o]; ok {
		return n
	}
	return "UNKNOWN"
}

// Instruction is {opcode, arg1?, arg2?} per spec.md §3. Arg1/Arg2 carry
// either a Value (CONST/ADD's constant) or a bare identifier string
// (label/register/variable/builtin name) — represented here as Go
// interface{} values of either Value or string, matched by the opcode.
type Instruction struct {
	Op   OpCode
	Arg1 any
	Arg2 any
}

func (i Instruction) String() string {
	if i.Arg1 == nil {
		return i.Op.String()
	}
	if i.Arg2 == nil {
		return fmt.Sprintf("%s %v", i.Op, i.Arg1)
	}
	return fmt.Sprintf("%s %v, %v", i.Op, i.Arg1, i.Arg2)
}

// Program is the ordered sequence of instructions produced by the code
// generator. Entry label "main" is always at index 0 (LABEL("main")).
type Program []Instruction

func Label(name string) Instruction         { return Instruction{Op: OpLabel, Arg1: name} }
func Jmp(name string) Instruction           { return Instruction{Op: OpJmp, Arg1: name} }
func JmpIf(name string) Instruction         { return Instruction{Op: OpJmpIf, Arg1: name} }
func Emit(text string) Instruction          { return Instruction{Op: OpEmit, Arg1: text} }
func Const(v Value) Instruction             { return Instruction{Op: OpConst, Arg1: v} }
func Get(sym string) Instruction            { return Instruction{Op: OpGet, Arg1: sym} }
func Set(sym string) Instruction            { return Instruction{Op: OpSet, Arg1: sym} }
func Dup() Instruction                      { return Instruction{Op: OpDup} }
func Push(reg string) Instruction           { return Instruction{Op: OpPush, Arg1: reg} }
func Pop(reg string) Instruction            { return Instruction{Op: OpPop, Arg1: reg} }
func Add(reg string, k int) Instruction     { return Instruction{Op: OpAdd, Arg1: reg, Arg2: k} }
func GetIdx(arr, idx string) Instruction    { return Instruction{Op: OpGetIdx, Arg1: arr, Arg2: idx} }
func Eval1(op string) Instruction           { return Instruction{Op: OpEval1, Arg1: op} }
func Eval2(op string) Instruction           { return Instruction{Op: OpEval2, Arg1: op} }
func XCall(name string) Instruction         { return Instruction{Op: OpXCall, Arg1: name} }
func Arg(i int, sym string) Instruction     { return Instruction{Op: OpArg, Arg1: i, Arg2: sym} }
func Outfile() Instruction                  { return Instruction{Op: OpOutfile} }
func Halt() Instruction                     { return Instruction{Op: OpHalt} }
func Include(path string) Instruction       { return Instruction{Op: OpInclude, Arg1: path} }
func Print() Instruction                    { return Instruction{Op: OpPrint} }

// gensym is a monotonic label counter threaded through one compilation,
// per DESIGN.md's resolution of spec.md §9's "prefer a per-compilation
// counter" note (the original Python used a process-wide global).
type gensym struct{ n int }

func (g *gensym) next(prefix string) string {
	g.n++
	return fmt.Sprintf("%s_%03d", prefix, g.n)
}
