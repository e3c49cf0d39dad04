package tmplc

import "strings"

// provenanceHeader is the body emitted by "#template ...", before
// interpolation substitutes __FILE__ with the template's own path. It is
// always "#"-commented regardless of the eventual output extension; the
// driver's separate, extension-aware warning banner (driver.go) is a
// second, independent provenance mechanism applied only when writing to
// a file, per original_source/generic_templates/template.py.
const provenanceHeader = "\n#\n# WARNING: This file was created automatically from the template located in:\n#   __FILE__\n# Any changes made here will be lost the next time the template is processed.\n# Please update the template file to make durable changes.\n#\n"

// Parser is a recursive-descent implementation of the LALR grammar in
// spec.md §4.3, grounded on the teacher's token-cursor API shape
// (Match/Peek/Consume/Current in parser.go) but producing a flat
// Program instead of an AST, since the target is a bytecode VM.
type Parser struct {
	filename string
	tokens   []*Token
	idx      int
	gen      gensym
}

func NewParser(filename string, tokens []*Token) *Parser {
	return &Parser{filename: filename, tokens: tokens}
}

func (p *Parser) current() *Token {
	if p.idx < len(p.tokens) {
		return p.tokens[p.idx]
	}
	return nil
}

func (p *Parser) advance() *Token {
	tok := p.current()
	if tok != nil {
		p.idx++
	}
	return tok
}

func (p *Parser) match(kind TokenKind) *Token {
	if tok := p.current(); tok != nil && tok.Kind == kind {
		p.idx++
		return tok
	}
	return nil
}

func (p *Parser) expect(kind TokenKind) (*Token, error) {
	if tok := p.match(kind); tok != nil {
		return tok, nil
	}
	got := "EOF"
	if tok := p.current(); tok != nil {
		got = tok.Kind.String()
	}
	return nil, parseErrorf(p.current(), "expected %s, got %s", kind, got)
}

func containsKind(kinds []TokenKind, k TokenKind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// Parse runs start ::= block, appending the implicit HALT that closes
// every program (spec.md §4.3 "start").
func (p *Parser) Parse() (Program, error) {
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok != nil {
		return nil, parseErrorf(tok, "unexpected token %s %q", tok.Kind, tok.Lexeme)
	}
	return append(block, Halt()), nil
}

// parseBlock consumes anyitem* until EOF or one of the given stop kinds
// (used to let ELSE/ENDIF/ENDFOREACH terminate a nested block).
func (p *Parser) parseBlock(stop ...TokenKind) (Program, error) {
	var code Program
	for {
		tok := p.current()
		if tok == nil || containsKind(stop, tok.Kind) {
			return code, nil
		}
		item, err := p.parseAnyItem()
		if err != nil {
			return nil, err
		}
		code = append(code, item...)
	}
}

func (p *Parser) parseAnyItem() (Program, error) {
	tok := p.current()
	switch tok.Kind {
	case TText:
		return p.parseBody()
	case TInclude:
		return p.parseInclude()
	case TDefine, TTemplate:
		return p.parseDefine()
	case THalt, TOutfile:
		return p.parseInstruction()
	case TIf:
		return p.parseIf()
	case TIfdef:
		p.advance()
		return p.parseIfDefBody(false)
	case TIfndef:
		p.advance()
		return p.parseIfDefBody(true)
	case TForeach:
		return p.parseForeach()
	default:
		return nil, parseErrorf(tok, "unexpected token %s %q", tok.Kind, tok.Lexeme)
	}
}

func (p *Parser) parseBody() (Program, error) {
	var code Program
	for {
		tok := p.current()
		if tok == nil || tok.Kind != TText {
			return code, nil
		}
		p.advance()
		code = append(code, Emit(tok.Lexeme))
	}
}

func (p *Parser) parseInclude() (Program, error) {
	if _, err := p.expect(TInclude); err != nil {
		return nil, err
	}
	path, err := p.expect(TString)
	if err != nil {
		return nil, err
	}
	return Program{Include(unquote(path.Lexeme))}, nil
}

func (p *Parser) parseDefine() (Program, error) {
	if p.match(TTemplate) != nil {
		arglist, err := p.parseArglist()
		if err != nil {
			return nil, err
		}
		code := Program{Emit(provenanceHeader)}
		for i, name := range arglist {
			code = append(code, Arg(i, name))
		}
		return code, nil
	}

	if _, err := p.expect(TDefine); err != nil {
		return nil, err
	}
	sym, err := p.expect(TSymbol)
	if err != nil {
		return nil, err
	}

	var exprCode Program
	if p.exprStarts() {
		exprCode, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	} else {
		exprCode = Program{Const(Bool(true))}
	}
	return append(exprCode, Set(sym.Lexeme)), nil
}

func (p *Parser) exprStarts() bool {
	tok := p.current()
	if tok == nil {
		return false
	}
	switch tok.Kind {
	case TSymbol, TString, TBasename, TDirname, TInterpolate, TIndices:
		return true
	default:
		return false
	}
}

func (p *Parser) parseInstruction() (Program, error) {
	if p.match(THalt) != nil {
		return Program{Halt()}, nil
	}
	if _, err := p.expect(TOutfile); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return append(e, Outfile()), nil
}

// parseIf implements condbody: IF bexpr block [ELSE block] ENDIF, lowered
// with the false branch as fallthrough and the true branch behind a
// label and jump, per spec.md §4.3 and the Open Question in §9.
func (p *Parser) parseIf() (Program, error) {
	if _, err := p.expect(TIf); err != nil {
		return nil, err
	}
	bexpr, err := p.parseBExpr()
	if err != nil {
		return nil, err
	}
	trueBlock, err := p.parseBlock(TElse, TEndif)
	if err != nil {
		return nil, err
	}
	var falseBlock Program
	if p.match(TElse) != nil {
		falseBlock, err = p.parseBlock(TEndif)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TEndif); err != nil {
		return nil, err
	}
	trueLabel := p.gen.next("true")
	endLabel := p.gen.next("xcont")

	code := append(Program{}, bexpr...)
	code = append(code, JmpIf(trueLabel))
	code = append(code, falseBlock...)
	code = append(code, Jmp(endLabel), Label(trueLabel))
	code = append(code, trueBlock...)
	code = append(code, Label(endLabel))
	return code, nil
}

// parseIfDefBody implements condbody2 for IFDEF/IFNDEF, called after the
// head token has already been consumed by the caller.
func (p *Parser) parseIfDefBody(invert bool) (Program, error) {
	sym, err := p.expect(TSymbol)
	if err != nil {
		return nil, err
	}
	trueBlock, err := p.parseBlock(TElse, TEndif)
	if err != nil {
		return nil, err
	}
	var falseBlock Program
	if p.match(TElse) != nil {
		falseBlock, err = p.parseBlock(TEndif)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TEndif); err != nil {
		return nil, err
	}

	trueLabel := p.gen.next("true")
	endLabel := p.gen.next("xcont")

	code := Program{Const(Str(sym.Lexeme)), Eval1("defined")}
	if invert {
		code = append(code, Eval1("!"))
	}
	code = append(code, JmpIf(trueLabel))
	code = append(code, falseBlock...)
	code = append(code, Jmp(endLabel), Label(trueLabel))
	code = append(code, trueBlock...)
	code = append(code, Label(endLabel))
	return code, nil
}

func (p *Parser) parseBExpr() (Program, error) {
	if p.match(TUnary) != nil {
		inner, err := p.parseBExpr()
		if err != nil {
			return nil, err
		}
		return append(inner, Eval1("!")), nil
	}
	if p.match(TDefined) != nil {
		if _, err := p.expect(TLpar); err != nil {
			return nil, err
		}
		sym, err := p.expect(TSymbol)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TRpar); err != nil {
			return nil, err
		}
		return Program{Const(Str(sym.Lexeme)), Eval1("defined")}, nil
	}
	if p.match(TTrue) != nil {
		return Program{Const(Bool(true))}, nil
	}
	if p.match(TFalse) != nil {
		return Program{Const(Bool(false))}, nil
	}

	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	comp, err := p.expect(TComp)
	if err != nil {
		return nil, err
	}
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	// Push right then left so EVAL2 pops a=left, b=right (spec.md §4.3/§4.4
	// operand-order convention).
	code := append(Program{}, right...)
	code = append(code, left...)
	code = append(code, Eval2(comp.Lexeme))
	return code, nil
}

func (p *Parser) parseExpr() (Program, error) {
	tok := p.current()
	if tok == nil {
		return nil, parseErrorf(nil, "unexpected EOF in expression")
	}
	switch tok.Kind {
	case TSymbol:
		p.advance()
		return Program{Get(tok.Lexeme)}, nil
	case TString:
		p.advance()
		return Program{Const(Str(unquote(tok.Lexeme)))}, nil
	case TBasename, TDirname, TInterpolate, TIndices:
		p.advance()
		if _, err := p.expect(TLpar); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TRpar); err != nil {
			return nil, err
		}
		return append(inner, XCall(strings.ToLower(tok.Lexeme))), nil
	default:
		return nil, parseErrorf(tok, "expected expression, got %s %q", tok.Kind, tok.Lexeme)
	}
}

func (p *Parser) parseArglist() ([]string, error) {
	first, err := p.expect(TSymbol)
	if err != nil {
		return nil, err
	}
	syms := []string{first.Lexeme}
	for p.match(TComma) != nil {
		tok, err := p.expect(TSymbol)
		if err != nil {
			return nil, err
		}
		syms = append(syms, tok.Lexeme)
	}
	return syms, nil
}

func (p *Parser) parseExprList() ([]Program, error) {
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	list := []Program{first}
	for p.match(TComma) != nil {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

// parseForeach implements the parallel-iteration lowering of spec.md
// §4.3 "FOREACH lowering" verbatim, including the register save/restore
// and the push-right-first/pop-then-pop EVAL2 convention it depends on.
func (p *Parser) parseForeach() (Program, error) {
	if _, err := p.expect(TForeach); err != nil {
		return nil, err
	}
	arglist, err := p.parseArglist()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TIn); err != nil {
		return nil, err
	}
	exprlist, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if len(arglist) != len(exprlist) {
		return nil, parseErrorf(p.current(), "foreach: %d variables but %d expressions", len(arglist), len(exprlist))
	}
	block, err := p.parseBlock(TEndforeach)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TEndforeach); err != nil {
		return nil, err
	}

	n := len(arglist)
	loop := p.gen.next("loop")
	brk := p.gen.next("brk")

	var code Program
	for i := 0; i <= n+1; i++ {
		code = append(code, Push(regName(i)))
	}
	code = append(code, Const(Int(0)), Pop("R0"))

	for i := 0; i < n; i++ {
		code = append(code, exprlist[i]...)
		if i == 0 {
			code = append(code, Dup(), XCall("len"), Pop("R1"))
		}
		code = append(code, Pop(regName(i+2)))
	}

	code = append(code, Label(loop))
	code = append(code, Push("R0"), Push("R1"), Eval2("<="), JmpIf(brk))

	for i := 0; i < n; i++ {
		code = append(code, GetIdx(regName(i+2), "R0"), Set(arglist[i]))
	}

	code = append(code, block...)
	code = append(code, Add("R0", 1), Jmp(loop), Label(brk))

	for i := n + 1; i >= 0; i-- {
		code = append(code, Pop(regName(i)))
	}
	return code, nil
}
