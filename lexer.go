package tmplc

import (
	"regexp"
	"strings"
)

// directiveRule pairs a column-zero regex with the token kind it produces.
// Order is authoritative: longer keyword matches must precede shorter ones
// where overlap exists (IFDEF/IFNDEF before IF), per spec.md §4.2.
type directiveRule struct {
	kind TokenKind
	re   *regexp.Regexp
}

var directiveRules = []directiveRule{
	{TInclude, regexp.MustCompile(`^#\s*include\b`)},
	{TTemplate, regexp.MustCompile(`^#\s*template\b`)},
	{TDefine, regexp.MustCompile(`^#\s*define\b`)},
	{TIfdef, regexp.MustCompile(`^#\s*ifdef\b`)},
	{TIfndef, regexp.MustCompile(`^#\s*ifndef\b`)},
	{TIf, regexp.MustCompile(`^#\s*if\b`)},
	{TElse, regexp.MustCompile(`^#\s*else\b`)},
	{TEndif, regexp.MustCompile(`^#\s*endif\b`)},
	{THalt, regexp.MustCompile(`^#\s*halt\b`)},
	{TOutfile, regexp.MustCompile(`^#\s*outfile\b`)},
	{TForeach, regexp.MustCompile(`^#\s*for\b`)},
	{TEndforeach, regexp.MustCompile(`^#\s*endfor\b`)},
}

// inlineRule is an in-line (column > 0) lexical rule. Keyword rules must
// precede the general SYMBOL rule; order is preserved for the same reason
// as directiveRules even though no current pair overlaps.
type inlineRule struct {
	kind TokenKind
	re   *regexp.Regexp
}

var inlineRules = []inlineRule{
	{TTrue, regexp.MustCompile(`^\btrue\b`)},
	{TFalse, regexp.MustCompile(`^\bfalse\b`)},
	{TSPACE, regexp.MustCompile(`^[\t ]+`)},
	{TComp, regexp.MustCompile(`^(==|<=|>=|<|>|!=)`)},
	{TUnary, regexp.MustCompile(`^!`)},
	{TAssign, regexp.MustCompile(`^=`)},
	{TDefined, regexp.MustCompile(`^\bdefined\b`)},
	{TBasename, regexp.MustCompile(`^\bbasename\b`)},
	{TDirname, regexp.MustCompile(`^\bdirname\b`)},
	{TInterpolate, regexp.MustCompile(`^\binterpolate\b`)},
	{TIndices, regexp.MustCompile(`^\bindices\b`)},
	{TIn, regexp.MustCompile(`^\bin\b`)},
	{TLpar, regexp.MustCompile(`^\(`)},
	{TRpar, regexp.MustCompile(`^\)`)},
	{TComma, regexp.MustCompile(`^,`)},
	{TSymbol, regexp.MustCompile(`^[@A-Za-z_][@A-Za-z0-9_]*`)},
	{TString, regexp.MustCompile(`^"[^"]*"`)},
}

// Lexer is the dual-mode, regex-driven scanner of spec.md §4.2: it
// dispatches on column==0 to pick between directive-head rules and
// in-line expression rules, reading from an Fpos window.
type Lexer struct {
	fp       *Fpos
	filename string
}

func NewLexer(fp *Fpos, filename string) *Lexer {
	return &Lexer{fp: fp, filename: filename}
}

// Lex tokenizes the entire input, filtering SPACE and EOL tokens before
// they reach the parser (spec.md §4.2 "Output stream").
func (l *Lexer) Lex() ([]*Token, error) {
	var out []*Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			break
		}
		if tok.Kind == TSPACE || tok.Kind == TEOL {
			continue
		}
		out = append(out, tok)
	}
	return out, nil
}

func (l *Lexer) next() (*Token, error) {
	if l.fp.AtEOF() {
		return nil, nil
	}
	row, col := l.fp.Row(), l.fp.Column()
	view := l.fp.View()

	if col == 0 {
		for _, r := range directiveRules {
			if m := r.re.FindString(view); m != "" {
				tok := &Token{Kind: r.kind, Lexeme: m, Row: row, Col: col}
				l.fp.Skip(len(m))
				return tok, nil
			}
		}
		text := view
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		tok := &Token{Kind: TText, Lexeme: text, Row: row, Col: col}
		l.fp.Skip(len(view))
		return tok, nil
	}

	for _, r := range inlineRules {
		if m := r.re.FindString(view); m != "" {
			tok := &Token{Kind: r.kind, Lexeme: m, Row: row, Col: col}
			l.fp.Skip(len(m))
			return tok, nil
		}
	}
	if view == "\n" || view == "" {
		tok := &Token{Kind: TEOL, Lexeme: view, Row: row, Col: col}
		skip := len(view)
		if skip == 0 {
			skip = 1
		}
		l.fp.Skip(skip)
		return tok, nil
	}
	return nil, lexErrorf(row, col, "invalid token at %q", firstRunes(view, 20))
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
