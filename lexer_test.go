package tmplc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexString(t *testing.T, src string) []*Token {
	t.Helper()
	fp := NewFposFromLines(splitKeepEnds(src))
	toks, err := NewLexer(fp, "test.template").Lex()
	require.NoError(t, err)
	return toks
}

// splitKeepEnds mimics the line splitting NewFposFromReader does, for
// tests that want to build an Fpos from an inline string.
func splitKeepEnds(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func TestLexerDirectiveHeadRequiresColumnZero(t *testing.T) {
	toks := lexString(t, "#define FOO\n")
	require.Len(t, toks, 2)
	assert.Equal(t, TDefine, toks[0].Kind)
	assert.Equal(t, TSymbol, toks[1].Kind)
	assert.Equal(t, "FOO", toks[1].Lexeme)
}

func TestLexerIfdefBeforeIf(t *testing.T) {
	toks := lexString(t, "#ifdef FOO\n#endif\n")
	require.Len(t, toks, 4)
	assert.Equal(t, TIfdef, toks[0].Kind)
	assert.Equal(t, TEndif, toks[2].Kind)
}

func TestLexerTextFallsThroughAtColumnZero(t *testing.T) {
	toks := lexString(t, "hello world\n")
	require.Len(t, toks, 1)
	assert.Equal(t, TText, toks[0].Kind)
	assert.Equal(t, "hello world\n", toks[0].Lexeme)
}

func TestLexerInlineComparisonAndSymbol(t *testing.T) {
	toks := lexString(t, "#if FOO == \"bar\"\n#endif\n")
	kinds := make([]TokenKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []TokenKind{TIf, TSymbol, TComp, TString, TEndif}, kinds)
}

func TestLexerRejectsInvalidInlineToken(t *testing.T) {
	fp := NewFposFromLines(splitKeepEnds("#if $$$\n#endif\n"))
	_, err := NewLexer(fp, "test.template").Lex()
	require.Error(t, err)
	var posErr *PosError
	require.ErrorAs(t, err, &posErr)
	assert.Equal(t, LexError, posErr.Kind)
}
