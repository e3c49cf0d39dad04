package tmplc

import (
	"bufio"
	"io"
	"os"

	"github.com/juju/errors"
)

// Fpos is a line-buffered windowed view over an input stream, per
// spec.md §4.1. The only cursor motion primitive is Skip; there is no
// arbitrary seek, which is what lets the tokenizer treat Column()==0 as
// "start of line".
type Fpos struct {
	lines []string
	row   int
	col   int
}

// NewFposFromPath opens a file path and splits it into newline-terminated
// lines, mirroring generic_templates.fpos.Fpos(str).
func NewFposFromPath(path string) (*Fpos, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "opening template %q", path)
	}
	defer f.Close()
	return NewFposFromReader(f)
}

// NewFposFromReader splits an io.Reader's content into lines.
func NewFposFromReader(r io.Reader) (*Fpos, error) {
	var lines []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			lines = append(lines, line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Annotate(err, "reading template")
		}
	}
	return &Fpos{lines: lines}, nil
}

// NewFposFromLines builds an Fpos directly from a slice of lines, useful
// for tests that want to bypass the filesystem.
func NewFposFromLines(lines []string) *Fpos {
	cp := make([]string, len(lines))
	copy(cp, lines)
	return &Fpos{lines: cp}
}

// View returns the unconsumed suffix of the current line. Callers match
// their regexes against this.
func (f *Fpos) View() string {
	if f.AtEOF() {
		return ""
	}
	return f.lines[f.row][f.col:]
}

// AtEOF reports whether the cursor has advanced past the last line.
func (f *Fpos) AtEOF() bool {
	return f.row >= len(f.lines)
}

// Row returns the current 0-based line index.
func (f *Fpos) Row() int { return f.row }

// Column returns the current 0-based column index within the line.
func (f *Fpos) Column() int { return f.col }

// Skip advances the cursor by n characters. If the column reaches or
// passes the end of the current line, it wraps to column 0 of the next
// line. This is the sole motion primitive (spec.md §4.1).
func (f *Fpos) Skip(n int) {
	f.col += n
	if f.AtEOF() {
		return
	}
	if f.col >= len(f.lines[f.row]) {
		f.col = 0
		f.row++
	}
}
