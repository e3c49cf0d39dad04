package tmplc

import (
	"fmt"
	"os"
	"strings"
)

// Level is a diagnostic severity, per original_source/generic_templates/report.py.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ErrorReport accumulates leveled diagnostic lines across one run and
// can terminate the process once any ERROR has been recorded, mirroring
// the original's ErrorReport class.
type ErrorReport struct {
	lines    []string
	sawError bool
	Out      *os.File
}

func NewErrorReport() *ErrorReport {
	return &ErrorReport{Out: os.Stderr}
}

func (r *ErrorReport) add(level Level, format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, args...))
	r.lines = append(r.lines, msg)
	if level == LevelError {
		r.sawError = true
	}
	logger.Debugf("%s", msg)
}

func (r *ErrorReport) Info(format string, args ...any)  { r.add(LevelInfo, format, args...) }
func (r *ErrorReport) Warn(format string, args ...any)  { r.add(LevelWarn, format, args...) }
func (r *ErrorReport) Error(format string, args ...any) { r.add(LevelError, format, args...) }

func (r *ErrorReport) HasErrors() bool { return r.sawError }

func (r *ErrorReport) String() string { return strings.Join(r.lines, "\n") }

// ExitOnError prints the accumulated report to Out and exits the
// process with status 1 if any ERROR-level line was recorded.
func (r *ErrorReport) ExitOnError() {
	if !r.sawError {
		return
	}
	fmt.Fprintln(r.Out, r.String())
	os.Exit(1)
}

// Report is a structured, section-oriented accumulator distinct from
// ErrorReport's flat leveled log — grounded on report.py's Report class,
// used by the driver when it is invoked as a library rather than a CLI.
type Report struct {
	Title    string
	sections []reportSection
}

type reportSection struct {
	heading     string
	body        string
	attachments map[string]string
}

func NewReport(title string) *Report {
	return &Report{Title: title}
}

// Section starts a new named subsection; subsequent Attach calls attach
// to the most recently started section.
func (r *Report) Section(heading, body string) {
	r.sections = append(r.sections, reportSection{heading: heading, body: body, attachments: map[string]string{}})
}

// Attach adds a named attachment (e.g. a rendered template's full body)
// to the most recently opened section.
func (r *Report) Attach(name, content string) {
	if len(r.sections) == 0 {
		r.Section("", "")
	}
	r.sections[len(r.sections)-1].attachments[name] = content
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", r.Title)
	for _, s := range r.sections {
		if s.heading != "" {
			fmt.Fprintf(&b, "\n## %s\n", s.heading)
		}
		if s.body != "" {
			fmt.Fprintf(&b, "%s\n", s.body)
		}
		for name, content := range s.attachments {
			fmt.Fprintf(&b, "\n--- %s ---\n%s\n", name, content)
		}
	}
	return b.String()
}
