package tmplc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorReportTracksErrors(t *testing.T) {
	r := NewErrorReport()
	r.Info("starting render of %s", "a.template")
	assert.False(t, r.HasErrors())

	r.Warn("no OUTFILE directive, writing to stdout")
	assert.False(t, r.HasErrors())

	r.Error("unknown interpolation type %q", "bogus")
	assert.True(t, r.HasErrors())
	assert.Contains(t, r.String(), "[ERROR]")
}

func TestReportSectionsAndAttachments(t *testing.T) {
	r := NewReport("render summary")
	r.Section("templates", "2 templates processed")
	r.Attach("a.template", "rendered body a")
	r.Section("errors", "none")

	out := r.String()
	assert.Contains(t, out, "# render summary")
	assert.Contains(t, out, "## templates")
	assert.Contains(t, out, "rendered body a")
	assert.Contains(t, out, "## errors")
}
