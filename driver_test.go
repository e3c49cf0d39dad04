package tmplc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempTemplate(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFillTemplateSetsFileVariable(t *testing.T) {
	dir := t.TempDir()
	path := writeTempTemplate(t, dir, "greeting.template", "hi FILE_NAME\n")

	result, err := FillTemplate(path, map[string]Value{"FILE_NAME": Str("ok")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi ok\n", result.Body)
}

func TestResolveOutputPathStripsTemplateSuffix(t *testing.T) {
	got := resolveOutputPath("/tmp/app/config.json.template", nil)
	assert.Equal(t, "/tmp/app/config.json", got)
}

func TestResolveOutputPathPrefersOutfileDirective(t *testing.T) {
	outfile := "/tmp/elsewhere/out.txt"
	got := resolveOutputPath("/tmp/app/config.json.template", &outfile)
	assert.Equal(t, outfile, got)
}

func TestResolveOutputPathNoDerivationMeansStdout(t *testing.T) {
	got := resolveOutputPath("/tmp/app/notes.txt", nil)
	assert.Equal(t, "", got)
}

func TestSanitizeOutputNameReplacesDotsInStem(t *testing.T) {
	assert.Equal(t, "app-config-v2.json", sanitizeOutputName("app.config.v2.json"))
	assert.Equal(t, "README", sanitizeOutputName("README"))
}

func TestCommentPrefixForKnownExtensions(t *testing.T) {
	assert.Equal(t, "#", commentPrefixFor("settings.yaml"))
	assert.Equal(t, "//", commentPrefixFor("Main.java"))
	assert.Equal(t, "'", commentPrefixFor("diagram.puml"))
	assert.Equal(t, "#", commentPrefixFor("Dockerfile"))
	assert.Equal(t, "#", commentPrefixFor("unknown.xyz"))
}

func TestRenderWritesDerivedOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTempTemplate(t, dir, "app.conf.template", "value = 1\n")

	result, err := Render(path, nil, nil)
	require.NoError(t, err)
	require.NotEqual(t, "", result.OutputPath)

	written, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "Generated automatically by tmplc")
	assert.Contains(t, string(written), "value = 1")
}

func TestLoadEnvYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("FOO: bar\nBAZ: \"qux\"\n"), 0o644))

	env, err := LoadEnvYAML(path)
	require.NoError(t, err)
	assert.Equal(t, Str("bar"), env["FOO"])
	assert.Equal(t, Str("qux"), env["BAZ"])
}
