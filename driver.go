package tmplc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"
)

// RenderResult carries the rendered body and the output destination
// resolved for it; an empty OutputPath means the caller should treat
// Body as stdout content. Report accumulates any interpolation errors
// encountered while resolving "@type:name@" tokens — per spec.md §7
// these never abort the run, so the caller decides whether to escalate
// them (Report.ExitOnError).
type RenderResult struct {
	Body       string
	OutputPath string
	Report     *ErrorReport
}

// CompileFile reads, lexes, and parses one template file into a Program,
// grounded on original_source/generic_templates/template.py.preprocess.
func CompileFile(path string) (Program, error) {
	fp, err := NewFposFromPath(path)
	if err != nil {
		return nil, errors.Annotatef(err, "reading %s", path)
	}
	lx := NewLexer(fp, path)
	toks, err := lx.Lex()
	if err != nil {
		return nil, err
	}
	p := NewParser(path, toks)
	return p.Parse()
}

// FillTemplate compiles and executes path without writing anything to
// disk, mirroring template.py.fill_template. env is mutated in place
// with __FILE__ set to the template's absolute path before execution.
// The "env" and "setting.sh" post-interpolation kinds are always wired;
// "secret" is only available via FillTemplateWithSecrets, since its
// backend is an external collaborator per spec.md §6.
func FillTemplate(path string, env map[string]Value, argv []string) (*RenderResult, error) {
	return FillTemplateWithSecrets(path, env, argv, nil)
}

// FillTemplateWithSecrets is FillTemplate plus a caller-supplied
// MapSecretProvider backing "@secret:name.prop@" tokens.
func FillTemplateWithSecrets(path string, env map[string]Value, argv []string, secrets MapSecretProvider) (*RenderResult, error) {
	prog, err := CompileFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "compiling %s", path)
	}
	if env == nil {
		env = map[string]Value{}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	env["__FILE__"] = Str(abs)

	vm := NewVM(env, argv)
	if err := vm.Load(prog); err != nil {
		return nil, errors.Annotatef(err, "loading %s", path)
	}
	if err := vm.Execute(); err != nil {
		return nil, errors.Annotatef(err, "executing %s", path)
	}

	body := strings.Join(vm.Output, "")

	it := NewInterpolator()
	it.Register("env", EnvProvider{})
	it.Register("setting.sh", NewSettingShProvider(filepath.Join(filepath.Dir(abs), "setting.sh")))
	if secrets != nil {
		it.RegisterSecret(secrets)
	}
	report := NewErrorReport()
	body = it.Interpolate(body, report)

	outPath := resolveOutputPath(path, vm.Outfile)
	if outPath != "" {
		body = addProvenanceBanner(body, outPath)
	}
	return &RenderResult{Body: body, OutputPath: outPath, Report: report}, nil
}

// Render is FillTemplate plus the disk write, mirroring
// template.py.preprocess's top-level driver entry point. Interpolation
// errors recorded on the result's Report do not prevent the write —
// spec.md §7 leaves escalation to the caller.
func Render(path string, env map[string]Value, argv []string) (*RenderResult, error) {
	return RenderWithSecrets(path, env, argv, nil)
}

// RenderWithSecrets is Render plus a caller-supplied MapSecretProvider
// for "@secret:name.prop@" tokens.
func RenderWithSecrets(path string, env map[string]Value, argv []string, secrets MapSecretProvider) (*RenderResult, error) {
	result, err := FillTemplateWithSecrets(path, env, argv, secrets)
	if err != nil {
		return nil, err
	}
	if result.Report.HasErrors() {
		logger.Warningf("interpolation errors rendering %s:\n%s", path, result.Report)
	}
	if result.OutputPath == "" {
		return result, nil
	}
	logger.Infof("writing %s -> %s", path, result.OutputPath)
	if err := os.WriteFile(result.OutputPath, []byte(result.Body), 0o644); err != nil {
		return nil, errors.Annotatef(err, "writing %s", result.OutputPath)
	}
	return result, nil
}

// resolveOutputPath picks the OUTFILE directive's path if the template
// ran one, otherwise derives a path by stripping a ".template" suffix
// next to the source file, otherwise leaves the result for stdout.
func resolveOutputPath(templatePath string, outfile *string) string {
	if outfile != nil {
		return *outfile
	}
	if strings.HasSuffix(templatePath, ".template") {
		dir := filepath.Dir(templatePath)
		base := strings.TrimSuffix(filepath.Base(templatePath), ".template")
		return filepath.Join(dir, sanitizeOutputName(base))
	}
	return ""
}

// sanitizeOutputName replicates template.py.fix_module_names: dots in
// the name's stem (everything but its final extension) become dashes,
// since several downstream build tools choke on multi-dot basenames.
func sanitizeOutputName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	stem = strings.ReplaceAll(stem, ".", "-")
	return stem + ext
}

// commentSyntax is the extension -> line-comment-prefix table from
// template.py.warning.
var commentSyntax = map[string]string{
	".py": "#", ".sh": "#", ".json": "#", ".yaml": "#", ".yml": "#",
	".c": "//", ".cpp": "//", ".C": "//", ".java": "//",
	".puml": "'", ".plantuml": "'",
}

func commentPrefixFor(path string) string {
	if filepath.Base(path) == "Dockerfile" {
		return "#"
	}
	if p, ok := commentSyntax[filepath.Ext(path)]; ok {
		return p
	}
	return "#"
}

// addProvenanceBanner prepends an extension-aware warning, independent
// of and in addition to whatever "#template"-emitted provenanceHeader
// may already sit inside body.
func addProvenanceBanner(body, outputPath string) string {
	prefix := commentPrefixFor(outputPath)
	banner := fmt.Sprintf("%s\n%s Generated automatically by tmplc. Do not edit directly.\n%s\n", prefix, prefix, prefix)
	return banner + body
}

// LoadEnvYAML loads a flat string-keyed YAML document into an env map,
// for the CLI's --env-file flag.
func LoadEnvYAML(path string) (map[string]Value, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "reading %s", path)
	}
	var m map[string]string
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, errors.Annotatef(err, "parsing %s", path)
	}
	env := make(map[string]Value, len(m))
	for k, v := range m {
		env[k] = Str(v)
	}
	return env, nil
}
