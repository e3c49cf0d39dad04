package tmplc

import (
	"bufio"
	"os"
	"regexp"

	"github.com/juju/errors"
)

// EnvProvider resolves "@env:NAME@" tokens from the process environment.
type EnvProvider struct{}

func (EnvProvider) Resolve(name string) (*string, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// settingShLine matches one `NAME="value"` assignment in a setting.sh
// file, per spec.md §6.
var settingShLine = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9_]*)="(.*)"\s*$`)

// SettingShProvider resolves "@setting.sh:NAME@" tokens against a single
// shell-style assignment file, parsed once and cached for the life of
// the provider (spec.md §6: "a setting.sh is read once per render").
type SettingShProvider struct {
	path   string
	loaded bool
	values map[string]string
}

func NewSettingShProvider(path string) *SettingShProvider {
	return &SettingShProvider{path: path}
}

func (p *SettingShProvider) load() error {
	if p.loaded {
		return nil
	}
	p.values = map[string]string{}
	f, err := os.Open(p.path)
	if err != nil {
		return errors.Annotatef(err, "opening %s", p.path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := settingShLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		p.values[m[1]] = m[2]
	}
	if err := scanner.Err(); err != nil {
		return errors.Annotatef(err, "reading %s", p.path)
	}
	p.loaded = true
	return nil
}

func (p *SettingShProvider) Resolve(name string) (*string, error) {
	if err := p.load(); err != nil {
		return nil, err
	}
	v, ok := p.values[name]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// "@secret:name.prop@" splitting and NODATA/KeyError semantics are
// implemented in interpolate.go's resolveSecret, against the
// MapSecretProvider interface. Only the actual secret-store backend
// (container-runtime detection, keyring, HTTP fetch) is out of scope per
// spec.md §6: there is no in-repo component to adapt one onto. A caller
// wanting "secret" support registers its own MapSecretProvider with
// Interpolator.RegisterSecret.
