package tmplc

import (
	"regexp"
	"strings"
)

// interpolationToken matches "@type:name@" or "@type:name.prop@" tokens
// left in rendered output for a post-render pass, per spec.md §4.5.
var interpolationToken = regexp.MustCompile(`@([a-zA-Z_][a-zA-Z0-9_.-]*):([a-zA-Z0-9_.-]+)@`)

// maxInterpolationPasses bounds the repeated-substitution loop so a
// provider returning a value that itself looks like a token can't spin
// the post-interpolator forever.
const maxInterpolationPasses = 32

// SecretProvider resolves "@<kind>:<name>@" tokens for kinds where a
// missing value is itself an error ("env", "setting.sh" per spec.md
// §4.5 — "missing is an error" / `mapping[name]`'s KeyError).
type SecretProvider interface {
	Resolve(name string) (*string, error)
}

// MapSecretProvider backs the "secret" kind, grounded on
// template_secrets.py.get_secret: "@secret:name.prop@" fetches the
// mapping for name once, then selects prop out of it. A value explicitly
// present but nil renders as the literal string NODATA; a prop absent
// from the mapping is a hard error (the original's KeyError).
type MapSecretProvider interface {
	FetchSecret(name string) (map[string]*string, error)
}

// Interpolator runs the post-render substitution pass. Providers are
// registered by the token's "type" component.
type Interpolator struct {
	providers      map[string]SecretProvider
	secretProvider MapSecretProvider
}

func NewInterpolator() *Interpolator {
	return &Interpolator{providers: map[string]SecretProvider{}}
}

func (it *Interpolator) Register(kind string, p SecretProvider) {
	it.providers[kind] = p
}

// RegisterSecret wires the "secret" kind's backend, per spec.md §6 (an
// external collaborator the core only consumes through this interface).
func (it *Interpolator) RegisterSecret(p MapSecretProvider) {
	it.secretProvider = p
}

// Interpolate repeatedly substitutes "@type:name@"/"@type:name.prop@"
// tokens until none remain, per spec.md §4.5 ("apply until no further
// tokens match"). Per-token failures do not abort the pass: they are
// recorded on report (spec.md §7 — "interpolation errors are collected
// via a warn/error report object; the caller may choose to exit on error
// after rendering") and the offending token is replaced with the empty
// string so the pass can make progress.
func (it *Interpolator) Interpolate(body string, report *ErrorReport) string {
	for pass := 0; pass < maxInterpolationPasses; pass++ {
		loc := interpolationToken.FindStringSubmatchIndex(body)
		if loc == nil {
			return body
		}
		kind := body[loc[2]:loc[3]]
		name := body[loc[4]:loc[5]]
		token := body[loc[0]:loc[1]]

		replacement, err := it.resolve(kind, name)
		if err != nil {
			report.Error("interpolating %q: %s", token, err)
			replacement = ""
		}
		body = body[:loc[0]] + replacement + body[loc[1]:]
	}
	report.Error("too many interpolation passes over %d bytes (possible cycle)", len(body))
	return body
}

func (it *Interpolator) resolve(kind, name string) (string, error) {
	if kind == "secret" {
		return it.resolveSecret(name)
	}
	provider, ok := it.providers[kind]
	if !ok {
		return "", interpolationErrorf("unknown interpolation type %q", kind)
	}
	val, err := provider.Resolve(name)
	if err != nil {
		return "", interpolationErrorf("resolving %q:%q: %s", kind, name, err)
	}
	if val == nil {
		return "", interpolationErrorf("%q:%q is not defined", kind, name)
	}
	return *val, nil
}

// resolveSecret implements "secret:name.prop": name is everything before
// the last ".", prop everything after, per template_secrets.py's
// `varname, varprop = varname.split(".")`.
func (it *Interpolator) resolveSecret(token string) (string, error) {
	dot := strings.LastIndex(token, ".")
	if dot < 0 {
		return "", interpolationErrorf("secret token %q requires name.prop", token)
	}
	name, prop := token[:dot], token[dot+1:]

	if it.secretProvider == nil {
		return "", interpolationErrorf("no secret provider registered for %q", name)
	}
	mapping, err := it.secretProvider.FetchSecret(name)
	if err != nil {
		return "", interpolationErrorf("fetching secret %q: %s", name, err)
	}
	val, ok := mapping[prop]
	if !ok {
		return "", interpolationErrorf("secret %q has no property %q", name, prop)
	}
	if val == nil {
		return "NODATA", nil
	}
	return *val, nil
}
