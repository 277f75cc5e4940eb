package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportMapLookupWinsOverBareRejection(t *testing.T) {
	r := New(Options{
		ImportMap: &ImportMap{Imports: map[string]string{"left-pad": "npm:left-pad@1.2.3"}},
	})
	res, err := r.Resolve(Request{RawSpecifier: "left-pad", Referrer: "/app/main.ts"})
	require.NoError(t, err)
	assert.Equal(t, "npm:left-pad@1.2.3", res.URL)
}

func TestImportMapPrefixMapping(t *testing.T) {
	r := New(Options{
		ImportMap: &ImportMap{Imports: map[string]string{"https://esm.sh/": "https://cdn.example/"}},
	})
	res, err := r.Resolve(Request{RawSpecifier: "https://esm.sh/react", Referrer: "/app/main.ts"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/react", res.URL)
}

func TestBareNodeBuiltinResolvesWhenEnabled(t *testing.T) {
	r := New(Options{BareNodeBuiltins: true})
	res, err := r.Resolve(Request{RawSpecifier: "fs", Referrer: "/app/main.ts"})
	require.NoError(t, err)
	assert.Equal(t, "node:fs", res.URL)
}

func TestBareSpecifierRejectedWithoutImportMap(t *testing.T) {
	r := New(Options{})
	_, err := r.Resolve(Request{RawSpecifier: "left-pad", Referrer: "/app/main.ts"})
	require.Error(t, err)
	var ipm *ImportPrefixMissingError
	require.ErrorAs(t, err, &ipm)
	assert.Equal(t, "left-pad", ipm.Specifier)
}

type fakeProbe struct {
	existing map[string]bool
	dirs     map[string]bool
}

func (f *fakeProbe) Exists(p string) bool { return f.existing[p] }
func (f *fakeProbe) IsDir(p string) bool  { return f.dirs[p] }

func TestSloppyImportsSuffixLadder(t *testing.T) {
	probe := &fakeProbe{existing: map[string]bool{"/app/util.ts": true}}
	r := New(Options{SloppyImports: true, Probe: probe})
	res, err := r.Resolve(Request{RawSpecifier: "./util", Referrer: "/app/main.ts"})
	require.NoError(t, err)
	assert.Equal(t, "/app/util.ts", res.URL)
}

func TestSloppyImportsNotFoundReturnsCandidateError(t *testing.T) {
	probe := &fakeProbe{existing: map[string]bool{}}
	r := New(Options{SloppyImports: true, Probe: probe})
	_, err := r.Resolve(Request{RawSpecifier: "./missing", Referrer: "/app/main.ts"})
	require.Error(t, err)
	var sloppy *SloppyImportCandidateError
	require.ErrorAs(t, err, &sloppy)
}

func TestJSRRewriteToCanonicalForm(t *testing.T) {
	r := New(Options{JSRBaseURL: "https://jsr.io"})
	res, err := r.Resolve(Request{RawSpecifier: "https://jsr.io/@std/path@1.0.0/mod.ts", Referrer: "/app/main.ts"})
	require.NoError(t, err)
	assert.Equal(t, "jsr:@std/path@1.0.0/mod.ts", res.URL)
	assert.True(t, res.Redirect)
}

func TestAllowImportHostFromURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"http://127.0.0.1:4250", "127.0.0.1:4250", true},
		{"http://jsr.io", "jsr.io:80", true},
		{"https://example.com", "example.com:443", true},
		{"http://example.com", "example.com:80", true},
		{"file:///example.com", "", false},
	}
	for _, c := range cases {
		host, ok := allowImportHostFromURL(c.raw)
		assert.Equal(t, c.ok, ok, c.raw)
		assert.Equal(t, c.want, host, c.raw)
	}
}

func TestCLISuppliedHostsSeedTrustedHostsNormalized(t *testing.T) {
	r := New(Options{CLISuppliedHosts: []string{"https://example.com", "file:///tmp/x"}})
	assert.True(t, r.opts.TrustedHosts.Contains("example.com:443"))
	assert.False(t, r.opts.TrustedHosts.Contains("file"))
}
