// Package resolve implements single-step specifier resolution as a fixed
// sequence of decision steps inside Resolver.Resolve, tried in order — a
// decision-table style kept deliberately flat rather than nested
// conditionals, so each step's precedence is a line, not a branch.
package resolve

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Mode mirrors graph.ResolutionMode without importing internal/graph (which
// imports this package), keeping the dependency edge one-directional.
type Mode int

// Resolution modes.
const (
	Import Mode = iota
	Require
)

// Kind mirrors graph.ResolutionKind.
type Kind int

// Resolution kinds.
const (
	Execution Kind = iota
	Types
)

// Position is the source location of the import being resolved. Resolve
// does not read it, and resolution errors do not include it.
type Position struct {
	Line, Col int
}

// Request is the input to a single resolve call.
type Request struct {
	RawSpecifier string
	Referrer string
	Position Position
	ResolutionMode Mode
	ResolutionKind Kind
}

// Result is the outcome of a successful resolve call.
type Result struct {
	URL string
	Redirect bool // true when this result rewrites a jsr: base URL per "JSR rewrite"
}

// ImportMap is the minimal subset of import-map semantics step 1 needs:
// scoped and top-level specifier-prefix remapping.
type ImportMap struct {
	// Imports maps a bare specifier or prefix (ending in "/") to a target.
	Imports map[string]string
	// Scopes maps a scope prefix (a referrer directory) to its own Imports-shaped table.
	Scopes map[string]map[string]string
}

func (m *ImportMap) lookup(raw, referrer string) (string, bool) {
	if m == nil {
		return "", false
	}
	for scopePrefix, table := range m.Scopes {
		if strings.HasPrefix(referrer, scopePrefix) {
			if v, ok := lookupTable(table, raw); ok {
				return v, true
			}
		}
	}
	return lookupTable(m.Imports, raw)
}

func lookupTable(table map[string]string, raw string) (string, bool) {
	if v, ok := table[raw]; ok {
		return v, true
	}
	for prefix, target := range table {
		if strings.HasSuffix(prefix, "/") && strings.HasPrefix(raw, prefix) {
			return target + strings.TrimPrefix(raw, prefix), true
		}
	}
	return "", false
}

// PackageJSONDeps is the minimal package-manifest dependency lookup
// step 2 needs, keyed by referrer directory.
type PackageJSONDeps interface {
	// Lookup returns the npm:/workspace: URL for a bare specifier declared
	// as a dependency of the manifest governing referrer, if any.
	Lookup(referrer, bareSpecifier string) (string, bool)
}

var defaultNodeBuiltins = mapset.NewSet(
	"assert", "buffer", "child_process", "cluster", "crypto", "dgram", "dns",
	"events", "fs", "http", "http2", "https", "net", "os", "path", "perf_hooks",
	"process", "querystring", "readline", "stream", "string_decoder", "timers",
	"tls", "tty", "url", "util", "v8", "vm", "worker_threads", "zlib",
)

var defaultTrustedHosts = mapset.NewSet(
	"jsr.io", "deno.land", "esm.sh", "cdn.jsdelivr.net", "raw.githubusercontent.com",
	"gist.githubusercontent.com",
)

// sloppyImportSuffixes is the fixed suffix ladder tried by decision-tree
// step 6.
var sloppyImportSuffixes = []string{
	"", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".mts", ".cjs", ".cts", ".d.ts", ".d.mts", ".d.cts",
}

// FileProbe abstracts the filesystem check sloppy-imports needs, so the
// resolver stays testable without touching disk.
type FileProbe interface {
	Exists(path string) bool
	IsDir(path string) bool
}

// Options configures a Resolver instance's feature gates.
type Options struct {
	ImportMap *ImportMap
	PackageJSONDeps PackageJSONDeps
	BareNodeBuiltins bool
	SloppyImports bool
	JSRBaseURL string
	NodeBuiltins mapset.Set[string]
	AllowAllImport bool
	AllowImportProvided bool
	CacheSettingOnly bool
	TrustedHosts mapset.Set[string]
	CLISuppliedHosts []string
	Probe FileProbe
}

// Resolver implements resolve(raw_specifier, referrer, position,
// resolution_mode, resolution_kind) -> URL | ResolveError.
type Resolver struct {
	opts Options
}

// New constructs a Resolver, seeding the implicit trusted-host allow-list
// when neither --allow-all nor an explicit --allow-import was
// given and cache_setting != Only.
func New(opts Options) *Resolver {
	if opts.NodeBuiltins == nil {
		opts.NodeBuiltins = defaultNodeBuiltins
	}
	if opts.TrustedHosts == nil {
		opts.TrustedHosts = defaultTrustedHosts.Clone()
	}
	if !opts.AllowAllImport && !opts.AllowImportProvided && !opts.CacheSettingOnly {
		for _, h := range opts.CLISuppliedHosts {
			if host, ok := allowImportHostFromURL(h); ok {
				opts.TrustedHosts.Add(host)
			}
		}
	}
	return &Resolver{opts: opts}
}

// allowImportHostFromURL extracts the --allow-import host:port pair from a
// raw URL string: an explicit port is used as-is, otherwise https defaults
// to 443 and http to 80. Any other scheme (notably file:) yields no host.
func allowImportHostFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := u.Hostname()
	if host == "" {
		return "", false
	}
	if port := u.Port(); port != "" {
		return host + ":" + port, true
	}
	switch u.Scheme {
	case "https":
		return host + ":443", true
	case "http":
		return host + ":80", true
	default:
		return "", false
	}
}

// ImportPrefixMissingError is raised by decision-tree step 4.
type ImportPrefixMissingError struct {
	Specifier string
	Referrer string
}

func (e *ImportPrefixMissingError) Error() string {
	return fmt.Sprintf("relative import path %q not prefixed with / or ./ or ../ (referrer: %s)", e.Specifier, e.Referrer)
}

// SloppyImportCandidateError wraps a not-found error enriched with a
// sloppy-imports suggestion, for the graph builder's error enhancement
// pass to surface.
type SloppyImportCandidateError struct {
	Original error
	ResolvedURL string
}

func (e *SloppyImportCandidateError) Error() string { return e.Original.Error() }
func (e *SloppyImportCandidateError) Unwrap() error { return e.Original }

// Resolve runs the decision tree below in order, first match wins.
func (r *Resolver) Resolve(req Request) (Result, error) {
	// Step 1: import map lookup.
	if target, ok := r.opts.ImportMap.lookup(req.RawSpecifier, req.Referrer); ok {
		return r.finish(target)
	}

	// Step 2: package.json deps.
	if r.opts.PackageJSONDeps != nil {
		if target, ok := r.opts.PackageJSONDeps.Lookup(req.Referrer, req.RawSpecifier); ok {
			return r.finish(target)
		}
	}

	// Step 3: built-in node module.
	if r.opts.BareNodeBuiltins && r.opts.NodeBuiltins.Contains(req.RawSpecifier) {
		return Result{URL: "node:" + req.RawSpecifier}, nil
	}

	// Step 4: bare specifier rejection, unless it parses as absolute/relative.
	if !looksAbsoluteOrRelative(req.RawSpecifier) {
		return Result{}, &ImportPrefixMissingError{Specifier: req.RawSpecifier, Referrer: req.Referrer}
	}

	// Step 5: absolute parse.
	resolved, err := resolveAbsolute(req.RawSpecifier, req.Referrer)
	if err != nil {
		return Result{}, err
	}

	// Step 6: sloppy imports, only on a not-found outcome.
	if r.opts.SloppyImports && r.opts.Probe != nil && !r.opts.Probe.Exists(resolved) {
		for _, suffix := range sloppyImportSuffixes {
			candidate := resolved + suffix
			if r.opts.Probe.Exists(candidate) {
				return r.finish(candidate)
			}
		}
		if r.opts.Probe.IsDir(resolved) {
			candidate := path.Join(resolved, "index.js")
			if r.opts.Probe.Exists(candidate) {
				return r.finish(candidate)
			}
		}
		return Result{}, &SloppyImportCandidateError{
			Original: fmt.Errorf("module not found: %s", resolved),
			ResolvedURL: resolved,
		}
	}

	return r.finish(resolved)
}

func looksAbsoluteOrRelative(spec string) bool {
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || strings.HasPrefix(spec, "/") {
		return true
	}
	if u, err := url.Parse(spec); err == nil && u.Scheme != "" {
		return true
	}
	return false
}

func resolveAbsolute(spec, referrer string) (string, error) {
	if u, err := url.Parse(spec); err == nil && u.Scheme != "" {
		return spec, nil
	}
	if strings.HasPrefix(spec, "/") {
		return spec, nil
	}
	base := referrer
	if base == "" {
		base = "."
	}
	dir := path.Dir(base)
	return path.Join(dir, spec), nil
}

// finish applies the JSR rewrite, if configured, to a resolved URL.
func (r *Resolver) finish(resolvedURL string) (Result, error) {
	if r.opts.JSRBaseURL != "" && strings.HasPrefix(resolvedURL, r.opts.JSRBaseURL) {
		canonical, ok := rewriteJSR(resolvedURL, r.opts.JSRBaseURL)
		if ok {
			return Result{URL: canonical, Redirect: true}, nil
		}
	}
	return Result{URL: resolvedURL}, nil
}

// rewriteJSR converts a resolved URL beginning with the configured JSR base
// into the canonical jsr:pkg@ver/sub form for graph representation.
func rewriteJSR(resolvedURL, base string) (string, bool) {
	rest := strings.TrimPrefix(resolvedURL, base)
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return "", false
	}

	// A scoped package name ("@scope/name") occupies the first two path
	// segments; an unscoped name occupies just the first.
	segments := strings.Split(rest, "/")
	nameSegments := 1
	if strings.HasPrefix(segments[0], "@") && len(segments) > 1 {
		nameSegments = 2
	}
	if len(segments) < nameSegments {
		return "", false
	}
	pkgAtVer := strings.Join(segments[:nameSegments], "/")
	sub := ""
	if len(segments) > nameSegments {
		sub = "/" + strings.Join(segments[nameSegments:], "/")
	}
	return "jsr:" + pkgAtVer + sub, true
}
