// Package lockfile implements the integrity-checked resolution record: a
// struct-of-maps representation generalized from npm's single `packages` map
// into five independent sections (redirects, remote integrity hashes,
// package specifiers, npm package entries, jsr manifest hashes).
package lockfile

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/scriptrt/runtime-core/internal/rterr"
)

// NpmPackageEntry is one entry of the `packages.npm` lockfile section:
// tarball URL, integrity hash, and dependency metadata keyed by package id.
type NpmPackageEntry struct {
	TarballURL string `json:"tarball"`
	Integrity string `json:"integrity"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// content is the on-disk shape: five independent sections plus a schema
// version controlling migrations.
type content struct {
	Version int `json:"version"`
	Redirects map[string]string `json:"redirects,omitempty"`
	Remote map[string]string `json:"remote,omitempty"`
	PackagesSpecifiers map[string]string `json:"packages.specifiers,omitempty"`
	PackagesNpm map[string]NpmPackageEntry `json:"packages.npm,omitempty"`
	PackagesJSR map[string]string `json:"packages.jsr,omitempty"`
}

const currentSchemaVersion = 4

// Lockfile is the in-memory, single-owner lockfile record: a single owner
// with interior mutability, guarded by mu.
type Lockfile struct {
	mu sync.Mutex
	c content
	frozen bool
	skipWrite bool
	dirty bool
}

// New returns an empty lockfile: a missing on-disk file yields an empty
// lockfile rather than an error.
func New(frozen, skipWrite bool) *Lockfile {
	return &Lockfile{
		c: content{
			Version: currentSchemaVersion,
			Redirects: map[string]string{},
			Remote: map[string]string{},
			PackagesSpecifiers: map[string]string{},
			PackagesNpm: map[string]NpmPackageEntry{},
			PackagesJSR: map[string]string{},
		},
		frozen: frozen,
		skipWrite: skipWrite,
	}
}

// Load reads and validates a lockfile from bytes. An empty/missing input
// should be handled by the caller via New; Load always expects well-formed
// JSON.
func Load(data []byte, frozen, skipWrite bool) (*Lockfile, error) {
	var c content
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, rterr.Wrap(rterr.KindParse, "Config", "malformed lockfile", err)
	}
	if c.Redirects == nil {
		c.Redirects = map[string]string{}
	}
	if c.Remote == nil {
		c.Remote = map[string]string{}
	}
	if c.PackagesSpecifiers == nil {
		c.PackagesSpecifiers = map[string]string{}
	}
	if c.PackagesNpm == nil {
		c.PackagesNpm = map[string]NpmPackageEntry{}
	}
	if c.PackagesJSR == nil {
		c.PackagesJSR = map[string]string{}
	}
	return &Lockfile{c: c, frozen: frozen, skipWrite: skipWrite}, nil
}

// Encode serializes the lockfile deterministically: encoding/json already
// sorts map keys on marshal, which combined with a fixed field order on
// `content` is sufficient for a byte-identical round-trip.
func (l *Lockfile) Encode() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	buf, err := json.MarshalIndent(l.c, "", " ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

// Dirty reports whether any mutation has changed an entry, in any section,
// since load, so the new entries need to be written through.
func (l *Lockfile) Dirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

// SkipWrite reports whether this lockfile should never be persisted
// (e.g. --no-lock), independent of the frozen policy.
func (l *Lockfile) SkipWrite() bool {
	return l.skipWrite
}

// GetRemoteIntegrity returns the recorded integrity hash for an http(s) URL.
func (l *Lockfile) GetRemoteIntegrity(url string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.c.Remote[url]
	return v, ok
}

// SetRemoteIntegrity records (or validates, under frozen) the integrity hash
// for an http(s) URL. A frozen lockfile rejects a mutation that would
// *change* the serialised form; setting an identical value is always a
// no-op, never an error.
func (l *Lockfile) SetRemoteIntegrity(url, hash string) error {
	return l.setMapEntry(l.c.Remote, url, hash, "remote source")
}

// GetPkgManifestIntegrity returns the recorded manifest-hash for a jsr
// package_nv.
func (l *Lockfile) GetPkgManifestIntegrity(nv string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.c.PackagesJSR[nv]
	return v, ok
}

// SetPkgManifestIntegrity records (or validates) a jsr package-manifest hash.
func (l *Lockfile) SetPkgManifestIntegrity(nv, hash string) error {
	return l.setMapEntry(l.c.PackagesJSR, nv, hash, "jsr package manifest")
}

// setMapEntry is the shared frozen-aware upsert used by every integrity
// setter: identical-value writes are no-ops, differing-value writes under
// frozen are fatal, and non-frozen differing writes mark the lockfile dirty.
func (l *Lockfile) setMapEntry(m map[string]string, key, value, what string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := m[key]
	if ok && existing == value {
		return nil
	}
	if l.frozen {
		return rterr.New(rterr.KindIntegrity, rterr.ClassFrozenLockfileMismatch,
			"frozen lockfile: "+what+" entry for "+key+" would change from "+existing+" to "+value)
	}
	m[key] = value
	l.dirty = true
	return nil
}

// InsertRedirect accumulates an http->http redirect. This *excludes* npm:,
// file:, and deno: schemes — callers filter before calling, but this is
// also enforced here as a defensive invariant since an accidental
// non-http redirect would corrupt the redirect-chain-acyclic invariant
// the module graph depends on.
func (l *Lockfile) InsertRedirect(from, to string) error {
	if hasExcludedScheme(from) || hasExcludedScheme(to) {
		return nil
	}
	return l.setMapEntry(l.c.Redirects, from, to, "redirect")
}

func hasExcludedScheme(url string) bool {
	for _, scheme := range []string{"npm:", "file:", "deno:"} {
		if len(url) >= len(scheme) && url[:len(scheme)] == scheme {
			return true
		}
	}
	return false
}

// InsertPackageSpecifier maps a jsr package_req (e.g. "jsr:name@range") to
// its resolved version.
func (l *Lockfile) InsertPackageSpecifier(depReq, resolvedVersion string) error {
	return l.setMapEntry(l.c.PackagesSpecifiers, depReq, resolvedVersion, "package specifier")
}

// AddPackageDeps upserts the dependency edges for an npm package_id.
// Conflicting content mutations under frozen are fatal.
func (l *Lockfile) AddPackageDeps(packageID, tarballURL, integrity string, deps map[string]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := NpmPackageEntry{TarballURL: tarballURL, Integrity: integrity, Dependencies: deps}
	existing, ok := l.c.PackagesNpm[packageID]
	if ok && npmEntryEqual(existing, next) {
		return nil
	}
	if l.frozen {
		return rterr.New(rterr.KindIntegrity, rterr.ClassFrozenLockfileMismatch,
			"frozen lockfile: npm package entry for "+packageID+" would change")
	}
	l.c.PackagesNpm[packageID] = next
	l.dirty = true
	return nil
}

// GetPackageDeps returns the recorded npm package entry, if any.
func (l *Lockfile) GetPackageDeps(packageID string) (NpmPackageEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.c.PackagesNpm[packageID]
	return v, ok
}

func npmEntryEqual(a, b NpmPackageEntry) bool {
	if a.TarballURL != b.TarballURL || a.Integrity != b.Integrity || len(a.Dependencies) != len(b.Dependencies) {
		return false
	}
	for k, v := range a.Dependencies {
		if b.Dependencies[k] != v {
			return false
		}
	}
	return true
}

// AllRedirects returns a copy of the recorded source->target redirect map,
// for pre-populating a fresh graph build from a prior run's lockfile.
func (l *Lockfile) AllRedirects() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.c.Redirects))
	for k, v := range l.c.Redirects {
		out[k] = v
	}
	return out
}

// AllPackageSpecifiers returns a copy of the recorded package_req ->
// resolved-version map, for pinning npm:/jsr: bare specifiers to the
// version a prior build already resolved them to.
func (l *Lockfile) AllPackageSpecifiers() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.c.PackagesSpecifiers))
	for k, v := range l.c.PackagesSpecifiers {
		out[k] = v
	}
	return out
}

// SortedRedirectSources returns redirect source URLs in sorted order, for
// deterministic write-through: mutations from a single build are ordered by
// source specifier so the on-disk lockfile is byte-deterministic.
func (l *Lockfile) SortedRedirectSources() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.c.Redirects))
	for k := range l.c.Redirects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
