package installer

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"sort"

	"github.com/scriptrt/runtime-core/internal/rterr"
)

// SetupCache records the symlink decisions already applied to a
// node_modules tree. On the next install, P4 skips a dependency-edge
// symlink whose recorded target is unchanged (for packages without
// linking scripts), and P5 reuses the recorded top-level map when the
// roots are unchanged; top-level and shared .deno/node_modules symlinks
// are recreated on every run. P12 persists root/deno/dep symlink maps
// back to disk at the end of every run.
type SetupCache struct {
	// RootSymlinks maps top-level alias -> package_id it currently resolves to.
	RootSymlinks map[string]string
	// DenoSymlinks maps the shared ".deno/node_modules/<name>" alias -> package_id.
	DenoSymlinks map[string]string
	// DepSymlinks maps "package_id/dep_alias" -> the package_id it resolves to,
	// i.e. every dependency-edge symlink created inside a canonical folder.
	DepSymlinks map[string]string
}

func newSetupCache() *SetupCache {
	return &SetupCache{
		RootSymlinks: map[string]string{},
		DenoSymlinks: map[string]string{},
		DepSymlinks: map[string]string{},
	}
}

func setupCachePath(denoDir string) string {
	return filepath.Join(denoDir, ".setup-cache.bin")
}

// kv is one map entry in the cache's on-disk wire form.
type kv struct {
	K, V string
}

// wireSetupCache is what actually gets gob-encoded: each map becomes a
// key-sorted slice of pairs so two processes that agree on cache contents
// also agree byte-for-byte on the encoding, since gob's map order follows Go
// map iteration and gives no such guarantee.
type wireSetupCache struct {
	RootSymlinks []kv
	DenoSymlinks []kv
	DepSymlinks []kv
}

func toWire(c *SetupCache) wireSetupCache {
	return wireSetupCache{
		RootSymlinks: sortedKV(c.RootSymlinks),
		DenoSymlinks: sortedKV(c.DenoSymlinks),
		DepSymlinks: sortedKV(c.DepSymlinks),
	}
}

func sortedKV(m map[string]string) []kv {
	out := make([]kv, 0, len(m))
	for k, v := range m {
		out = append(out, kv{K: k, V: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].K < out[j].K })
	return out
}

func fromWire(w wireSetupCache) *SetupCache {
	c := newSetupCache()
	for _, e := range w.RootSymlinks {
		c.RootSymlinks[e.K] = e.V
	}
	for _, e := range w.DenoSymlinks {
		c.DenoSymlinks[e.K] = e.V
	}
	for _, e := range w.DepSymlinks {
		c.DepSymlinks[e.K] = e.V
	}
	return c
}

// loadSetupCache reads the persisted cache, returning a fresh empty cache if
// none exists or it fails to decode (a corrupt/stale cache just costs a full
// re-resolve, never a hard failure).
func loadSetupCache(denoDir string) *SetupCache {
	data, err := os.ReadFile(setupCachePath(denoDir))
	if err != nil {
		return newSetupCache()
	}
	var w wireSetupCache
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return newSetupCache()
	}
	return fromWire(w)
}

// save persists the cache atomically: write to a temp file in the same
// directory, then rename over .setup-cache.bin. Maps are flattened to
// sorted key/value slices first so the encoding is deterministic.
func (c *SetupCache) save(denoDir string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(toWire(c)); err != nil {
		return rterr.Wrap(rterr.KindIO, rterr.ClassResolutionError, "failed to encode setup cache", err)
	}
	tmp := setupCachePath(denoDir) + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return rterr.Wrap(rterr.KindIO, rterr.ClassResolutionError, "failed to write setup cache", err)
	}
	if err := os.Rename(tmp, setupCachePath(denoDir)); err != nil {
		return rterr.Wrap(rterr.KindIO, rterr.ClassResolutionError, "failed to finalise setup cache", err)
	}
	return nil
}

// matchesRoots reports whether the cache's top-level alias set already
// matches the resolution's intended roots, so P5 can reuse the recorded
// top-level map as found_names; it does not skip any phase.
func (c *SetupCache) matchesRoots(roots map[string]string) bool {
	if len(c.RootSymlinks) != len(roots) {
		return false
	}
	for alias, pkgID := range roots {
		if c.RootSymlinks[alias] != pkgID {
			return false
		}
	}
	return true
}
