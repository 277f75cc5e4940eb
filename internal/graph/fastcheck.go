package graph

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
)

// fastCheckEntry is one cached fast-check subgraph result, keyed by the
// sha256 of its source content.
type fastCheckEntry struct {
	SourceHash string
	Members []string // workspace member specifiers reachable in the fast-check pass
}

// FastCheckCache persists fast-check subgraph results across runs as a flat
// gob-encoded file (stdlib-justified, see DESIGN.md).
type FastCheckCache struct {
	path string
	entries map[string]fastCheckEntry
}

// OpenFastCheckCache loads an existing cache file, or starts an empty one if
// it doesn't exist yet.
func OpenFastCheckCache(path string) (*FastCheckCache, error) {
	c := &FastCheckCache{path: path, entries: map[string]fastCheckEntry{}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	dec := gob.NewDecoder(bytes.NewReader(data))
	var list []fastCheckEntry
	if err := dec.Decode(&list); err != nil {
		return nil, err
	}
	for _, e := range list {
		c.entries[e.SourceHash] = e
	}
	return c, nil
}

// Lookup returns the cached fast-check members for a source hash.
func (c *FastCheckCache) Lookup(sourceHash string) ([]string, bool) {
	e, ok := c.entries[sourceHash]
	if !ok {
		return nil, false
	}
	return e.Members, true
}

// Store records a fast-check result and flushes the cache to disk, with
// entries written in sorted-hash order so the file is byte-deterministic
// across runs with the same content.
func (c *FastCheckCache) Store(sourceHash string, members []string) error {
	c.entries[sourceHash] = fastCheckEntry{SourceHash: sourceHash, Members: members}

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]fastCheckEntry, 0, len(keys))
	for _, k := range keys {
		list = append(list, c.entries[k])
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(list); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path, buf.Bytes(), 0o644)
}

// HashSource computes the cache key for a fast-check pass over source bytes.
func HashSource(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
