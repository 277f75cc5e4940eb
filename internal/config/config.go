// Package config implements the ResolvedOptions record produced by the
// workspace resolver and consumed by every other component: one struct of
// settings built once and read everywhere else.
package config

import (
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/mapstructure"
)

// CacheSetting controls whether cached sources may be reused.
type CacheSetting int

// Cache settings.
const (
	CacheUse CacheSetting = iota
	CacheReloadAll
	CacheReloadSome
	CacheOnly
)

// TypeCheckMode controls how much of the graph is type-checked.
type TypeCheckMode int

// Type-check modes.
const (
	TypeCheckNone TypeCheckMode = iota
	TypeCheckLocal
	TypeCheckAll
)

// NodeModulesMode controls whether/how a local node_modules is materialised.
type NodeModulesMode int

// node_modules modes. Manual implies BYONM (bring-your-own-node_modules).
const (
	NodeModulesNone NodeModulesMode = iota
	NodeModulesAuto
	NodeModulesManual
)

// VendorDir is an {Enabled(path) | Disabled} sum type for the local vendor
// directory setting.
type VendorDir struct {
	Enabled bool
	Path string
}

// PermissionList is an allow/deny pair over one permission category.
type PermissionList struct {
	Allow []string
	Deny []string
}

// Allows reports whether name is permitted: deny always wins over allow,
// and allowAll overrides any *allow* list but never a deny.
func (pl PermissionList) Allows(name string, allowAll bool) bool {
	for _, d := range pl.Deny {
		if d == name || d == "*" {
			return false
		}
	}
	if allowAll {
		return true
	}
	for _, a := range pl.Allow {
		if a == name || a == "*" {
			return true
		}
	}
	return false
}

// PermissionSet is the structured allow/deny model covering every
// permission category.
type PermissionSet struct {
	AllowAll bool
	Read PermissionList
	Write PermissionList
	Net PermissionList
	Env PermissionList
	Run PermissionList
	Sys PermissionList
	FFI PermissionList
	Import PermissionList
}

// ResolvedOptions is the immutable, process-wide options record.
// Created once by the workspace resolver's factory and read everywhere else.
type ResolvedOptions struct {
	CacheSetting CacheSetting
	ReloadPatterns []string // only meaningful when CacheSetting == CacheReloadSome
	TypeCheckMode TypeCheckMode
	NodeModulesMode NodeModulesMode
	VendorDir VendorDir
	UnstableFlags map[string]bool
	Permissions PermissionSet
	Frozen bool
	AllowScripts []string // package NVs allowed to run lifecycle scripts
	NoPrompt bool
	JSRURL string
	CoverageDir string
	DisablePedanticNodeWarnings bool

	Logger hclog.Logger
}

// HasUnstable reports whether the named unstable flag is enabled.
func (r *ResolvedOptions) HasUnstable(name string) bool {
	if r == nil || r.UnstableFlags == nil {
		return false
	}
	return r.UnstableFlags[name]
}

// sortedUnstableFlags returns the unstable flag names in sorted order, used
// anywhere the set needs a deterministic textual form (error messages, hashes).
func (r *ResolvedOptions) sortedUnstableFlags() []string {
	names := make([]string, 0, len(r.UnstableFlags))
	for name, on := range r.UnstableFlags {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// UnstableFlagsString renders the enabled unstable flags, sorted, joined by commas.
func (r *ResolvedOptions) UnstableFlagsString() string {
	names := r.sortedUnstableFlags()
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}

// Source is one layer of configuration, ordered by precedence:
// CLI flags > recognized environment variables > root manifest > member
// manifest > defaults. Each layer contributes a raw map; later sources in the
// Merge call win on key collision.
type Source map[string]interface{}

// Merge composes sources and decodes the result into a ResolvedOptions.
// Precedence is implemented as the simplest possible mechanism that is
// still correct: iterate sources *lowest* precedence first so each
// subsequent layer overwrites the keys it sets. Callers pass sources in
// reverse-precedence order (defaults first, CLI flags last) to get
// "CLI flags > env > root manifest > member manifest > defaults".
func Merge(sources ...Source) (*ResolvedOptions, error) {
	merged := map[string]interface{}{}
	for _, src := range sources {
		for k, v := range src {
			merged[k] = v
		}
	}
	opts := &ResolvedOptions{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(merged); err != nil {
		return nil, err
	}
	return opts, nil
}
