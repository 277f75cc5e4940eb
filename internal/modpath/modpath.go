// Package modpath teaches the Go type system about the path kinds this module
// juggles:
// - AbsoluteSystemPath — absolute, including volume root, system separators.
// - AnchoredSystemPath — absolute-from-some-root, system separators, no
// leading separator (so it's a valid io/fs path).
// - AnchoredUnixPath — same, but always using "/" — this is the shape every
// lockfile key and package.json dependency path is stored in.
// - RelativeSystemPath / RelativeUnixPath — arbitrary relative segments.
//
// Keeping these as distinct string types means a lockfile key can never be
// accidentally passed to a filesystem call on Windows without an explicit
// ToSystemPath() conversion, and vice versa.
package modpath

import (
	"path"
	"path/filepath"
)

// AbsoluteSystemPath is a root-relative path using system separators.
type AbsoluteSystemPath string

// ToString returns the string representation of this path.
func (p AbsoluteSystemPath) ToString() string { return string(p) }

// Join appends relative path segments to this AbsoluteSystemPath.
func (p AbsoluteSystemPath) Join(additional ...RelativeSystemPath) AbsoluteSystemPath {
	segments := make([]string, len(additional))
	for i, s := range additional {
		segments[i] = s.ToString()
	}
	return AbsoluteSystemPath(filepath.Join(append([]string{p.ToString()}, segments...)...))
}

// RelativeTo calculates the relative path between two AbsoluteSystemPaths.
func (p AbsoluteSystemPath) RelativeTo(base AbsoluteSystemPath) (AnchoredSystemPath, error) {
	rel, err := filepath.Rel(base.ToString(), p.ToString())
	return AnchoredSystemPath(rel), err
}

// Dir returns the parent directory.
func (p AbsoluteSystemPath) Dir() AbsoluteSystemPath {
	return AbsoluteSystemPath(filepath.Dir(p.ToString()))
}

// AnchoredSystemPath is absolute-from-an-unspecified-root, system separators.
type AnchoredSystemPath string

// ToString returns the string representation of this path.
func (p AnchoredSystemPath) ToString() string { return string(p) }

// ToUnixPath converts to the unix-separator equivalent (used for lockfile keys).
func (p AnchoredSystemPath) ToUnixPath() AnchoredUnixPath {
	return AnchoredUnixPath(filepath.ToSlash(p.ToString()))
}

// RestoreAnchor prefixes this path with its anchor, producing an absolute path.
func (p AnchoredSystemPath) RestoreAnchor(anchor AbsoluteSystemPath) AbsoluteSystemPath {
	return AbsoluteSystemPath(filepath.Join(anchor.ToString(), p.ToString()))
}

// Join appends relative path segments to this AnchoredSystemPath.
func (p AnchoredSystemPath) Join(additional ...RelativeSystemPath) AnchoredSystemPath {
	segments := make([]string, len(additional))
	for i, s := range additional {
		segments[i] = s.ToString()
	}
	return AnchoredSystemPath(filepath.Join(append([]string{p.ToString()}, segments...)...))
}

// AnchoredUnixPath is absolute-from-an-unspecified-root, "/" separators.
// This is the representation used for every lockfile key.
type AnchoredUnixPath string

// ToString returns the string representation of this path.
func (p AnchoredUnixPath) ToString() string { return string(p) }

// ToSystemPath converts an AnchoredUnixPath to an AnchoredSystemPath.
func (p AnchoredUnixPath) ToSystemPath() AnchoredSystemPath {
	return AnchoredSystemPath(filepath.FromSlash(p.ToString()))
}

// Join appends relative unix path segments to this AnchoredUnixPath.
func (p AnchoredUnixPath) Join(additional ...RelativeUnixPath) AnchoredUnixPath {
	segments := make([]string, len(additional))
	for i, s := range additional {
		segments[i] = s.ToString()
	}
	return AnchoredUnixPath(path.Join(append([]string{p.ToString()}, segments...)...))
}

// RelativeSystemPath is an arbitrary relative path using system separators.
type RelativeSystemPath string

// ToString returns the string representation of this path.
func (p RelativeSystemPath) ToString() string { return string(p) }

// RelativeUnixPath is an arbitrary relative path using "/" separators.
type RelativeUnixPath string

// ToString returns the string representation of this path.
func (p RelativeUnixPath) ToString() string { return string(p) }

// AbsoluteSystemPathFromUpstream casts a string to AbsoluteSystemPath without
// validation. Use only at trust boundaries (CLI flags, env vars) where the
// caller has already checked the value is in fact absolute.
func AbsoluteSystemPathFromUpstream(p string) AbsoluteSystemPath {
	return AbsoluteSystemPath(p)
}

// AnchoredUnixPathFromUpstream casts a string to AnchoredUnixPath without
// validation — used when reading lockfile keys back off disk.
func AnchoredUnixPathFromUpstream(p string) AnchoredUnixPath {
	return AnchoredUnixPath(p)
}
