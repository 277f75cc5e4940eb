// Package installer materialises a pnpm-style node_modules layout:
// canonical package folders under `.deno/<folder_id>`, symlinked
// dependency edges, top-level alias resolution, and lifecycle script
// invocation, run as a fixed sequence of phases (P0-P12) each responsible
// for one part of the tree.
package installer

// Scope describes a package selection: either every package, or only a
// fixed set of package_req strings. CachePackages does not take a Scope;
// it materialises every package in the Resolution it is given.
type Scope struct {
	All bool
	Only []string // package_req strings, when All is false
}

// System is the (os, cpu) pair used for optional-dependency platform checks.
type System struct {
	OS, CPU string
}

// Dist carries tarball location/integrity for a resolution package.
type Dist struct {
	TarballURL string
	Integrity string
}

// Package is one resolved npm package. Identity is
// (Name, Version, PeerCopyIndex), letting the same (name,version) appear
// multiple times with different resolved peers.
type Package struct {
	Name string
	Version string
	PeerCopyIndex int
	Dependencies map[string]string // bare_specifier -> package_id
	OptionalDeps map[string]bool // bare_specifier set
	System System
	HasBin bool
	HasScripts bool
	IsDeprecated bool
	DeprecationMsg string
	Dist Dist
	DistTags []string // dist-tags (e.g. "latest") this package was resolved for
	Extra *ExtraInfo // lazy, loaded from the tarball's own manifest
}

// ExtraInfo is the subset of a package's own manifest needed once any of
// HasBin/HasScripts/IsDeprecated is set; loaded lazily from the tarball.
type ExtraInfo struct {
	Bin map[string]string
	Scripts map[string]string
}

// ID returns the stable package_id used as a lockfile/dependency-map key:
// "name@version" normally, with a "+N" suffix when PeerCopyIndex > 0 so
// distinct peer resolutions of the same (name,version) don't collide.
func (p Package) ID() string {
	if p.PeerCopyIndex == 0 {
		return p.Name + "@" + p.Version
	}
	return p.Name + "@" + p.Version + "+" + itoa(p.PeerCopyIndex)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// FolderID is the stable deterministic encoding of (name, version,
// peer-copy-index) used as the canonical folder name under `.deno/`,
// computed once in P1 and reused wherever a package's folder is addressed.
func (p Package) FolderID() string {
	return sanitizeFolderComponent(p.Name) + "@" + p.Version + "_" + itoa(p.PeerCopyIndex)
}

func sanitizeFolderComponent(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '/' {
			out = append(out, '+')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// Resolution is the full set of packages + roots to materialise, analogous
// to a resolved dependency lockfile section.
type Resolution struct {
	Packages []Package
	// Roots are the user-declared remote dependencies: alias -> package_id.
	Roots map[string]string
	// WorkspaceMembers are local link packages to patch in at P2.
	WorkspaceMembers map[string]string // alias -> absolute source dir
}
