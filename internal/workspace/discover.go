package workspace

import (
	"fmt"
	"os"
	"strings"

	"github.com/scriptrt/runtime-core/internal/modpath"
)

// StartKind distinguishes the ways workspace discovery can begin: from the
// current directory, from an explicit set of paths, or from an explicit
// manifest file.
type StartKind int

// Start kinds.
const (
	StartCwd StartKind = iota
	StartPaths
	StartConfigFile
	StartEmpty
)

// Start describes where discovery should begin.
type Start struct {
	Kind StartKind
	Paths []modpath.AbsoluteSystemPath
	File modpath.AbsoluteSystemPath
}

// manifestFilenames are the configured root-manifest names discovery looks
// for while walking upward, in preference order.
var manifestFilenames = []string{"workspace.jsonc", "workspace.json"}

// Member is one workspace member directory: its location plus whichever
// manifests it carries.
type Member struct {
	Dir modpath.AbsoluteSystemPath
	Manifest *ModuleManifest // may be nil for the root if it has no module manifest of its own
	IsRoot bool
}

// Directory is the resolved WorkspaceDirectory: exactly one root, a unique
// set of member directories, and a vendor-dir policy. Immutable after
// Discover returns.
type Directory struct {
	RootDirURL string
	RootManifest *RootManifest
	Members []Member
	VendorDir VendorPolicy
}

// VendorPolicy mirrors config.VendorDir's three states without creating an
// import-cycle-prone dependency from workspace -> config; config.Merge
// consumes this via AsSource instead.
type VendorPolicy struct {
	Unset bool
	Enabled bool
	Disabled bool // force-disabled by flag, takes precedence over Enabled
	Path string
}

// Discover resolves a Start descriptor to the workspace directory it names.
func Discover(start Start, forceVendorDisabled bool) (*Directory, error) {
	var rootDir modpath.AbsoluteSystemPath
	switch start.Kind {
	case StartEmpty:
		return &Directory{VendorDir: VendorPolicy{Unset: true}}, nil
	case StartConfigFile:
		rootDir = start.File.Dir()
	case StartPaths:
		if len(start.Paths) == 0 {
			return nil, fmt.Errorf("workspace discovery: StartPaths requires at least one path")
		}
		found, err := walkUpForManifest(start.Paths[0])
		if err != nil {
			return nil, err
		}
		rootDir = found
	case StartCwd:
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		found, err := walkUpForManifest(modpath.AbsoluteSystemPathFromUpstream(cwd))
		if err != nil {
			return nil, err
		}
		rootDir = found
	}

	rootManifestPath, ok := firstExistingManifest(rootDir)
	var rootManifest *RootManifest
	if ok {
		m, err := ReadRootManifest(rootManifestPath)
		if err != nil {
			return nil, fmt.Errorf("workspace discovery: malformed root manifest %s: %w", rootManifestPath, err)
		}
		rootManifest = m
	} else {
		rootManifest = &RootManifest{}
	}

	members := []Member{{Dir: rootDir, IsRoot: true}}
	seen := map[string]bool{rootDir.ToString(): true}

	for _, glob := range rootManifest.Workspaces {
		paths, err := GlobFiles(rootDir.ToString(), []string{glob + "/package.json", glob + "/module.json"}, []string{"**/node_modules/**"})
		if err != nil {
			return nil, fmt.Errorf("workspace discovery: %w", err)
		}
		for _, p := range paths {
			abs := modpath.AbsoluteSystemPathFromUpstream(p)
			memberDir := abs.Dir()
			if seen[memberDir.ToString()] {
				return nil, fmt.Errorf("workspace discovery: duplicate member directory %s", memberDir)
			}
			seen[memberDir.ToString()] = true
			manifest, err := ReadModuleManifest(abs)
			if err != nil {
				return nil, fmt.Errorf("workspace discovery: malformed member manifest %s: %w", abs, err)
			}
			manifest.Dir = memberDir.ToUnixPath().ToSystemPath()
			manifest.ManifestPath = abs.ToUnixPath().ToSystemPath()
			members = append(members, Member{Dir: memberDir, Manifest: manifest})
		}
	}

	vendor := resolveVendorPolicy(rootManifest, forceVendorDisabled)

	return &Directory{
		RootDirURL: "file://" + rootDir.ToString(),
		RootManifest: rootManifest,
		Members: members,
		VendorDir: vendor,
	}, nil
}

func resolveVendorPolicy(m *RootManifest, forceDisabled bool) VendorPolicy {
	if forceDisabled {
		return VendorPolicy{Disabled: true}
	}
	if m.VendorDir == nil {
		return VendorPolicy{Unset: true}
	}
	if *m.VendorDir == "" {
		return VendorPolicy{Disabled: true}
	}
	return VendorPolicy{Enabled: true, Path: *m.VendorDir}
}

func firstExistingManifest(dir modpath.AbsoluteSystemPath) (modpath.AbsoluteSystemPath, bool) {
	for _, name := range manifestFilenames {
		candidate := dir.Join(modpath.RelativeSystemPath(name))
		if candidate.FileExists() {
			return candidate, true
		}
	}
	return "", false
}

// walkUpForManifest walks upward from start looking for any configured
// manifest filename, stopping at the first directory containing one. If
// none is found by the filesystem root, start itself (or, when start is a
// file, its directory) is returned: an "empty" workspace consisting of
// just that directory.
func walkUpForManifest(start modpath.AbsoluteSystemPath) (modpath.AbsoluteSystemPath, error) {
	dir := start
	if dir.IsDir() {
		// ok
	} else {
		dir = dir.Dir()
	}
	startDir := dir
	for {
		if _, ok := firstExistingManifest(dir); ok {
			return dir, nil
		}
		parent := dir.Dir()
		if parent.ToString() == dir.ToString() || !strings.Contains(dir.ToString(), string(os.PathSeparator)) {
			return startDir, nil
		}
		dir = parent
	}
}
