package workspace

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/scriptrt/runtime-core/internal/modpath"
)

// PackageManager abstracts across the package managers this module needs to
// interoperate with for BYONM (node_modules_mode=Manual): npm (the lockfile
// format this module's own lockfile schema generalizes from) and pnpm (the
// on-disk layout the installer's node_modules materialisation generalizes
// from).
type PackageManager struct {
	Name string
	Slug string
	Specfile string
	Lockfile string

	getWorkspaceGlobs func(root modpath.AbsoluteSystemPath) ([]string, error)
	matches func(manager, version string) bool
	detect func(root modpath.AbsoluteSystemPath, pm *PackageManager) bool
}

var managers = []PackageManager{nodejsNpm, nodejsPnpm}

var pmStringPattern = regexp.MustCompile(`(npm|pnpm|yarn)@(\d+)\.\d+\.\d+(-.+)?`)

// ParsePackageManagerString parses a "name@version" pin, the same shape npm's
// own "packageManager" field in package.json uses.
func ParsePackageManagerString(s string) (manager, version string, err error) {
	match := pmStringPattern.FindString(s)
	if match == "" {
		return "", "", fmt.Errorf("could not parse packageManager field, expected pattern like %q, got %q", pmStringPattern.String(), s)
	}
	parts := strings.SplitN(match, "@", 2)
	return parts[0], parts[1], nil
}

// Detect attempts every identification method in turn: the manifest pin
// first, then on-disk detection (teacher's GetPackageManager flow).
func Detect(root modpath.AbsoluteSystemPath, manifest *ModuleManifest) (*PackageManager, error) {
	if manifest != nil && manifest.PackageManager != "" {
		manager, version, err := ParsePackageManagerString(manifest.PackageManager)
		if err == nil {
			for i := range managers {
				if managers[i].matches(manager, version) {
					return &managers[i], nil
				}
			}
		}
	}
	for i := range managers {
		if managers[i].detect(root, &managers[i]) {
			return &managers[i], nil
		}
	}
	return nil, fmt.Errorf("could not detect a package manager for %s; set \"packageManager\" in the root manifest", root)
}

// GetWorkspaces returns the package.json paths for every workspace member.
func (pm PackageManager) GetWorkspaces(root modpath.AbsoluteSystemPath) ([]string, error) {
	globs, err := pm.getWorkspaceGlobs(root)
	if err != nil {
		return nil, err
	}
	patterns := make([]string, len(globs))
	for i, g := range globs {
		patterns[i] = filepath.Join(g, "package.json")
	}
	return GlobFiles(root.ToString(), patterns, []string{"**/node_modules/**"})
}

var nodejsNpm = PackageManager{
	Name: "nodejs-npm",
	Slug: "npm",
	Specfile: "package.json",
	Lockfile: "package-lock.json",

	getWorkspaceGlobs: func(root modpath.AbsoluteSystemPath) ([]string, error) {
		manifest, err := ReadModuleManifest(root.Join("package.json"))
		if err != nil {
			return nil, fmt.Errorf("package.json: %w", err)
		}
		if len(manifest.Workspaces) == 0 {
			return nil, fmt.Errorf("package.json: no workspaces found")
		}
		return manifest.Workspaces, nil
	},
	matches: func(manager, version string) bool { return manager == "npm" },
	detect: func(root modpath.AbsoluteSystemPath, pm *PackageManager) bool {
		return root.Join(modpath.RelativeSystemPath(pm.Specfile)).FileExists() &&
			root.Join(modpath.RelativeSystemPath(pm.Lockfile)).FileExists()
	},
}

var nodejsPnpm = PackageManager{
	Name: "nodejs-pnpm",
	Slug: "pnpm",
	Specfile: "package.json",
	Lockfile: "pnpm-lock.yaml",

	getWorkspaceGlobs: func(root modpath.AbsoluteSystemPath) ([]string, error) {
		return readPnpmWorkspaceGlobs(root)
	},
	matches: func(manager, version string) bool { return manager == "pnpm" },
	detect: func(root modpath.AbsoluteSystemPath, pm *PackageManager) bool {
		return root.Join(modpath.RelativeSystemPath(pm.Specfile)).FileExists() &&
			root.Join(modpath.RelativeSystemPath(pm.Lockfile)).FileExists()
	},
}
