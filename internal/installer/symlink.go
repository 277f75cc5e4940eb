package installer

import (
	"path/filepath"
	"runtime"
)

// hostSystem maps the running process's GOOS/GOARCH to the npm-style
// (os, cpu) strings used in a package's optional `os`/`cpu` manifest
// fields, for the optional-dependency platform check of the P4.
func hostSystem() System {
	osName := runtime.GOOS
	if osName == "windows" {
		osName = "win32"
	}
	cpu := runtime.GOARCH
	switch cpu {
	case "amd64":
		cpu = "x64"
	case "386":
		cpu = "ia32"
	}
	return System{OS: osName, CPU: cpu}
}

func systemCompatible(pkgSystem System, host System) bool {
	if pkgSystem.OS != "" && pkgSystem.OS != host.OS {
		return false
	}
	if pkgSystem.CPU != "" && pkgSystem.CPU != host.CPU {
		return false
	}
	return true
}

func (in *Installer) isLinkingPackage(res *Resolution, pkgID string) bool {
	for alias, target := range res.Roots {
		if target != pkgID {
			continue
		}
		if _, ok := res.WorkspaceMembers[alias]; ok {
			return true
		}
	}
	return false
}

type depEdge struct {
	from Package
	name string
	dep Package
}

// p4SymlinkDependencies implements P4: symlink each package's own
// dependency edges into its canonical folder's node_modules.
func (in *Installer) p4SymlinkDependencies(res *Resolution) error {
	host := hostSystem()
	var edges []depEdge
	for _, p := range res.Packages {
		linking := in.isLinkingPackage(res, p.ID())
		for name, depID := range p.Dependencies {
			if _, optional := p.OptionalDeps[name]; optional {
				dep, ok := packageByID(res, depID)
				if ok && !systemCompatible(dep.System, host) {
					continue
				}
			}
			dep, ok := packageByID(res, depID)
			if !ok {
				continue
			}
			cacheKey := p.ID() + "/" + name
			if !linking && in.loadedCache.DepSymlinks[cacheKey] == depID {
				continue
			}
			edges = append(edges, depEdge{from: p, name: name, dep: dep})
		}
	}

	err := in.runBounded(len(edges), func(i int) error {
		e := edges[i]
		linkPath := filepath.Join(filepath.Dir(in.canonicalFolder(e.from)), e.name)
		target := in.canonicalFolder(e.dep)
		if err := ensureDir(filepath.Dir(linkPath)); err != nil {
			return wrapIOErr("failed to prepare dependency symlink parent for "+e.from.ID(), err)
		}
		if err := linkDependency(target, linkPath); err != nil {
			return wrapIOErr("failed to symlink dependency "+e.name+" for "+e.from.ID(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, e := range edges {
		in.cache.DepSymlinks[e.from.ID()+"/"+e.name] = e.dep.ID()
	}
	return nil
}
