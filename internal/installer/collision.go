package installer

import "path/filepath"

// p5ResolveTopLevelCollisions implements P5: user-declared remote
// dependencies are placed at the top-level node_modules, unless the alias
// already collides with a different version placed there, in which case
// resolution is left to the declaring package's own node_modules entry
// from P4. found_names tracks first-writer-wins.
func (in *Installer) p5ResolveTopLevelCollisions(res *Resolution) {
	if in.loadedCache.matchesRoots(res.Roots) {
		// The persisted cache already reflects exactly this root set: reuse
		// its resolved found_names instead of recomputing first-writer-wins.
		for alias, pkgID := range in.loadedCache.RootSymlinks {
			in.foundNames[alias] = pkgID
		}
		return
	}
	for _, alias := range sortedAliases(res.Roots) {
		pkgID := res.Roots[alias]
		if existing, taken := in.foundNames[alias]; taken && existing != pkgID {
			continue // collision: the package stays reachable only via its declaring package's own node_modules
		}
		in.foundNames[alias] = pkgID
	}
}

// p6FillRemainingTopLevel implements P6: every resolution root
// whose name isn't yet in found_names gets symlinked at the top. Each
// root alias names exactly one package_id, so no choice between competing
// versions is made here.
func (in *Installer) p6FillRemainingTopLevel(res *Resolution) {
	for alias, pkgID := range res.Roots {
		if _, ok := in.foundNames[alias]; ok {
			continue
		}
		p, ok := packageByID(res, pkgID)
		if !ok {
			continue
		}
		in.foundNames[alias] = p.ID()
	}
}

// placeTopLevelSymlinks materialises every alias recorded in found_names as
// a real top-level symlink. Run after P5/P6 finish deciding the mapping so
// the filesystem work can be parallelised across a stable set.
func (in *Installer) placeTopLevelSymlinks(res *Resolution) error {
	aliases := sortedAliases(in.foundNames)
	return in.runBounded(len(aliases), func(i int) error {
		alias := aliases[i]
		p, ok := packageByID(res, in.foundNames[alias])
		if !ok {
			return nil
		}
		return in.linkTopLevel(alias, p)
	})
}

// p7SharedDenoAliases implements P7: every remaining
// newest-by-name package not yet surfaced at the top gets symlinked under
// the shared .deno/node_modules/<name> search path used by require/import
// from inside .deno/*.
func (in *Installer) p7SharedDenoAliases(res *Resolution) error {
	if err := in.placeTopLevelSymlinks(res); err != nil {
		return err
	}

	byName := map[string]Package{}
	for _, p := range res.Packages {
		current, ok := byName[p.Name]
		if !ok || p.Version > current.Version {
			byName[p.Name] = p
		}
	}

	names := make([]string, 0, len(byName))
	for name, p := range byName {
		if toplevelID, ok := in.foundNames[name]; ok && toplevelID == p.ID() {
			continue
		}
		names = append(names, name)
	}

	return in.runBounded(len(names), func(i int) error {
		name := names[i]
		p := byName[name]
		linkPath := in.denoAliasPath(name)
		if err := ensureDir(filepath.Dir(linkPath)); err != nil {
			return wrapIOErr("failed to prepare shared alias parent for "+name, err)
		}
		if err := linkDependency(in.canonicalFolder(p), linkPath); err != nil {
			return wrapIOErr("failed to create shared alias for "+name, err)
		}
		in.cache.DenoSymlinks[name] = p.ID()
		return nil
	})
}

func (in *Installer) linkTopLevel(alias string, p Package) error {
	linkPath := in.topLevelPath(alias)
	if err := ensureDir(filepath.Dir(linkPath)); err != nil {
		return wrapIOErr("failed to prepare top-level parent for "+alias, err)
	}
	if err := linkDependency(in.canonicalFolder(p), linkPath); err != nil {
		return wrapIOErr("failed to create top-level symlink for "+alias, err)
	}
	in.cache.RootSymlinks[alias] = p.ID()
	return nil
}
