package installer

import "path/filepath"

// p9WorkspaceMemberSymlinks implements P9: every workspace member
// with a package manifest gets symlinked under the top-level
// node_modules/<alias>.
func (in *Installer) p9WorkspaceMemberSymlinks(res *Resolution) error {
	aliases := sortedAliases(res.WorkspaceMembers)
	return in.runBounded(len(aliases), func(i int) error {
		alias := aliases[i]
		src := res.WorkspaceMembers[alias]
		linkPath := in.topLevelPath(alias)
		if err := ensureDir(filepath.Dir(linkPath)); err != nil {
			return wrapIOErr("failed to prepare workspace member parent for "+alias, err)
		}
		if err := linkDependency(src, linkPath); err != nil {
			return wrapIOErr("failed to symlink workspace member "+alias, err)
		}
		in.cache.RootSymlinks[alias] = "workspace:" + alias
		return nil
	})
}
