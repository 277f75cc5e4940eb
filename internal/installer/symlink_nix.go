//go:build !windows

package installer

import (
	"os"
	"path/filepath"
)

// linkDependency creates the POSIX relative symlink the calls for at
// P4/P7/P9: "POSIX relative symlinks". target and linkPath are both
// absolute; the stored link value is relative so the tree stays portable
// across a moved node_modules root.
func linkDependency(target, linkPath string) error {
	rel, err := filepath.Rel(filepath.Dir(linkPath), target)
	if err != nil {
		rel = target
	}
	_ = os.Remove(linkPath)
	return os.Symlink(rel, linkPath)
}
