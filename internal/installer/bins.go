package installer

import (
	"fmt"
	"os"
	"path/filepath"
)

// p8BinEntries implements P8: materialise .bin/<exe> entries at the top
// level. If a package's declared bin path doesn't exist on disk yet but
// the package has lifecycle scripts that may still create it, the
// missing-file warning is suppressed.
func (in *Installer) p8BinEntries() error {
	binDir := filepath.Join(in.opts.NodeModulesDir, ".bin")
	if len(in.binTasks) == 0 {
		return nil
	}
	if err := ensureDir(binDir); err != nil {
		return wrapIOErr("failed to create .bin directory", err)
	}

	return in.runBounded(len(in.binTasks), func(i int) error {
		task := in.binTasks[i]
		target := filepath.Join(task.PackagePath, task.BinRelPath)
		linkPath := filepath.Join(binDir, task.BinName)

		if _, err := os.Stat(target); err != nil {
			if task.HasScripts {
				return nil // lifecycle script may still create this file
			}
			in.opts.Logger.Warn(fmt.Sprintf("bin entry %q points to a missing file %q", task.BinName, target))
			return nil
		}
		return linkDependency(target, linkPath)
	})
}
