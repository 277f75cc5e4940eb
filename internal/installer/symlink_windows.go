//go:build windows

package installer

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// useJunction remembers, process-wide, whether symlink creation has
// already been observed to fail with PermissionDenied so later calls skip
// straight to the junction path: try a real symlink first, fall back to a
// junction on PermissionDenied, remembered for the rest of the process.
var (
	junctionOnce sync.Once
	useJunction bool
	junctionMu sync.Mutex
)

// linkDependency mirrors symlink_nix.go's contract on Windows: try a real
// symlink first (requires Developer Mode or admin), and once that has been
// seen to fail, switch to directory junctions for the rest of the process.
func linkDependency(target, linkPath string) error {
	junctionMu.Lock()
	preferJunction := useJunction
	junctionMu.Unlock()

	if !preferJunction {
		_ = os.Remove(linkPath)
		rel, relErr := filepath.Rel(filepath.Dir(linkPath), target)
		if relErr != nil {
			rel = target
		}
		err := os.Symlink(rel, linkPath)
		if err == nil {
			return nil
		}
		if !os.IsPermission(err) {
			return err
		}
		junctionMu.Lock()
		useJunction = true
		junctionMu.Unlock()
	}
	return createJunction(target, linkPath)
}

func createJunction(target, linkPath string) error {
	_ = os.Remove(linkPath)
	abs, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	cmd := exec.Command("cmd", "/C", "mklink", "/J", linkPath, abs)
	return cmd.Run()
}
