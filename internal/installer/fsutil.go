package installer

import (
	"io"
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
)

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// hardLinkOrCopy populates a canonical package folder by hard-linking every
// regular file from a shared cache extraction, falling back to a byte copy
// when the two paths live on different filesystems (EXDEV) or the platform
// doesn't support hard links.
func hardLinkOrCopy(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// copyTree recursively hard-link-or-copies an entire directory tree; when
// excludeNodeModules is set, any path with a component named "node_modules"
// is skipped, which P2 uses to clone a patch-package's source tree without
// its own node_modules.
// Walked with godirwalk rather than filepath.Walk since it avoids an
// extra Lstat per entry on top of the readdir it already does.
func copyTree(src, dst string, excludeNodeModules bool) error {
	return godirwalk.Walk(src, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			if excludeNodeModules && rel != "." && containsNodeModulesComponent(rel) {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}
			target := filepath.Join(dst, rel)
			if de.IsDir() {
				return os.MkdirAll(target, 0o755)
			}
			if de.IsSymlink() {
				linkTarget, err := os.Readlink(path)
				if err != nil {
					return err
				}
				return os.Symlink(linkTarget, target)
			}
			return hardLinkOrCopy(path, target)
		},
		Unsorted: true,
	})
}

func containsNodeModulesComponent(rel string) bool {
	for _, part := range splitPath(rel) {
		if part == "node_modules" {
			return true
		}
	}
	return false
}

func splitPath(rel string) []string {
	var parts []string
	cur := rel
	for cur != "." && cur != string(filepath.Separator) && cur != "" {
		dir, file := filepath.Split(filepath.Clean(cur))
		parts = append([]string{file}, parts...)
		cur = filepath.Clean(dir)
		if dir == "" {
			break
		}
	}
	return parts
}
