package modpath

import (
	"os"
)

// DirPermissions are the default permission bits applied to created directories.
const DirPermissions = os.ModeDir | 0775

// EnsureDir ensures the directory containing this path exists.
func (p AbsoluteSystemPath) EnsureDir() error {
	return os.MkdirAll(p.Dir().ToString(), DirPermissions)
}

// MkdirAll creates this path (and any missing parents) as a directory.
func (p AbsoluteSystemPath) MkdirAll(perm os.FileMode) error {
	return os.MkdirAll(p.ToString(), perm)
}

// Exists reports whether this path exists (file, directory, or symlink).
func (p AbsoluteSystemPath) Exists() bool {
	_, err := os.Lstat(p.ToString())
	return err == nil
}

// FileExists reports whether this path exists and is a regular file.
func (p AbsoluteSystemPath) FileExists() bool {
	info, err := os.Lstat(p.ToString())
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether this path exists and is a directory.
func (p AbsoluteSystemPath) IsDir() bool {
	info, err := os.Stat(p.ToString())
	return err == nil && info.IsDir()
}

// IsSymlink reports whether this path exists and is a symlink.
func (p AbsoluteSystemPath) IsSymlink() bool {
	info, err := os.Lstat(p.ToString())
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// ReadFile reads the full contents of this path.
func (p AbsoluteSystemPath) ReadFile() ([]byte, error) {
	return os.ReadFile(p.ToString())
}

// WriteFile writes data to this path, creating parent directories as needed.
func (p AbsoluteSystemPath) WriteFile(data []byte, perm os.FileMode) error {
	if err := p.EnsureDir(); err != nil {
		return err
	}
	return os.WriteFile(p.ToString(), data, perm)
}

// Remove removes this path (file or empty directory).
func (p AbsoluteSystemPath) Remove() error {
	return os.Remove(p.ToString())
}

// Symlink creates newname as a symbolic link to p.
func (p AbsoluteSystemPath) Symlink(newname AbsoluteSystemPath) error {
	return os.Symlink(p.ToString(), newname.ToString())
}
