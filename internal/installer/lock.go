package installer

import (
	"path/filepath"

	"github.com/nightlyone/lockfile"

	"github.com/scriptrt/runtime-core/internal/rterr"
)

// acquireInstallLock implements the install's lax single-process file lock
// on <node_modules>/.deno/.deno.lock: ensure the .deno directory exists,
// then try-lock a pidfile at a fixed path within it. The lock is released
// when the installer returns.
func acquireInstallLock(denoDir string) (lockfile.Lockfile, error) {
	lockPath := filepath.Join(denoDir, ".deno.lock")
	if err := ensureDir(denoDir); err != nil {
		return "", rterr.Wrap(rterr.KindIO, rterr.ClassResolutionError, "failed to create .deno directory", err)
	}
	lf, err := lockfile.New(lockPath)
	if err != nil {
		return "", rterr.Wrap(rterr.KindRuntime, rterr.ClassResolutionError, "invalid lockfile path", err)
	}
	if err := lf.TryLock(); err != nil {
		return "", rterr.Wrap(rterr.KindIO, rterr.ClassResolutionError, "another install already holds the node_modules lock", err)
	}
	return lf, nil
}

func releaseInstallLock(lf lockfile.Lockfile) {
	_ = lf.Unlock()
}
