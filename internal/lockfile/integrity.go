package lockfile

import (
	"fmt"

	"github.com/scriptrt/runtime-core/internal/rterr"
)

// DriftCause distinguishes the three sources of integrity drift the graph
// builder's report must tell apart: remote source drift, jsr package
// source drift, and jsr package-manifest drift.
type DriftCause int

// Drift causes.
const (
	DriftRemoteSource DriftCause = iota
	DriftJSRPackageSource
	DriftJSRPackageManifest
)

func (c DriftCause) String() string {
	switch c {
	case DriftRemoteSource:
		return "remote source drift"
	case DriftJSRPackageSource:
		return "jsr package source drift"
	case DriftJSRPackageManifest:
		return "jsr package-manifest drift"
	default:
		return "unknown drift"
	}
}

// CheckIntegrity compares a freshly computed hash against whatever the
// lockfile already recorded for the given key, and returns a structured
// IntegrityCheckFailed error (exit code 10) when they differ.
// When nothing was recorded yet, the computed hash is simply stored.
func CheckIntegrity(l *Lockfile, cause DriftCause, key, computedHash string) error {
	var existing string
	var ok bool
	switch cause {
	case DriftRemoteSource:
		existing, ok = l.GetRemoteIntegrity(key)
	case DriftJSRPackageManifest:
		existing, ok = l.GetPkgManifestIntegrity(key)
	case DriftJSRPackageSource:
		existing, ok = l.GetRemoteIntegrity(key)
	}
	if !ok {
		return storeIntegrity(l, cause, key, computedHash)
	}
	if existing != computedHash {
		return rterr.New(rterr.KindIntegrity, rterr.ClassIntegrityCheckFailed, fmt.Sprintf(
			"%s for %s: lockfile has %q, computed %q", cause, key, existing, computedHash))
	}
	return nil
}

func storeIntegrity(l *Lockfile, cause DriftCause, key, hash string) error {
	switch cause {
	case DriftJSRPackageManifest:
		return l.SetPkgManifestIntegrity(key, hash)
	default:
		return l.SetRemoteIntegrity(key, hash)
	}
}
