package registry

import (
	"sort"
	"time"

	"github.com/Masterminds/semver"
)

// IterOptions controls package_version_iter's filtering: iteration honours
// a newest-allowed-date cutoff, and link-package overrides take priority
// over anything the registry returned.
type IterOptions struct {
	// NewestAllowedDate, if non-zero, drops every version published after it
	// (a "--no-npm-fetch-latest" style pinning knob).
	NewestAllowedDate time.Time
	// LinkOverrides maps a version string directly to a VersionInfo that
	// must be yielded in place of (or in addition to) whatever the registry
	// document contains, for file:/link: workspace dependencies.
	LinkOverrides map[string]*VersionInfo
}

// FilteredVersions returns every version of a package in ascending semver
// order, after applying the newest-allowed-date filter and link overrides.
func (i *Info) FilteredVersions(opts IterOptions) []*VersionInfo {
	times := i.parsedTime()

	out := make([]*VersionInfo, 0, len(i.Versions))
	seen := map[string]bool{}
	for v, info := range i.Versions {
		if !opts.NewestAllowedDate.IsZero() {
			if ts, ok := times[v]; ok && ts.After(opts.NewestAllowedDate) {
				continue
			}
		}
		out = append(out, info)
		seen[v] = true
	}
	for v, override := range opts.LinkOverrides {
		if !seen[v] {
			out = append(out, override)
		} else {
			for idx, existing := range out {
				if existing.Version == v {
					out[idx] = override
				}
			}
		}
	}

	sort.Slice(out, func(a, b int) bool {
		va, errA := semver.NewVersion(out[a].Version)
		vb, errB := semver.NewVersion(out[b].Version)
		if errA != nil || errB != nil {
			return out[a].Version < out[b].Version
		}
		return va.LessThan(vb)
	})
	return out
}

// BestMatch returns the highest version satisfying a semver range
// constraint, honouring the same filtering as FilteredVersions.
func (i *Info) BestMatch(rangeConstraint string, opts IterOptions) (*VersionInfo, bool) {
	constraint, err := semver.NewConstraint(rangeConstraint)
	if err != nil {
		return nil, false
	}
	versions := i.FilteredVersions(opts)
	for idx := len(versions) - 1; idx >= 0; idx-- {
		v, err := semver.NewVersion(versions[idx].Version)
		if err != nil {
			continue
		}
		if constraint.Check(v) {
			return versions[idx], true
		}
	}
	return nil, false
}

// ResolveDistTag returns the version pointed to by a dist-tag (e.g.
// "latest"), if present.
func (i *Info) ResolveDistTag(tag string) (*VersionInfo, bool) {
	v, ok := i.DistTags[tag]
	if !ok {
		return nil, false
	}
	info, ok := i.Versions[v]
	return info, ok
}
