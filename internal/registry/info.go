// Package registry implements an npm registry info cache: tolerant parsing
// of package metadata plus the version-iteration policy consumed by the
// module graph builder and the installer.
package registry

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver"
)

// VersionInfo is one entry of NpmPackageInfo.versions. Every field that
// needs to tolerate null, the wrong type, or the wrong collection kind
// uses a custom unmarshaler that collapses to its zero value instead of
// failing the whole document.
type VersionInfo struct {
	// Name is the owning package name, not present in the npm version-info
	// JSON shape itself; Cache.Get fills it in from the fetch key once the
	// document is decoded.
	Name string `json:"-"`
	Version string `json:"version"`
	Dist *Dist `json:"dist"`
	Bin BinField `json:"bin"`
	Dependencies DepMap `json:"dependencies"`
	OptionalDependencies DepMap `json:"optionalDependencies"`
	PeerDependencies DepMap `json:"peerDependencies"`
	PeerDependenciesMeta map[string]PeerMeta `json:"peerDependenciesMeta"`
	OS StringList `json:"os"`
	CPU StringList `json:"cpu"`
	Scripts map[string]string `json:"scripts"`
	BundledDependencies StringList `json:"bundledDependencies"`
	BundleDependenciesAlt StringList `json:"bundleDependencies"`
	Deprecated string `json:"deprecated"`
}

// PeerMeta is the `peerDependenciesMeta.<name>` shape.
type PeerMeta struct {
	Optional bool `json:"optional"`
}

// Dist carries tarball location + integrity.
type Dist struct {
	Tarball string `json:"tarball"`
	Shasum string `json:"shasum"`
	Integrity string `json:"integrity"`
}

// ResolvedIntegrity picks the integrity value's resolution order:
// dist.integrity, then dist.shasum (treated as legacy sha1-hex), then none.
func (d *Dist) ResolvedIntegrity() (string, bool) {
	if d == nil {
		return "", false
	}
	if d.Integrity != "" {
		return d.Integrity, true
	}
	if d.Shasum != "" {
		return "sha1-" + d.Shasum, true
	}
	return "", false
}

// BinField tolerates either a single command string or a name->path map —
// npm's own package.json "bin" field has both historic shapes.
type BinField map[string]string

// UnmarshalJSON accepts a string, an object, or anything else (which
// collapses to an empty map 's tolerant-deserialisation rule).
func (b *BinField) UnmarshalJSON(data []byte) error {
	var asMap map[string]string
	if err := json.Unmarshal(data, &asMap); err == nil {
		*b = asMap
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil && asString != "" {
		*b = map[string]string{"": asString}
		return nil
	}
	*b = map[string]string{}
	return nil
}

// StringList tolerates a JSON array, a single string, or null/wrong-type,
// collapsing the latter to an empty list.
type StringList []string

// UnmarshalJSON implements the tolerant decode described above.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*s = arr
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil && single != "" {
		*s = []string{single}
		return nil
	}
	*s = nil
	return nil
}

// DependencyError is raised when a dependency value points at a remote
// resource: values starting with http(s)://, git:, github:, or git+ are
// rejected. It carries enough context for the caller to build a
// RemoteDependency diagnostic.
type DependencyError struct {
	ParentPackage string
	ParentVersion string
	BareSpecifier string
	Value string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s@%s: dependency %q resolves to a remote URL %q, which is not supported",
		e.ParentPackage, e.ParentVersion, e.BareSpecifier, e.Value)
}

var remotePrefixes = []string{"http://", "https://", "git:", "github:", "git+"}

func isRemoteDependencyValue(v string) bool {
	for _, p := range remotePrefixes {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	return false
}

// npmRenamePrefix is the `npm:NAME@RANGE` rename syntax.
const npmRenamePrefix = "npm:"

// DepEntry is one resolved dependency edge, after rename-syntax and
// remote-URL handling.
type DepEntry struct {
	BareSpecifier string
	ResolvedName string // differs from BareSpecifier only when renamed via npm:NAME@RANGE
	Range string
}

// DepMap is a map[string]string tolerant of the wrong collection kind
// (collapses to empty on mismatch), representing unparsed dependency ranges.
type DepMap map[string]string

// UnmarshalJSON tolerates non-object JSON for a dependency map.
func (d *DepMap) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err == nil {
		*d = m
		return nil
	}
	*d = map[string]string{}
	return nil
}

// Info is the per-package-name registry record.
type Info struct {
	Versions map[string]*VersionInfo `json:"versions"`
	DistTags map[string]string `json:"dist-tags"`
	Time map[string]string `json:"time"`
}

// parsedTime is the subset of Time whose keys are actual semver versions;
// keys that aren't semver versions are dropped.
func (i *Info) parsedTime() map[string]time.Time {
	out := make(map[string]time.Time, len(i.Time))
	for k, v := range i.Time {
		if _, err := semver.NewVersion(k); err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			continue
		}
		out[k] = ts
	}
	return out
}

// EffectiveDependencies unions Dependencies and OptionalDependencies, with
// Dependencies winning on collision, minus the union of BundledDependencies
// and BundleDependenciesAlt.
func (v *VersionInfo) EffectiveDependencies() (map[string]DepEntry, error) {
	bundled := map[string]bool{}
	for _, n := range v.BundledDependencies {
		bundled[n] = true
	}
	for _, n := range v.BundleDependenciesAlt {
		bundled[n] = true
	}

	out := map[string]DepEntry{}
	merge := func(src DepMap) error {
		for name, value := range src {
			if bundled[name] {
				continue
			}
			if isRemoteDependencyValue(value) {
				return &DependencyError{ParentPackage: v.Name, ParentVersion: v.Version, BareSpecifier: name, Value: value}
			}
			entry := DepEntry{BareSpecifier: name, ResolvedName: name, Range: value}
			if strings.HasPrefix(value, npmRenamePrefix) {
				rest := strings.TrimPrefix(value, npmRenamePrefix)
				if at := strings.LastIndex(rest, "@"); at > 0 {
					entry.ResolvedName = rest[:at]
					entry.Range = rest[at+1:]
				}
			}
			out[name] = entry
		}
		return nil
	}
	// Optional first so Dependencies overwrites on collision: a union
	// where dependencies wins over optionalDependencies.
	if err := merge(v.OptionalDependencies); err != nil {
		return nil, err
	}
	if err := merge(v.Dependencies); err != nil {
		return nil, err
	}
	return out, nil
}
