// Package workspace implements workspace discovery: finding the project
// root and its members and decoding the workspace and module manifests.
// The root manifest's settings reach a ResolvedOptions record through
// RootManifest.AsSource and config.Merge; this package does no merging.
package workspace

import (
	"bytes"
	"encoding/json"

	"github.com/scriptrt/runtime-core/internal/modpath"
)

// ModuleManifest is this module's package.json equivalent: the per-member
// manifest declaring dependencies, scripts, and the package-manager pin.
type ModuleManifest struct {
	Name string `json:"name"`
	Version string `json:"version"`
	Scripts map[string]string `json:"scripts"`
	Dependencies map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
	PeerDependenciesMeta map[string]struct {
		Optional bool `json:"optional"`
	} `json:"peerDependenciesMeta"`
	PackageManager string `json:"packageManager"`
	ImportMap string `json:"importMap"`
	OS []string `json:"os"`
	CPU []string `json:"cpu"`
	Workspaces Workspaces `json:"workspaces"`
	Private bool `json:"private"`

	// RawJSON preserves every field from disk, including ones this struct
	// doesn't know about; struct fields win over it on re-serialisation.
	RawJSON map[string]interface{} `json:"-"`

	// ManifestPath is the anchored path to this manifest file.
	ManifestPath modpath.AnchoredSystemPath `json:"-"`
	// Dir is the anchored path to the directory containing this manifest.
	Dir modpath.AnchoredSystemPath `json:"-"`
}

// Workspaces is the two-shapes-in-one-field type npm/pnpm both use: either a
// bare array of globs, or `{"packages": [...]}.`
type Workspaces []string

type workspacesAlt struct {
	Packages []string `json:"packages,omitempty"`
}

// UnmarshalJSON accepts either shape, falling back to the array form; any
// other JSON value is a decode error.
func (w *Workspaces) UnmarshalJSON(data []byte) error {
	var alt workspacesAlt
	if err := json.Unmarshal(data, &alt); err == nil && alt.Packages != nil {
		*w = Workspaces(alt.Packages)
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	*w = arr
	return nil
}

// ReadModuleManifest reads and decodes a module manifest from disk.
func ReadModuleManifest(path modpath.AbsoluteSystemPath) (*ModuleManifest, error) {
	data, err := path.ReadFile()
	if err != nil {
		return nil, err
	}
	return UnmarshalModuleManifest(data)
}

// UnmarshalModuleManifest decodes a module manifest, preserving unknown
// fields in RawJSON (teacher's fs.UnmarshalPackageJSON pattern).
func UnmarshalModuleManifest(data []byte) (*ModuleManifest, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	m := &ModuleManifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	m.RawJSON = raw
	return m, nil
}

// MarshalModuleManifest serializes a ModuleManifest back to bytes, preferring
// struct fields over RawJSON on conflict, and dropping zero-valued struct
// fields so round-tripping doesn't inject empty keys that weren't present
// originally (teacher's fs.MarshalPackageJSON / isEmpty pattern).
func MarshalModuleManifest(m *ModuleManifest) ([]byte, error) {
	structured, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var structuredFields map[string]interface{}
	if err := json.Unmarshal(structured, &structuredFields); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{}, len(m.RawJSON))
	for k, v := range m.RawJSON {
		fields[k] = v
	}
	for k, v := range structuredFields {
		if isEmpty(v) {
			delete(fields, k)
		} else {
			fields[k] = v
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(fields); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isEmpty(v interface{}) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return s == ""
	case bool:
		return !s
	case []string:
		return len(s) == 0
	case []interface{}:
		return len(s) == 0
	case map[string]interface{}:
		return len(s) == 0
	default:
		return false
	}
}

// EffectiveDependencies unions dependencies and optionalDependencies, with
// dependencies winning on collision — the same merge rule applied to
// NpmPackageVersionInfo's dependency fields.
func (m *ModuleManifest) EffectiveDependencies() map[string]string {
	out := make(map[string]string, len(m.Dependencies)+len(m.OptionalDependencies))
	for name, rng := range m.OptionalDependencies {
		out[name] = rng
	}
	for name, rng := range m.Dependencies {
		out[name] = rng
	}
	return out
}
