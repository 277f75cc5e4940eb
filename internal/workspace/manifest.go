package workspace

import (
	"encoding/json"

	"github.com/muhammadmuzzammil1998/jsonc"
	"github.com/scriptrt/runtime-core/internal/modpath"
)

// RootManifest is the workspace-level manifest, decoded as JSONC (comments
// allowed) since it is this module's primary human-edited configuration
// surface.
type RootManifest struct {
	ImportMap string `json:"importMap"`
	Workspaces Workspaces `json:"workspaces"`
	VendorDir *string `json:"vendor"`
	NodeModules string `json:"nodeModulesDir"` // "none" | "auto" | "manual"
	Unstable []string `json:"unstable"`
	Lock *bool `json:"lock"`

	RawJSON map[string]interface{} `json:"-"`
}

// ReadRootManifest reads and decodes the root workspace manifest, stripping
// comments via jsonc before handing off to encoding/json.
func ReadRootManifest(path modpath.AbsoluteSystemPath) (*RootManifest, error) {
	data, err := path.ReadFile()
	if err != nil {
		return nil, err
	}
	return UnmarshalRootManifest(data)
}

// UnmarshalRootManifest decodes JSONC bytes into a RootManifest.
func UnmarshalRootManifest(data []byte) (*RootManifest, error) {
	stripped := jsonc.ToJSON(data)
	var raw map[string]interface{}
	if err := json.Unmarshal(stripped, &raw); err != nil {
		return nil, err
	}
	m := &RootManifest{}
	if err := json.Unmarshal(stripped, m); err != nil {
		return nil, err
	}
	m.RawJSON = raw
	return m, nil
}

// AsSource converts the subset of RootManifest fields that ResolvedOptions
// cares about into a config.Source, for config.Merge's precedence chain.
func (m *RootManifest) AsSource() map[string]interface{} {
	src := map[string]interface{}{}
	if m.ImportMap != "" {
		src["importmap"] = m.ImportMap
	}
	if m.VendorDir != nil {
		src["vendordir"] = map[string]interface{}{"enabled": *m.VendorDir != "", "path": VendorDirSource(*m.VendorDir)}
	}
	// nodeModulesDir strings map onto config.NodeModulesMode's order
	// (none, auto, manual); any other value is left out.
	switch m.NodeModules {
	case "none":
		src["nodemodulesmode"] = 0
	case "auto":
		src["nodemodulesmode"] = 1
	case "manual":
		src["nodemodulesmode"] = 2
	}
	if m.Lock != nil {
		src["frozen"] = *m.Lock
	}
	return src
}

// VendorDirSource is the vendor path type AsSource places in its source
// map; AsSource builds plain maps and values, so this package does not
// import internal/config.
type VendorDirSource = string
