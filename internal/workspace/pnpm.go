package workspace

import (
	"fmt"

	"github.com/scriptrt/runtime-core/internal/modpath"
	"gopkg.in/yaml.v3"
)

// pnpmWorkspaceFile is the shape of pnpm-workspace.yaml, which carries the
// workspace member globs outside of package.json (unlike npm).
type pnpmWorkspaceFile struct {
	Packages []string `yaml:"packages,omitempty"`
}

func readPnpmWorkspaceGlobs(root modpath.AbsoluteSystemPath) ([]string, error) {
	path := root.Join("pnpm-workspace.yaml")
	data, err := path.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("pnpm-workspace.yaml: %w", err)
	}
	var wf pnpmWorkspaceFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("pnpm-workspace.yaml: %w", err)
	}
	if len(wf.Packages) == 0 {
		return nil, fmt.Errorf("pnpm-workspace.yaml: no packages found")
	}
	return wf.Packages, nil
}
