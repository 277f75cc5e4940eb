package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scriptrt/runtime-core/internal/installer"
)

// newInstallCmd wires the npm local installer into a smoke-entry point:
// read a pre-resolved Resolution from --resolution and run CachePackages
// against it. Producing a Resolution from a live registry fetch is the
// registry/resolve/graph packages' job, deliberately not chained together
// here since driving a real network resolve isn't this command's purpose.
func newInstallCmd() *cobra.Command {
	var resolutionPath string
	var allowScripts []string
	var interactive bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "materialise node_modules for a pre-resolved dependency set",
		RunE: func(c *cobra.Command, args []string) error {
			if resolutionPath == "" {
				return fmt.Errorf("install: --resolution is required")
			}
			cwd, err := c.Flags().GetString("cwd")
			if err != nil {
				return err
			}
			if cwd == "" {
				cwd, err = os.Getwd()
				if err != nil {
					return err
				}
			}

			res, err := loadResolution(resolutionPath)
			if err != nil {
				return err
			}

			in := installer.New(installer.Options{
				NodeModulesDir: cwd + "/node_modules",
				InitialCwd:     cwd,
				AllowScripts:   allowScripts,
				Interactive:    interactive,
			})
			if err := in.CachePackages(res); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "installed %d packages\n", len(res.Packages))
			return nil
		},
	}
	cmd.Flags().StringVar(&resolutionPath, "resolution", "", "path to a JSON-encoded installer.Resolution")
	cmd.Flags().StringSliceVar(&allowScripts, "allow-scripts", nil, "allow-list for lifecycle scripts: exact name@version entries, or \"*\" for all")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "prompt for lifecycle-script grants on a TTY")
	return cmd
}

func loadResolution(path string) (*installer.Resolution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var res installer.Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("install: malformed resolution file %s: %w", path, err)
	}
	return &res, nil
}
