package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptrt/runtime-core/internal/config"
	"github.com/scriptrt/runtime-core/internal/modpath"
	"github.com/scriptrt/runtime-core/internal/workspace"
)

// newResolveCmd wires workspace discovery and config merging into a single
// smoke-entry point: discover the workspace rooted at --cwd, merge its
// manifest against recognized environment variables and defaults, and
// report the resolved options.
func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "discover the workspace and print the resolved options",
		RunE: func(c *cobra.Command, args []string) error {
			cwd, err := c.Flags().GetString("cwd")
			if err != nil {
				return err
			}
			dir, err := discoverFrom(cwd)
			if err != nil {
				return err
			}

			env, err := config.LoadEnvOptions()
			if err != nil {
				return err
			}
			defer config.ConsumeOnce()

			defaults := config.Source{
				"cachesetting":    config.CacheUse,
				"typecheckmode":   config.TypeCheckLocal,
				"nodemodulesmode": config.NodeModulesAuto,
			}
			opts, err := config.Merge(defaults, dir.RootManifest.AsSource(), env.AsSource())
			if err != nil {
				return err
			}

			fmt.Fprintf(c.OutOrStdout(), "root: %s\n", dir.RootDirURL)
			fmt.Fprintf(c.OutOrStdout(), "members: %d\n", len(dir.Members))
			fmt.Fprintf(c.OutOrStdout(), "node_modules mode: %v\n", opts.NodeModulesMode)
			fmt.Fprintf(c.OutOrStdout(), "cache setting: %v\n", opts.CacheSetting)
			if opts.JSRURL != "" {
				fmt.Fprintf(c.OutOrStdout(), "jsr url: %s\n", opts.JSRURL)
			}
			return nil
		},
	}
}

// discoverFrom runs workspace discovery starting at dir, or the process's
// current directory when dir is empty.
func discoverFrom(dir string) (*workspace.Directory, error) {
	if dir == "" {
		return workspace.Discover(workspace.Start{Kind: workspace.StartCwd}, false)
	}
	abs := modpath.AbsoluteSystemPathFromUpstream(dir)
	return workspace.Discover(workspace.Start{Kind: workspace.StartPaths, Paths: []modpath.AbsoluteSystemPath{abs}}, false)
}
