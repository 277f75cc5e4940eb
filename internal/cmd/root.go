// Package cmd holds the root cobra command wiring together config,
// workspace discovery, the module graph builder and the npm installer.
// CLI flag parsing is explicitly out of scope, so this stays a thin
// composition root: one subcommand per area, not a full CLI surface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/scriptrt/runtime-core/internal/rterr"
)

// version is set by main via GetCmd; kept unexported since there is no
// release process for this module to wire it from.
var version = "0.0.0-dev"

// GetCmd builds the root command and attaches every subcommand.
func GetCmd(v string) *cobra.Command {
	version = v
	root := &cobra.Command{
		Use: "runtime-core",
		Short: "module graph resolver, npm installer and LSP test pipeline",
		Version: version,
		SilenceUsage: true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("cwd", "", "directory to resolve the workspace from (defaults to the current directory)")
	root.AddCommand(newResolveCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newInstallCmd())
	return root
}

// RunWithArgs runs the command tree with args that do not include the
// binary name, returning the process exit code per rterr's exit-code
// mapping.
func RunWithArgs(args []string, v string) int {
	root := GetCmd(v)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		root.PrintErrln(err)
	}
	return rterr.ExitCode(err)
}
