package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scriptrt/runtime-core/internal/graph"
)

// prefixLoader classifies a resolved URL by its scheme prefix only, without
// performing any network I/O. The real fetch transport is an external
// collaborator consumed through graph.Loader; this is the smoke-entry
// point's stand-in for it.
type prefixLoader struct{}

func (prefixLoader) Load(_ context.Context, url string) (graph.NodeKind, error) {
	switch {
	case strings.HasPrefix(url, "npm:"):
		return graph.NodeNpm, nil
	case strings.HasPrefix(url, "jsr:"):
		return graph.NodeJSR, nil
	case strings.HasPrefix(url, "node:"):
		return graph.NodeBuiltin, nil
	case strings.HasPrefix(url, "file://"):
		return graph.NodeLocal, nil
	default:
		return graph.NodeRemote, nil
	}
}

// newGraphCmd wires the module graph builder into a smoke-entry point: walk
// the roots given as positional args and report the resulting node count and
// whether the graph stayed acyclic.
func newGraphCmd() *cobra.Command {
	var graphKind string
	cmd := &cobra.Command{
		Use: "graph [roots...]",
		Short: "build the module graph rooted at the given specifiers",
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			kind := graph.CodeOnly
			switch graphKind {
			case "types":
				kind = graph.TypesOnly
			case "all":
				kind = graph.All
			}

			g, err := graph.Build(c.Context(), args, prefixLoader{}, graph.BuildOptions{
				GraphKind: kind,
				Concurrency: 8,
			})
			if err != nil {
				return err
			}
			if err := g.ValidateAcyclic(); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "nodes: %d\n", len(g.Nodes()))
			fmt.Fprintf(c.OutOrStdout(), "redirects: %d\n", len(g.Redirects()))
			return nil
		},
	}
	cmd.Flags().StringVar(&graphKind, "kind", "code", "graph kind: code|types|all")
	return cmd
}
