package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptrt/runtime-core/internal/resolve"
)

type staticLoader struct {
	kinds map[string]NodeKind
	errs  map[string]error
}

func (l *staticLoader) Load(ctx context.Context, url string) (NodeKind, error) {
	if err, ok := l.errs[url]; ok {
		return 0, err
	}
	if k, ok := l.kinds[url]; ok {
		return k, nil
	}
	return NodeLocal, nil
}

func TestBuildGraphSeedsRootsAndIsAcyclic(t *testing.T) {
	resolver := resolve.New(resolve.Options{})
	g, err := Build(context.Background(), []string{"/app/main.ts"}, &staticLoader{}, BuildOptions{
		Resolver: resolver,
	})
	require.NoError(t, err)
	nodes := g.Nodes()
	assert.Contains(t, nodes, "/app/main.ts")
	assert.NoError(t, g.ValidateAcyclic())
}

func TestBuildGraphClassifiesNpmAndJSRNodes(t *testing.T) {
	resolver := resolve.New(resolve.Options{
		ImportMap: &resolve.ImportMap{Imports: map[string]string{
			"left-pad": "npm:left-pad@1.2.3",
		}},
	})
	_ = resolver
	n := &Node{Specifier: "npm:left-pad@1.2.3"}
	assert.Equal(t, NodeLocal, n.Kind) // default zero value before classification
	assert.Equal(t, NodeNpm, classifyURL("npm:left-pad@1.2.3"))
	assert.Equal(t, NodeJSR, classifyURL("jsr:@std/path@1.0.0"))
	assert.Equal(t, NodeBuiltin, classifyURL("node:fs"))
	assert.Equal(t, NodeRemote, classifyURL("https://example.com/x.ts"))
}
