// Package graph implements the module graph builder: resolves a set of
// roots (plus any type-only imports) into nodes, classifies each edge,
// resolves versions against a lockfile, and validates integrity. A Loader
// reports only a module's kind, not its imports, so imports inside loaded
// modules are not discovered or followed.
package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pyr-sh/dag"

	"github.com/scriptrt/runtime-core/internal/lockfile"
	"github.com/scriptrt/runtime-core/internal/resolve"
	"github.com/scriptrt/runtime-core/internal/rterr"
)

// NodeKind classifies a graph node.
type NodeKind int

// Node kinds.
const (
	NodeLocal NodeKind = iota
	NodeRemote
	NodeJSR
	NodeNpm
	NodeBuiltin
	NodeExternal
)

// ResolutionMode mirrors the edge attribute.
type ResolutionMode int

// Resolution modes.
const (
	ModeImport ResolutionMode = iota
	ModeRequire
)

// ResolutionKind mirrors the edge attribute.
type ResolutionKind int

// Resolution kinds.
const (
	KindExecution ResolutionKind = iota
	KindTypes
)

// GraphKind selects which edges build_graph enqueues.
type GraphKind int

// Graph kinds.
const (
	CodeOnly GraphKind = iota
	TypesOnly
	All
)

// Node is one vertex of the module graph.
type Node struct {
	Specifier string
	Kind NodeKind
	LoadErr error
}

// edgeKey identifies a directed edge for dedup/visited-tracking purposes.
type edgeKey struct {
	from, to string
	mode ResolutionMode
	kind ResolutionKind
}

// Graph is the module graph, backed by an acyclic-graph library for
// traversal and cycle detection. Node/edge maps are kept separate from the
// dag.AcyclicGraph because the library's vertices are untyped `interface{}`;
// Graph keeps the typed Node alongside.
type Graph struct {
	mu sync.Mutex
	dag dag.AcyclicGraph
	nodes map[string]*Node
	redirects map[string]string // source -> target, at most one redirect target per source URL
	edgesSeen map[edgeKey]bool
	knownSpecifiers map[string]string // package_req -> resolved version, seeded from the lockfile
}

// Loader resolves a bare module specifier's source, independent of the
// Resolver's decision tree. The HTTP fetch transport itself is an external
// collaborator consumed through this interface, not implemented here.
type Loader interface {
	Load(ctx context.Context, url string) (kind NodeKind, err error)
}

// HashingLoader is implemented by loaders that can also report the content
// hash of whatever they loaded, letting Build validate each remote/jsr node
// against the lockfile's recorded integrity once the walk completes.
type HashingLoader interface {
	Loader
	Hash(url string) (hash string, ok bool)
}

// BuildOptions configures build_graph.
type BuildOptions struct {
	GraphKind GraphKind
	IsDynamic bool
	SkipDynamicDeps bool
	TypeOnlyImports []string // jsxImportSource/types from compiler options
	Locker *lockfile.Lockfile
	Resolver *resolve.Resolver
	Concurrency int
}

// pendingEdge is one unresolved specifier awaiting resolution.
type pendingEdge struct {
	from, specifier string
	mode ResolutionMode
	kind ResolutionKind
	dynamic bool
}

// Build implements build_graph(roots, loader, options) -> ModuleGraph.
func Build(ctx context.Context, roots []string, loader Loader, opts BuildOptions) (*Graph, error) {
	g := &Graph{
		nodes: map[string]*Node{},
		redirects: map[string]string{},
		edgesSeen: map[edgeKey]bool{},
		knownSpecifiers: map[string]string{},
	}

	if opts.Locker != nil {
		for from, to := range opts.Locker.AllRedirects() {
			g.redirects[from] = to
		}
		for req, version := range opts.Locker.AllPackageSpecifiers() {
			g.knownSpecifiers[req] = version
		}
	}

	for _, r := range roots {
		g.addNode(r, classifyRoot(r))
	}

	queue := make([]pendingEdge, 0, len(roots)+len(opts.TypeOnlyImports))
	for _, r := range roots {
		queue = append(queue, pendingEdge{from: "", specifier: r, mode: ModeImport, kind: KindExecution})
	}
	for _, t := range opts.TypeOnlyImports {
		queue = append(queue, pendingEdge{from: "", specifier: t, mode: ModeImport, kind: KindTypes})
	}

	for len(queue) > 0 {
		batch := queue
		queue = nil

		results := make([]struct {
			edge pendingEdge
			node *Node
			next []pendingEdge
			err error
		}, len(batch))

		concurrency := opts.Concurrency
		if concurrency <= 0 {
			concurrency = 8
		}
		if err := runBounded(ctx, concurrency, len(batch), func(i int) error {
			e := batch[i]
			if e.dynamic && opts.SkipDynamicDeps {
				return nil
			}
			node, err := g.resolveEdge(ctx, e, opts, loader)
			results[i].edge = e
			results[i].node = node
			results[i].err = err
			return nil
		}); err != nil {
			return nil, err
		}

		for _, r := range results {
			if r.err != nil {
				return nil, r.err
			}
			if r.node == nil {
				continue
			}
			g.recordEdge(r.edge, r.node)
		}
	}

	if opts.Locker != nil {
		if err := g.validateIntegrity(loader, opts.Locker); err != nil {
			return nil, err
		}
		g.writeThrough(opts.Locker)
	}

	return g, nil
}

// validateIntegrity checks every remote/jsr node's freshly loaded content
// hash against whatever the lockfile already recorded for it, failing the
// build on drift. Loaders that don't report a hash (HashingLoader) are
// skipped entirely; there is nothing to validate against.
func (g *Graph) validateIntegrity(loader Loader, l *lockfile.Lockfile) error {
	hl, ok := loader.(HashingLoader)
	if !ok {
		return nil
	}
	g.mu.Lock()
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	g.mu.Unlock()

	for _, n := range nodes {
		var cause lockfile.DriftCause
		switch n.Kind {
		case NodeRemote:
			cause = lockfile.DriftRemoteSource
		case NodeJSR:
			cause = lockfile.DriftJSRPackageSource
		default:
			continue
		}
		hash, ok := hl.Hash(n.Specifier)
		if !ok {
			continue
		}
		if err := lockfile.CheckIntegrity(l, cause, n.Specifier, hash); err != nil {
			return err
		}
	}
	return nil
}

func classifyRoot(spec string) NodeKind {
	return NodeLocal
}

func (g *Graph) addNode(specifier string, kind NodeKind) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.nodes[specifier]; ok {
		return n
	}
	n := &Node{Specifier: specifier, Kind: kind}
	g.nodes[specifier] = n
	g.dag.Add(specifier)
	return n
}

func (g *Graph) resolveEdge(ctx context.Context, e pendingEdge, opts BuildOptions, loader Loader) (*Node, error) {
	if target, ok := g.lockedTarget(e.specifier); ok {
		return g.addNode(target, classifyURL(target)), nil
	}
	if opts.Resolver == nil {
		return g.addNode(e.specifier, NodeExternal), nil
	}
	resolved, err := opts.Resolver.Resolve(resolve.Request{
		RawSpecifier: e.specifier,
		Referrer: e.from,
		ResolutionMode: resolve.Mode(e.mode),
		ResolutionKind: resolve.Kind(e.kind),
	})
	if err != nil {
		if opts.GraphKind == TypesOnly && rterr.IsUnsupportedMediaType(err) {
			return nil, nil // an unsupported media type is silently ignored for TypesOnly builds
		}
		return nil, EnhanceError(err, e.specifier, e.from)
	}
	kind := classifyURL(resolved.URL)
	node := g.addNode(resolved.URL, kind)
	if resolved.Redirect {
		g.mu.Lock()
		if existing, ok := g.redirects[e.specifier]; ok && existing != resolved.URL {
			g.mu.Unlock()
			return nil, fmt.Errorf("redirect conflict: %s already redirects to %s, cannot also redirect to %s",
				e.specifier, existing, resolved.URL)
		}
		g.redirects[e.specifier] = resolved.URL
		g.mu.Unlock()
	}
	if loader != nil {
		lk, err := loader.Load(ctx, resolved.URL)
		if err != nil {
			if opts.GraphKind == TypesOnly && rterr.IsUnsupportedMediaType(err) {
				return nil, nil // an unsupported media type is silently ignored for TypesOnly builds
			}
			node.LoadErr = err
		} else {
			node.Kind = lk
		}
	}
	return node, nil
}

// lockedTarget resolves e.specifier against the lockfile-seeded redirect and
// package-specifier maps, without invoking the resolver at all. This is
// what makes rebuilding a graph from a lockfile alone (no registry/network
// access) reproduce the same resolved URLs as the original build.
func (g *Graph) lockedTarget(specifier string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if target, ok := g.redirects[specifier]; ok {
		return target, true
	}
	if version, ok := g.knownSpecifiers[specifier]; ok {
		return pinSpecifier(specifier, version), true
	}
	return "", false
}

// pinSpecifier rewrites a "npm:name@range" or "jsr:name@range" specifier to
// the concrete version a prior build already resolved it to.
func pinSpecifier(raw, version string) string {
	var prefix string
	rest := raw
	switch {
	case strings.HasPrefix(raw, "npm:"):
		prefix, rest = "npm:", strings.TrimPrefix(raw, "npm:")
	case strings.HasPrefix(raw, "jsr:"):
		prefix, rest = "jsr:", strings.TrimPrefix(raw, "jsr:")
	default:
		return raw
	}
	name := rest
	if at := strings.LastIndex(rest, "@"); at > 0 {
		name = rest[:at]
	}
	return prefix + name + "@" + version
}

func (g *Graph) recordEdge(e pendingEdge, to *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := edgeKey{from: e.from, to: to.Specifier, mode: e.mode, kind: e.kind}
	if g.edgesSeen[key] {
		return
	}
	g.edgesSeen[key] = true
	if e.from != "" {
		g.dag.Connect(dag.BasicEdge(e.from, to.Specifier))
	}
}

func classifyURL(url string) NodeKind {
	switch {
	case strings.HasPrefix(url, "jsr:"):
		return NodeJSR
	case strings.HasPrefix(url, "npm:"):
		return NodeNpm
	case strings.HasPrefix(url, "node:"):
		return NodeBuiltin
	case strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://"):
		return NodeRemote
	default:
		return NodeLocal
	}
}

func (g *Graph) writeThrough(l *lockfile.Lockfile) {
	if l.SkipWrite() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, src := range sortedKeys(g.redirects) {
		_ = l.InsertRedirect(src, g.redirects[src])
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateAcyclic enforces the "redirect chain is acyclic" invariant via the
// dag library's own cycle detection.
func (g *Graph) ValidateAcyclic() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	cycles := g.dag.Cycles()
	if len(cycles) == 0 {
		return nil
	}
	return fmt.Errorf("module graph has a cyclic redirect/import chain: %d cycle(s) found", len(cycles))
}

// Nodes returns every node currently in the graph, for inspection/testing.
func (g *Graph) Nodes() map[string]*Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]*Node, len(g.nodes))
	for k, v := range g.nodes {
		out[k] = v
	}
	return out
}

// Redirects returns the accumulated redirect map.
func (g *Graph) Redirects() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]string, len(g.redirects))
	for k, v := range g.redirects {
		out[k] = v
	}
	return out
}
