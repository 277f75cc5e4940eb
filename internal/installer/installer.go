package installer

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/scriptrt/runtime-core/internal/lifecycle"
	"github.com/scriptrt/runtime-core/internal/rterr"
)

// lifecycleSentinelEnv gates the installer's re-entrancy precondition: if
// the current process is itself a lifecycle script, CachePackages returns
// immediately instead of recursing.
const lifecycleSentinelEnv = "DENO_INTERNAL_LIFECYCLE_SCRIPT"

// Options configures an Installer for one run of cache_packages.
type Options struct {
	// NodeModulesDir is the workspace's top-level node_modules directory;
	// the .deno directory is "<node_modules>/.deno".
	NodeModulesDir string
	InitialCwd string
	RuntimeUserAgent string

	AllowScripts []string // --allow-scripts allow-list, forwarded to the lifecycle runner
	Interactive bool

	Concurrency int
	Logger hclog.Logger
}

// Installer materialises a Resolution into an on-disk node_modules tree
// following a fixed P0-P12 phase order.
type Installer struct {
	opts Options
	denoDir string
	cache *SetupCache
	loadedCache *SetupCache

	foundNames map[string]string // top-level alias -> package_id, populated during P5/P6

	binTasks []binTask
	scripts []lifecycle.Package
	deprecated []deprecatedEntry
}

type deprecatedEntry struct {
	NV string
	Message string
}

type binTask struct {
	PackagePath string
	BinName string
	BinRelPath string
	HasScripts bool
}

// New constructs an Installer for one resolution run.
func New(opts Options) *Installer {
	if opts.Concurrency == 0 {
		opts.Concurrency = 8
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &Installer{
		opts: opts,
		denoDir: filepath.Join(opts.NodeModulesDir, ".deno"),
		foundNames: map[string]string{},
		cache: newSetupCache(),
		loadedCache: newSetupCache(),
	}
}

// CachePackages is the installer's entry point. Scope selection of which
// resolution packages to touch is the caller's responsibility (the
// Resolution passed in is already filtered); this method runs the fixed
// P0-P12 phase pipeline against it.
func (in *Installer) CachePackages(res *Resolution) error {
	if os.Getenv(lifecycleSentinelEnv) != "" {
		return nil
	}

	lf, err := acquireInstallLock(in.denoDir)
	if err != nil {
		return err
	}
	defer releaseInstallLock(lf)

	in.loadedCache = loadSetupCache(in.denoDir)
	in.cache = loadSetupCache(in.denoDir)

	if err := in.p1PopulateCanonicalFolders(res); err != nil {
		return err
	}
	if err := in.p2PatchPackages(res); err != nil {
		return err
	}
	if err := in.p3CopyPackagesForPeerCopies(res); err != nil {
		return err
	}
	if err := in.p4SymlinkDependencies(res); err != nil {
		return err
	}
	in.p5ResolveTopLevelCollisions(res)
	in.p6FillRemainingTopLevel(res)
	if err := in.p7SharedDenoAliases(res); err != nil {
		return err
	}
	if err := in.p8BinEntries(); err != nil {
		return err
	}
	if err := in.p9WorkspaceMemberSymlinks(res); err != nil {
		return err
	}
	in.p10DeprecationWarnings()
	if err := in.p11LifecycleScripts(); err != nil {
		return err
	}
	return in.p12PersistSetupCache()
}

// canonicalFolder returns "<.deno>/<folder_id>/node_modules/<name>", the
// path a package's own contents live under, populated during P1.
func (in *Installer) canonicalFolder(p Package) string {
	return filepath.Join(in.denoDir, p.FolderID(), "node_modules", p.Name)
}

// denoAliasPath returns "<.deno>/node_modules/<name>", the shared search
// path symlinked at P7.
func (in *Installer) denoAliasPath(name string) string {
	return filepath.Join(in.denoDir, "node_modules", name)
}

func (in *Installer) topLevelPath(alias string) string {
	return filepath.Join(in.opts.NodeModulesDir, alias)
}

// runBounded parallelises n independent tasks within a phase, subject to
// the installer's configured concurrency. Operations within a phase are
// parallelised, but the phase boundary itself is a barrier.
func (in *Installer) runBounded(n int, fn func(i int) error) error {
	g := &errgroup.Group{}
	g.SetLimit(in.opts.Concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}

func packageByID(res *Resolution, id string) (Package, bool) {
	for _, p := range res.Packages {
		if p.ID() == id {
			return p, true
		}
	}
	return Package{}, false
}

func sortedAliases(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func wrapIOErr(what string, err error) error {
	return rterr.Wrap(rterr.KindIO, rterr.ClassResolutionError, what, err)
}

// p12PersistSetupCache implements P12: if the in-memory SetupCache differs
// from the loaded one, serialise and atomically write .setup-cache.bin.
func (in *Installer) p12PersistSetupCache() error {
	if setupCacheEqual(in.cache, in.loadedCache) {
		return nil
	}
	return in.cache.save(in.denoDir)
}

func setupCacheEqual(a, b *SetupCache) bool {
	return stringMapEqual(a.RootSymlinks, b.RootSymlinks) &&
		stringMapEqual(a.DenoSymlinks, b.DenoSymlinks) &&
		stringMapEqual(a.DepSymlinks, b.DepSymlinks)
}

func stringMapEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
