package installer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifestFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("module.exports = {}"), 0o644))
}

func TestCachePackagesPlacesTopLevelAndSharedAliases(t *testing.T) {
	root := t.TempDir()
	nmDir := filepath.Join(root, "node_modules")
	require.NoError(t, os.MkdirAll(nmDir, 0o755))

	leftPad := Package{Name: "left-pad", Version: "1.3.0"}
	isEven := Package{Name: "is-even", Version: "1.0.0", Dependencies: map[string]string{"is-odd": "is-odd@0.1.2"}}
	isOdd := Package{Name: "is-odd", Version: "0.1.2"}

	res := &Resolution{
		Packages: []Package{leftPad, isEven, isOdd},
		Roots: map[string]string{
			"left-pad": leftPad.ID(),
			"is-even":  isEven.ID(),
		},
	}

	in := New(Options{NodeModulesDir: nmDir, InitialCwd: root})

	// P1 would normally populate canonical folders from the global cache;
	// since there is nothing to hard-link from here, pre-seed the folders
	// directly to exercise the placement phases in isolation.
	for _, p := range res.Packages {
		writeManifestFile(t, in.canonicalFolder(p), "index.js")
	}

	require.NoError(t, in.p4SymlinkDependencies(res))
	in.p5ResolveTopLevelCollisions(res)
	in.p6FillRemainingTopLevel(res)
	require.NoError(t, in.p7SharedDenoAliases(res))

	assert.FileExists(t, filepath.Join(nmDir, "left-pad", "index.js"))
	assert.FileExists(t, filepath.Join(nmDir, "is-even", "index.js"))
	assert.FileExists(t, filepath.Join(nmDir, ".deno", "node_modules", "is-odd", "index.js"))

	// is-odd was symlinked as a dependency edge of is-even during P4.
	assert.FileExists(t, filepath.Join(filepath.Dir(in.canonicalFolder(isEven)), "is-odd", "index.js"))
}

func TestCachePackagesSkipsWhenLifecycleSentinelSet(t *testing.T) {
	t.Setenv(lifecycleSentinelEnv, "1")
	root := t.TempDir()
	in := New(Options{NodeModulesDir: filepath.Join(root, "node_modules")})
	assert.NoError(t, in.CachePackages(&Resolution{}))
}

func TestFolderIDDistinguishesPeerCopies(t *testing.T) {
	base := Package{Name: "react-dom", Version: "18.2.0"}
	copy1 := Package{Name: "react-dom", Version: "18.2.0", PeerCopyIndex: 1}
	assert.NotEqual(t, base.FolderID(), copy1.FolderID())
	assert.NotEqual(t, base.ID(), copy1.ID())
}

func TestSetupCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := newSetupCache()
	c.RootSymlinks["left-pad"] = "left-pad@1.3.0"
	c.DenoSymlinks["is-odd"] = "is-odd@0.1.2"
	require.NoError(t, c.save(dir))

	loaded := loadSetupCache(dir)
	assert.Equal(t, "left-pad@1.3.0", loaded.RootSymlinks["left-pad"])
	assert.Equal(t, "is-odd@0.1.2", loaded.DenoSymlinks["is-odd"])
}

func TestP8BinEntrySuppressesWarningWhenScriptsMayCreateIt(t *testing.T) {
	root := t.TempDir()
	nmDir := filepath.Join(root, "node_modules")
	require.NoError(t, os.MkdirAll(nmDir, 0o755))

	in := New(Options{NodeModulesDir: nmDir})
	in.binTasks = []binTask{{PackagePath: filepath.Join(nmDir, "some-pkg"), BinName: "some-pkg", BinRelPath: "bin/cli.js", HasScripts: true}}

	require.NoError(t, in.p8BinEntries())
	_, err := os.Lstat(filepath.Join(nmDir, ".bin", "some-pkg"))
	assert.True(t, os.IsNotExist(err), "bin entry should not be created yet since its target file doesn't exist")
}

func TestP10DeprecationWarningGroupsEntries(t *testing.T) {
	in := New(Options{NodeModulesDir: t.TempDir()})
	in.deprecated = []deprecatedEntry{
		{NV: "request@2.88.2", Message: "request has been deprecated"},
	}
	assert.NotPanics(t, func() { in.p10DeprecationWarnings() })
}
