package lifecycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingLogger struct {
	warnings []string
}

func (c *capturingLogger) Warn(msg string, args ...interface{}) {
	c.warnings = append(c.warnings, msg)
}

func TestRunSkipsUnauthorizedPackageAndWarnsOnce(t *testing.T) {
	dir := t.TempDir()
	logger := &capturingLogger{}
	r := New(RunOptions{Logger: logger})

	pkg := Package{NV: "left-pad@1.2.3", Path: dir, Scripts: map[string]string{"postinstall": "true"}}
	require.NoError(t, r.Run([]Package{pkg}))
	require.NoError(t, r.Run([]Package{pkg}))

	assert.Len(t, logger.warnings, 1, "the warning sentinel must suppress repeat warnings")
	assert.FileExists(t, filepath.Join(dir, ".scripts-warned"))
}

func TestRunExecutesAllowListedScriptsInFixedOrder(t *testing.T) {
	dir := t.TempDir()
	r := New(RunOptions{AllowList: []string{"left-pad@1.2.3"}, InitialCwd: dir, RuntimeUserAgent: "test/1.0"})

	out := filepath.Join(dir, "order.txt")
	pkg := Package{
		NV:   "left-pad@1.2.3",
		Path: dir,
		Scripts: map[string]string{
			"postinstall": "echo post >> " + out,
			"preinstall":  "echo pre >> " + out,
			"install":     "echo ins >> " + out,
		},
	}
	require.NoError(t, r.Run([]Package{pkg}))
	assert.FileExists(t, filepath.Join(dir, ".scripts-run"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "pre\nins\npost\n", string(data))
}

func TestAncestorBinDirsWalksUpward(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "packages", "a")
	require.NoError(t, mkdirAllBin(root))
	require.NoError(t, mkdirAllBin(child))

	dirs := ancestorBinDirs(child)
	assert.Len(t, dirs, 2)
	assert.Equal(t, filepath.Join(child, "node_modules", ".bin"), dirs[0])
}

func mkdirAllBin(dir string) error {
	return os.MkdirAll(filepath.Join(dir, "node_modules", ".bin"), 0o755)
}
