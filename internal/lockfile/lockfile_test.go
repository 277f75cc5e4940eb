package lockfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRoundTrip(t *testing.T) {
	l := New(false, false)
	require.NoError(t, l.SetRemoteIntegrity("https://example.com/x.ts", "sha512-AAA"))
	require.NoError(t, l.InsertRedirect("https://example.com/old.ts", "https://example.com/new.ts"))
	require.NoError(t, l.InsertPackageSpecifier("jsr:left-pad@^1", "1.2.3"))
	require.NoError(t, l.AddPackageDeps("left-pad@1.2.3", "https://registry/left-pad-1.2.3.tgz", "sha512-BBB", map[string]string{"dep": "dep@1.0.0"}))

	first, err := l.Encode()
	require.NoError(t, err)

	reloaded, err := Load(first, false, false)
	require.NoError(t, err)

	second, err := reloaded.Encode()
	require.NoError(t, err)

	assert.Equal(t, first, second, "round-tripping a lockfile must be byte-identical")
}

func TestFrozenRejectsChangingMutation(t *testing.T) {
	l := New(false, false)
	require.NoError(t, l.SetRemoteIntegrity("https://example.com/x.ts", "sha512-AAA"))

	data, err := l.Encode()
	require.NoError(t, err)

	frozen, err := Load(data, true, false)
	require.NoError(t, err)

	// Identical write under frozen is always a no-op, never an error.
	assert.NoError(t, frozen.SetRemoteIntegrity("https://example.com/x.ts", "sha512-AAA"))

	// Differing write: must fail under frozen.
	err = frozen.SetRemoteIntegrity("https://example.com/x.ts", "sha512-CCC")
	assert.Error(t, err)
}

func TestInsertRedirectExcludesNonHTTPSchemes(t *testing.T) {
	l := New(false, false)
	require.NoError(t, l.InsertRedirect("npm:left-pad@1", "npm:left-pad@1.2.3"))
	require.NoError(t, l.InsertRedirect("file:///a.ts", "file:///b.ts"))
	assert.Empty(t, l.SortedRedirectSources())
}

func TestCheckIntegrityDetectsDrift(t *testing.T) {
	l := New(false, false)
	require.NoError(t, l.SetRemoteIntegrity("https://example.com/x.ts", "sha512-AAA"))

	err := CheckIntegrity(l, DriftRemoteSource, "https://example.com/x.ts", "sha512-BBB")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sha512-AAA")
	assert.Contains(t, err.Error(), "sha512-BBB")
}
