package registry

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveDependenciesUnionMinusBundled(t *testing.T) {
	v := &VersionInfo{
		Version:              "1.0.0",
		Dependencies:         DepMap{"a": "^1.0.0", "c": "^1.0.0"},
		OptionalDependencies: DepMap{"b": "^2.0.0", "a": "^0.9.0"},
		BundledDependencies:  StringList{"c"},
	}
	deps, err := v.EffectiveDependencies()
	require.NoError(t, err)

	// property: |deps ∪ optionalDeps \ bundled| == 2 ("a" wins from
	// Dependencies over OptionalDependencies, "c" is excluded, "b" survives).
	assert.Len(t, deps, 2)
	assert.Equal(t, "^1.0.0", deps["a"].Range)
	assert.Equal(t, "^2.0.0", deps["b"].Range)
	_, hasC := deps["c"]
	assert.False(t, hasC)
}

func TestEffectiveDependenciesRejectsRemoteURL(t *testing.T) {
	v := &VersionInfo{
		Version:      "2.3.4",
		Dependencies: DepMap{"left-pad": "git+https://example.com/left-pad.git"},
	}
	_, err := v.EffectiveDependencies()
	require.Error(t, err)

	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "left-pad", depErr.BareSpecifier)
	assert.Equal(t, "2.3.4", depErr.ParentVersion)
}

func TestEffectiveDependenciesHandlesNpmRename(t *testing.T) {
	v := &VersionInfo{
		Version:      "1.0.0",
		Dependencies: DepMap{"string-width": "npm:string-width-cjs@^4.2.3"},
	}
	deps, err := v.EffectiveDependencies()
	require.NoError(t, err)
	entry := deps["string-width"]
	assert.Equal(t, "string-width-cjs", entry.ResolvedName)
	assert.Equal(t, "^4.2.3", entry.Range)
}

func TestResolvedIntegrityOrder(t *testing.T) {
	d := &Dist{Shasum: "deadbeef"}
	hash, ok := d.ResolvedIntegrity()
	assert.True(t, ok)
	assert.Equal(t, "sha1-deadbeef", hash)

	d2 := &Dist{Integrity: "sha512-XYZ", Shasum: "deadbeef"}
	hash2, _ := d2.ResolvedIntegrity()
	assert.Equal(t, "sha512-XYZ", hash2)

	var empty *Dist
	_, ok3 := empty.ResolvedIntegrity()
	assert.False(t, ok3)
}

func TestBinFieldTolerantUnmarshal(t *testing.T) {
	var b BinField
	require.NoError(t, json.Unmarshal([]byte(`"./bin/cli.js"`), &b))
	assert.Equal(t, "./bin/cli.js", b[""])

	var b2 BinField
	require.NoError(t, json.Unmarshal([]byte(`{"cli": "./bin/cli.js"}`), &b2))
	assert.Equal(t, "./bin/cli.js", b2["cli"])

	var b3 BinField
	require.NoError(t, json.Unmarshal([]byte(`null`), &b3))
	assert.Empty(t, b3)
}

func TestBestMatchPicksHighestSatisfying(t *testing.T) {
	info := &Info{Versions: map[string]*VersionInfo{
		"1.0.0": {Version: "1.0.0"},
		"1.2.0": {Version: "1.2.0"},
		"2.0.0": {Version: "2.0.0"},
	}}
	best, ok := info.BestMatch("^1.0.0", IterOptions{})
	require.True(t, ok)
	assert.Equal(t, "1.2.0", best.Version)
}

type fakeSource struct {
	body string
	err  error
}

func (f *fakeSource) FetchPackageInfo(ctx context.Context, name string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func TestCacheMemoizesSuccessfulFetch(t *testing.T) {
	calls := 0
	src := &countingSource{fakeSource: fakeSource{body: `{"versions":{"1.0.0":{"version":"1.0.0"}},"dist-tags":{"latest":"1.0.0"}}`}, calls: &calls}
	cache := NewCache(src, nil)

	info1, err := cache.Get(context.Background(), "left-pad")
	require.NoError(t, err)
	info2, err := cache.Get(context.Background(), "left-pad")
	require.NoError(t, err)

	assert.Same(t, info1, info2)
	assert.Equal(t, 1, calls)

	latest, ok := info1.ResolveDistTag("latest")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", latest.Version)
}

type countingSource struct {
	fakeSource
	calls *int
}

func (c *countingSource) FetchPackageInfo(ctx context.Context, name string) (io.ReadCloser, error) {
	*c.calls++
	return c.fakeSource.FetchPackageInfo(ctx, name)
}
