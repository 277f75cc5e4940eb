package graph

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastCheckCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fastcheck.gob")

	c, err := OpenFastCheckCache(path)
	require.NoError(t, err)

	hash := HashSource([]byte("export const x = 1;"))
	_, ok := c.Lookup(hash)
	assert.False(t, ok)

	require.NoError(t, c.Store(hash, []string{"@scope/a", "@scope/b"}))

	reopened, err := OpenFastCheckCache(path)
	require.NoError(t, err)
	members, ok := reopened.Lookup(hash)
	require.True(t, ok)
	assert.Equal(t, []string{"@scope/a", "@scope/b"}, members)
}
