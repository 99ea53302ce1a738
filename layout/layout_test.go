package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantKey_Sanitization(t *testing.T) {
	l := New("/data")

	assert.Equal(t, "ann_smith_corp_io", l.TenantKey("ann.smith@corp.io"))
	assert.Equal(t, "Ann_Smith", l.TenantKey("Ann Smith"))
	assert.Equal(t, "plain", l.TenantKey("plain"))
}

func TestPaths(t *testing.T) {
	l := New("/data")

	assert.Equal(t, filepath.Join("/data", "db", "u1"), l.VectorRoot("u1"))
	assert.Equal(t, filepath.Join("/data", "metadata", "u1"), l.MetadataDir("u1"))
	assert.Equal(t, filepath.Join("/data", "metadata", "u1", "datasets.json"), l.RegistryPath("u1"))
}

func TestEnsureTenant(t *testing.T) {
	l := New(t.TempDir())
	require.NoError(t, l.EnsureTenant("ann@corp.io"))

	for _, dir := range []string{l.VectorRoot("ann@corp.io"), l.MetadataDir("ann@corp.io")} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// Idempotent
	assert.NoError(t, l.EnsureTenant("ann@corp.io"))
}
