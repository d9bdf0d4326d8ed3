package tempfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithPerms(t *testing.T) {
	f, err := New(WithDir(t.TempDir()), WithName("bridge-*"), WithPerms(0o700))
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(f.Name()) })
	require.NoError(t, f.Close())

	info, err := os.Stat(f.Name())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	assert.Contains(t, filepath.Base(f.Name()), "bridge-")
}

func TestNewKeepingExtension(t *testing.T) {
	f, err := New(WithDir(t.TempDir()), WithName("bridge-0d9f.bat"), KeepingExtension())
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(f.Name()) })
	require.NoError(t, f.Close())

	base := filepath.Base(f.Name())
	assert.True(t, strings.HasPrefix(base, "bridge-0d9f-"), "got %q", base)
	assert.Equal(t, ".bat", filepath.Ext(base))
}

func TestNewCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deeper")

	f, err := New(WithDir(dir), WithName("artifact-*"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, dir, filepath.Dir(f.Name()))
}
