package local

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/jutil/internal/domain"
)

func memSource(t *testing.T) *Source {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/data/photos/2024", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/data/photos/a.jpg", []byte("aaaa"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/data/photos/2024/b.jpg", []byte("bb"), 0o644))
	return NewWithFs(fs)
}

func TestSource_Stat(t *testing.T) {
	src := memSource(t)

	dir, err := src.Stat("/data/photos")
	require.NoError(t, err)
	assert.True(t, dir.IsDir)
	assert.Equal(t, "photos", dir.Name)
	assert.Zero(t, dir.Size)

	file, err := src.Stat("/data/photos/a.jpg")
	require.NoError(t, err)
	assert.False(t, file.IsDir)
	assert.Equal(t, int64(4), file.Size)
}

func TestSource_StatMissing(t *testing.T) {
	src := memSource(t)

	_, err := src.Stat("/data/nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSource_ReadDir(t *testing.T) {
	src := memSource(t)

	entries, err := src.ReadDir("/data/photos")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.True(t, byName["2024"].IsDir)
	assert.Equal(t, filepath.Join("/data/photos", "2024"), byName["2024"].Path)
	assert.False(t, byName["a.jpg"].IsDir)
	assert.Equal(t, int64(4), byName["a.jpg"].Size)
}

func TestSource_Open(t *testing.T) {
	src := memSource(t)

	rc, err := src.Open("/data/photos/2024/b.jpg")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "bb", string(data))
}

func TestSource_ReadDirFollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), []byte("x"), 0o644))

	if err := os.Symlink(target, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	entries, err := New().ReadDir(root)
	require.NoError(t, err)

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.True(t, byName["link"].IsDir, "link to a directory must report IsDir")
	assert.False(t, byName["file.txt"].IsDir)
}

func TestSource_CanonicalResolvesLinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target")
	require.NoError(t, os.Mkdir(target, 0o755))
	link := filepath.Join(root, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	src := New()
	viaLink, err := src.Canonical(link)
	require.NoError(t, err)
	direct, err := src.Canonical(target)
	require.NoError(t, err)
	assert.Equal(t, direct, viaLink)
}

func TestBaseName(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, "photos", BaseName("photos/"))
	assert.Equal(t, "b.jpg", BaseName("/x/b.jpg"))
	assert.Equal(t, filepath.Base(wd), BaseName("."))
}
