package memstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/jutil/internal/domain"
	"github.com/Ning0612/jutil/internal/remote"
)

func TestStore_ListPreservesCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.CreateFolder(ctx, "b", remote.RootID)
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, "a", remote.RootID, strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, "b", remote.RootID)
	require.NoError(t, err)

	items, err := s.ListChildren(ctx, remote.RootID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"b", "a", "b"}, []string{items[0].Name, items[1].Name, items[2].Name})
	assert.True(t, items[0].IsFolder())
	assert.False(t, items[1].IsFolder())
	assert.NotEqual(t, items[0].ID, items[2].ID, "duplicate names get distinct ids")
}

func TestStore_EmptyParentMeansRoot(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.CreateFolder(ctx, "x", "")
	require.NoError(t, err)

	items, err := s.ListChildren(ctx, "")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestStore_CreateFileContent(t *testing.T) {
	ctx := context.Background()

	withContent := New(WithContent())
	item, err := withContent.CreateFile(ctx, "f.txt", remote.RootID, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), item.Size)
	data, ok := withContent.Content(item.ID)
	require.True(t, ok)
	assert.Equal(t, "hello", string(data))

	sizesOnly := New()
	item, err = sizesOnly.CreateFile(ctx, "f.txt", remote.RootID, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), item.Size)
	data, ok = sizesOnly.Content(item.ID)
	require.True(t, ok)
	assert.Empty(t, data)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.ListChildren(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	file, err := s.CreateFile(ctx, "f", remote.RootID, strings.NewReader(""))
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, "sub", file.ID)
	assert.ErrorIs(t, err, domain.ErrNotDirectory)

	_, err = s.CreateFolder(ctx, "", remote.RootID)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	boom := errors.New("boom")
	s.FailOn = func(op, name, parentID string) error {
		if op == "create_file" && name == "bad" {
			return boom
		}
		return nil
	}
	_, err = s.CreateFile(ctx, "bad", remote.RootID, strings.NewReader(""))
	assert.ErrorIs(t, err, boom)
	_, err = s.CreateFile(ctx, "good", remote.RootID, strings.NewReader(""))
	assert.NoError(t, err)
}

func TestStore_CallsAndSeeding(t *testing.T) {
	ctx := context.Background()
	s := New()

	seeded := s.AddFolder("existing", remote.RootID)
	assert.Equal(t, Calls{}, s.Calls(), "seeding is not a call")

	_, err := s.ListChildren(ctx, seeded)
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, "new", seeded)
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, "f", seeded, strings.NewReader("x"))
	require.NoError(t, err)

	assert.Equal(t, Calls{List: 1, CreateFolder: 1, CreateFile: 1}, s.Calls())
}

func TestStore_LookupAndTree(t *testing.T) {
	ctx := context.Background()
	s := New()

	photos, err := s.CreateFolder(ctx, "photos", remote.RootID)
	require.NoError(t, err)
	year, err := s.CreateFolder(ctx, "2024", photos.ID)
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, "b.jpg", year.ID, strings.NewReader("b"))
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, "a.jpg", photos.ID, strings.NewReader("a"))
	require.NoError(t, err)

	found := s.Lookup("photos", "2024", "b.jpg")
	require.Len(t, found, 1)
	assert.Equal(t, "b.jpg", found[0].Name)
	assert.Empty(t, s.Lookup("photos", "nope", "b.jpg"))

	assert.Equal(t, "photos/\n  2024/\n    b.jpg\n  a.jpg\n", s.Tree())
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	_, err := s.ListChildren(ctx, remote.RootID)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.CreateFolder(ctx, "x", remote.RootID)
	assert.ErrorIs(t, err, context.Canceled)
}
