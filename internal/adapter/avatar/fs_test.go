package avatar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	platformerrors "github.com/yuchiehee/personalpage-backend/internal/platform/errors"
)

func TestNormalizeExtension(t *testing.T) {
	for _, ext := range []string{"jpg", "jpeg", "png", "JPG", ".PNG", ".jpeg"} {
		got, err := NormalizeExtension(ext)
		require.NoError(t, err, "extension %q", ext)
		assert.Contains(t, []string{"jpg", "jpeg", "png"}, got)
	}

	for _, ext := range []string{"gif", "svg", "webp", "exe", "", "."} {
		_, err := NormalizeExtension(ext)
		require.Error(t, err, "extension %q", ext)

		structured := platformerrors.AsStructuredError(err)
		assert.Equal(t, platformerrors.TypeUnsupportedMedia, structured.Type)
	}
}

func TestFSStore_Save(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClock()
	store := NewFSStore(dir, "/uploads/", clock)
	accountID := uuid.New()

	url, err := store.Save(context.Background(), accountID, ".PNG", []byte("png-bytes"))
	require.NoError(t, err)

	expectedName := fmt.Sprintf("%s-%d.png", accountID, clock.Now().UnixNano())
	assert.Equal(t, "/uploads/"+expectedName, url)

	data, err := os.ReadFile(filepath.Join(dir, expectedName))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestFSStore_SaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	store := NewFSStore(dir, "/uploads", clockwork.NewFakeClock())

	_, err := store.Save(context.Background(), uuid.New(), "jpg", []byte("jpg-bytes"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFSStore_RejectsUnknownExtension(t *testing.T) {
	store := NewFSStore(t.TempDir(), "/uploads", clockwork.NewFakeClock())

	url, err := store.Save(context.Background(), uuid.New(), "gif", []byte("gif-bytes"))
	assert.Error(t, err)
	assert.Empty(t, url)
}

func TestFSStore_FreshNamePerUpload(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewFSStore(t.TempDir(), "/uploads", clock)
	accountID := uuid.New()
	ctx := context.Background()

	first, err := store.Save(ctx, accountID, "png", []byte("one"))
	require.NoError(t, err)

	clock.Advance(1)

	second, err := store.Save(ctx, accountID, "png", []byte("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
