package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestFileStoreUploadAndOpen(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "/submissions")

	rel, err := store.Upload(context.Background(), "12/3/1700000000-essay.pdf", strings.NewReader("essay"))
	require.NoError(t, err)
	require.Equal(t, "12/3/1700000000-essay.pdf", rel)

	file, info, err := store.Open(rel)
	require.NoError(t, err)
	defer file.Close()
	require.Equal(t, int64(5), info.Size())

	body, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "essay", string(body))
}

func TestFileStoreRejectsUnsafeKeys(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "/submissions")

	for _, key := range []string{"12/../../etc/passwd", "12//essay.pdf", ".."} {
		_, err := store.Upload(context.Background(), key, strings.NewReader("x"))
		require.ErrorIs(t, err, ErrInvalidSegment, key)
	}

	_, _, err := store.Open("../outside.txt")
	require.ErrorIs(t, err, ErrPathOutsideRoot)
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "/submissions")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upload(ctx, "1/1/a.txt", strings.NewReader("x"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestFileStoreFailedUploadLeavesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "/submissions")

	_, err := store.Upload(context.Background(), "12/3/essay.pdf", &failingReader{})
	require.Error(t, err)

	entries, err := afero.ReadDir(fs, "/submissions/12/3")
	require.NoError(t, err)
	require.Empty(t, entries)
}
