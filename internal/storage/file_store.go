package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FileStore keeps submission attachments on a filesystem below root. Keys
// are forward-slash paths whose every segment must pass ValidSegment.
type FileStore struct {
	fs   afero.Fs
	root string
}

// NewFileStore wraps fs, treating root as the top of the attachment tree.
func NewFileStore(fs afero.Fs, root string) *FileStore {
	return &FileStore{fs: fs, root: filepath.Clean(root)}
}

// NewOSFileStore creates the root directory on disk when missing.
func NewOSFileStore(root string) (*FileStore, error) {
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create submission root: %w", err)
	}
	return NewFileStore(fs, root), nil
}

// Upload writes reader under key and returns the stored relative path.
func (s *FileStore) Upload(ctx context.Context, key string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key = strings.Trim(key, "/")
	segments := strings.Split(key, "/")
	for _, segment := range segments {
		if !ValidSegment(segment) {
			return "", fmt.Errorf("%w: %q", ErrInvalidSegment, segment)
		}
	}

	full := filepath.Join(append([]string{s.root}, segments...)...)
	if err := s.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	if err := writeAtomic(s.fs, full, reader); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return path.Join(segments...), nil
}

// Open resolves a stored relative path with the same guard as ContentStore.
func (s *FileStore) Open(relPath string) (afero.File, os.FileInfo, error) {
	return openUnder(s.fs, s.root, relPath)
}
