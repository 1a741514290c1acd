package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/afero"
)

// NotesFileName is the file a teacher's free-text notes are written to.
const NotesFileName = "notes.txt"

var (
	// ErrFileNotFound indicates the requested file does not exist under the root.
	ErrFileNotFound = errors.New("file not found")
	// ErrPathOutsideRoot indicates a requested path resolves outside the upload root.
	ErrPathOutsideRoot = errors.New("path escapes upload root")
	// ErrInvalidSegment indicates a class, subject or date name cannot be used as a folder.
	ErrInvalidSegment = errors.New("invalid folder name")
)

// allowedExtensions lists the document types accepted for course material,
// in the order they are shown to users.
var allowedExtensions = []string{"pdf", "txt", "doc", "docx"}

// AllowedExtensions returns the accepted extensions in display order.
func AllowedExtensions() []string {
	return append([]string(nil), allowedExtensions...)
}

// AllowedExtension reports whether the text after the last dot of name is on
// the allow-list, ignoring case. Names without a dot are never allowed.
func AllowedExtension(name string) bool {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return false
	}
	ext := strings.ToLower(name[idx+1:])
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// SanitizeFileName strips directory components and anything outside
// [A-Za-z0-9._-] from an uploaded file name. Whitespace becomes '_'.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		case unicode.IsSpace(r):
			return '_'
		default:
			return -1
		}
	}, name)
	return strings.Trim(name, "._")
}

// ValidSegment reports whether value can be used as one folder level.
func ValidSegment(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed != value {
		return false
	}
	if trimmed == "." || trimmed == ".." {
		return false
	}
	return !strings.ContainsAny(trimmed, `/\`)
}

// ContentStore is the upload tree {root}/{class}/{subject}/{date}/{file}.
type ContentStore struct {
	fs   afero.Fs
	root string
}

// NewContentStore wraps fs, treating root as the top of the upload tree.
func NewContentStore(fs afero.Fs, root string) *ContentStore {
	return &ContentStore{fs: fs, root: filepath.Clean(root)}
}

// NewOSContentStore creates the root directory on disk when missing.
func NewOSContentStore(root string) (*ContentStore, error) {
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return NewContentStore(fs, root), nil
}

// Classes lists class folders under the root in ascending order.
func (s *ContentStore) Classes() ([]string, error) {
	return s.listDirs(s.root)
}

// Subjects lists subject folders of one class. A missing class yields none.
func (s *ContentStore) Subjects(class string) ([]string, error) {
	return s.listDirs(filepath.Join(s.root, class))
}

// Dates lists date folders of one (class, subject) pair in ascending lexical
// order. The boolean is false when the pair has no folder at all.
func (s *ContentStore) Dates(class, subject string) ([]string, bool, error) {
	dir := filepath.Join(s.root, class, subject)
	exists, err := afero.DirExists(s.fs, dir)
	if err != nil || !exists {
		return nil, false, err
	}

	dates, err := s.listDirs(dir)
	if err != nil {
		return nil, true, err
	}
	return dates, true, nil
}

// Files lists the regular files of one date folder, without recursing.
func (s *ContentStore) Files(class, subject, date string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, filepath.Join(s.root, class, subject, date))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// SaveNotes writes (or replaces) notes.txt of a date folder.
func (s *ContentStore) SaveNotes(class, subject, date, text string) (string, error) {
	return s.SaveFile(class, subject, date, NotesFileName, strings.NewReader(text))
}

// SaveFile stores an attachment, creating folders on demand. It returns the
// forward-slash path of the file relative to the root.
func (s *ContentStore) SaveFile(class, subject, date, name string, reader io.Reader) (string, error) {
	for _, segment := range []string{class, subject, date, name} {
		if !ValidSegment(segment) {
			return "", fmt.Errorf("%w: %q", ErrInvalidSegment, segment)
		}
	}

	dir := filepath.Join(s.root, class, subject, date)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}

	if err := writeAtomic(s.fs, filepath.Join(dir, name), reader); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return RelativePath(class, subject, date, name), nil
}

// Remove deletes one stored file of a date folder. A missing file is not an error.
func (s *ContentStore) Remove(class, subject, date, name string) error {
	for _, segment := range []string{class, subject, date, name} {
		if !ValidSegment(segment) {
			return fmt.Errorf("%w: %q", ErrInvalidSegment, segment)
		}
	}

	err := s.fs.Remove(filepath.Join(s.root, class, subject, date, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// writeAtomic streams reader into a temporary file beside full and renames it
// into place once complete. A failed write leaves no file behind and keeps any
// previous content of full.
func writeAtomic(fs afero.Fs, full string, reader io.Reader) error {
	tmp, err := afero.TempFile(fs, filepath.Dir(full), "."+filepath.Base(full)+".*.part")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return err
	}
	if err := fs.Chmod(tmpName, 0o644); err != nil {
		_ = fs.Remove(tmpName)
		return err
	}
	if err := fs.Rename(tmpName, full); err != nil {
		_ = fs.Remove(tmpName)
		return err
	}
	return nil
}

// Open resolves a root-relative path for download. Paths that leave the root
// after cleaning are refused; directories count as not found.
func (s *ContentStore) Open(relPath string) (afero.File, os.FileInfo, error) {
	return openUnder(s.fs, s.root, relPath)
}

func openUnder(fs afero.Fs, root, relPath string) (afero.File, os.FileInfo, error) {
	full, err := resolveUnder(root, relPath)
	if err != nil {
		return nil, nil, err
	}

	info, err := fs.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, nil, ErrFileNotFound
	}

	file, err := fs.Open(full)
	if err != nil {
		return nil, nil, err
	}
	return file, info, nil
}

func resolveUnder(root, relPath string) (string, error) {
	trimmed := strings.TrimSpace(relPath)
	if trimmed == "" {
		return "", ErrFileNotFound
	}

	full := filepath.Clean(filepath.Join(root, filepath.FromSlash(trimmed)))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathOutsideRoot
	}
	return full, nil
}

func (s *ContentStore) listDirs(dir string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// RelativePath joins path segments with forward slashes.
func RelativePath(segments ...string) string {
	return path.Join(segments...)
}
