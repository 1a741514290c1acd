package storage

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestAllowedExtension(t *testing.T) {
	cases := map[string]bool{
		"report":          false,
		"report.PDF":      true,
		"notes.txt":       true,
		"essay.Docx":      true,
		"archive.tar.doc": true,
		"photo.png":       false,
		"report.":         false,
		".pdf":            true,
		"script.pdf.exe":  false,
	}

	for name, expected := range cases {
		require.Equal(t, expected, AllowedExtension(name), name)
	}
}

func TestAllowedExtensionsDisplayOrder(t *testing.T) {
	exts := AllowedExtensions()
	require.Equal(t, []string{"pdf", "txt", "doc", "docx"}, exts)

	exts[0] = "exe"
	require.False(t, AllowedExtension("virus.exe"))
}

func TestSanitizeFileName(t *testing.T) {
	require.Equal(t, "passwd", SanitizeFileName("../../etc/passwd"))
	require.Equal(t, "My_Report.pdf", SanitizeFileName("My Report.pdf"))
	require.Equal(t, "evil.doc", SanitizeFileName(`C:\temp\evil.doc`))
	require.Equal(t, "", SanitizeFileName("..."))
}

func TestValidSegment(t *testing.T) {
	require.True(t, ValidSegment("8"))
	require.True(t, ValidSegment("2024-01-15"))
	require.False(t, ValidSegment(""))
	require.False(t, ValidSegment(".."))
	require.False(t, ValidSegment("a/b"))
	require.False(t, ValidSegment(" padded "))
}

func TestContentStoreSaveAndList(t *testing.T) {
	store := NewContentStore(afero.NewMemMapFs(), "/uploads")

	rel, err := store.SaveNotes("8", "Math", "2024-01-15", "chapter 1")
	require.NoError(t, err)
	require.Equal(t, "8/Math/2024-01-15/notes.txt", rel)

	rel, err = store.SaveFile("8", "Math", "2024-01-15", "worksheet.pdf", strings.NewReader("pdf"))
	require.NoError(t, err)
	require.Equal(t, "8/Math/2024-01-15/worksheet.pdf", rel)

	_, err = store.SaveFile("8", "Math", "2024-01-10", "older.pdf", strings.NewReader("pdf"))
	require.NoError(t, err)

	classes, err := store.Classes()
	require.NoError(t, err)
	require.Equal(t, []string{"8"}, classes)

	dates, exists, err := store.Dates("8", "Math")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, []string{"2024-01-10", "2024-01-15"}, dates)

	files, err := store.Files("8", "Math", "2024-01-15")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"notes.txt", "worksheet.pdf"}, files)

	_, exists, err = store.Dates("8", "History")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestContentStoreSubjectsSkipsFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewContentStore(fs, "/uploads")
	require.NoError(t, fs.MkdirAll("/uploads/8/Math", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/uploads/8/readme.txt", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/uploads/stray.txt", []byte("x"), 0o644))

	subjects, err := store.Subjects("8")
	require.NoError(t, err)
	require.Equal(t, []string{"Math"}, subjects)

	classes, err := store.Classes()
	require.NoError(t, err)
	require.Equal(t, []string{"8"}, classes)

	missing, err := store.Subjects("12")
	require.NoError(t, err)
	require.Empty(t, missing)
}

func TestContentStoreSaveRejectsTraversalSegments(t *testing.T) {
	store := NewContentStore(afero.NewMemMapFs(), "/uploads")

	_, err := store.SaveFile("..", "Math", "2024-01-01", "a.pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrInvalidSegment)

	_, err = store.SaveFile("8", "Math/../../x", "2024-01-01", "a.pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrInvalidSegment)
}

func TestContentStoreOpenGuardsRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewContentStore(fs, "/uploads")
	require.NoError(t, afero.WriteFile(fs, "/secret.txt", []byte("top secret"), 0o644))
	_, err := store.SaveFile("8", "Math", "2024-01-15", "worksheet.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)

	file, info, err := store.Open("8/Math/2024-01-15/worksheet.pdf")
	require.NoError(t, err)
	defer file.Close()
	require.Equal(t, "worksheet.pdf", info.Name())
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "pdf-bytes", string(body))

	_, _, err = store.Open("../secret.txt")
	require.ErrorIs(t, err, ErrPathOutsideRoot)

	_, _, err = store.Open("8/../../secret.txt")
	require.ErrorIs(t, err, ErrPathOutsideRoot)

	_, _, err = store.Open("8/Math/2024-01-15/missing.pdf")
	require.ErrorIs(t, err, ErrFileNotFound)

	_, _, err = store.Open("8/Math")
	require.ErrorIs(t, err, ErrFileNotFound)

	_, _, err = store.Open("")
	require.ErrorIs(t, err, ErrFileNotFound)
}

// failingReader yields some bytes and then an error, like an upload that
// trips the size limit midway.
type failingReader struct {
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, errors.New("stream broken")
	}
	r.sent = true
	return copy(p, "partial"), nil
}

func TestContentStoreFailedWriteLeavesNothing(t *testing.T) {
	store := NewContentStore(afero.NewMemMapFs(), "/uploads")

	_, err := store.SaveFile("8", "Math", "2024-01-15", "worksheet.pdf", &failingReader{})
	require.Error(t, err)

	files, err := store.Files("8", "Math", "2024-01-15")
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestContentStoreFailedWriteKeepsPreviousVersion(t *testing.T) {
	store := NewContentStore(afero.NewMemMapFs(), "/uploads")

	rel, err := store.SaveFile("8", "Math", "2024-01-15", "worksheet.pdf", strings.NewReader("v1"))
	require.NoError(t, err)

	_, err = store.SaveFile("8", "Math", "2024-01-15", "worksheet.pdf", &failingReader{})
	require.Error(t, err)

	file, _, err := store.Open(rel)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "v1", string(body))

	files, err := store.Files("8", "Math", "2024-01-15")
	require.NoError(t, err)
	require.Equal(t, []string{"worksheet.pdf"}, files)
}

func TestContentStoreRemove(t *testing.T) {
	store := NewContentStore(afero.NewMemMapFs(), "/uploads")

	_, err := store.SaveNotes("8", "Math", "2024-01-15", "chapter 1")
	require.NoError(t, err)

	require.NoError(t, store.Remove("8", "Math", "2024-01-15", NotesFileName))
	require.NoError(t, store.Remove("8", "Math", "2024-01-15", NotesFileName))
	require.ErrorIs(t, store.Remove("8", "..", "2024-01-15", NotesFileName), ErrInvalidSegment)

	files, err := store.Files("8", "Math", "2024-01-15")
	require.NoError(t, err)
	require.Empty(t, files)
}
