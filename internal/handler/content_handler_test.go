package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learning-gap-api/internal/dto"
)

func uploadFields(class, subject, date, content string) map[string]string {
	return map[string]string{
		"class_name": class,
		"subject":    subject,
		"date":       date,
		"content":    content,
	}
}

func TestContentUploadBrowseAndDownload(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.doMultipart(t, "/api/v1/content", "", uploadFields("7A", "Math", "2024-03-01", "Fractions: use <b> tags & 3 < 5"),
		formFile{field: "file", name: "worksheet.pdf", content: []byte("%PDF-1.4 worksheet")})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var uploaded dto.ContentUploadResponse
	body := decodeData(t, resp, &uploaded)
	require.Equal(t, "Content uploaded successfully!", body.Message)
	require.Len(t, uploaded.Files, 2)

	resp = env.doMultipart(t, "/api/v1/content", "", uploadFields("8B", "Science", "2024-03-02", "Cells"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/content", nil), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var entries []dto.ContentEntry
	decodeData(t, resp, &entries)
	require.Len(t, entries, 2)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/content?class=7A&subject=ALL", nil), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, resp, &entries)
	require.Len(t, entries, 1)
	require.Equal(t, "Math", entries[0].Subject)
	require.Equal(t, []dto.ContentFile{
		{Name: "notes.txt", Path: "7A/Math/2024-03-01/notes.txt"},
		{Name: "worksheet.pdf", Path: "7A/Math/2024-03-01/worksheet.pdf"},
	}, entries[0].Files)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/content?class=9C&subject=Math", nil), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, resp, &entries)
	require.Empty(t, entries)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/download/7A/Math/2024-03-01/notes.txt", nil), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "notes.txt")
	require.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "Fractions: use <b> tags & 3 < 5", string(data))
}

func TestContentDownloadRejectsTraversal(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.doMultipart(t, "/api/v1/content", "", uploadFields("7A", "Math", "2024-03-01", "notes"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	for _, path := range []string{
		"/api/v1/download/..%2F..%2Fclasses_subjects.json",
		"/api/v1/download/7A/Math/2024-03-01/missing.pdf",
		"/api/v1/download/7A/Math",
	} {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, path, nil), "")
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode, path)
	}
}

func TestContentUploadValidationMessages(t *testing.T) {
	env := setupTestEnv(t)

	cases := []struct {
		name    string
		fields  map[string]string
		files   []formFile
		message string
	}{
		{
			name:    "missing date",
			fields:  uploadFields("7A", "Math", "", "notes"),
			message: "Please fill in all required fields (Class, Subject, Date)",
		},
		{
			name:    "nothing to store",
			fields:  uploadFields("7A", "Math", "2024-03-01", "   "),
			message: "Please either write notes or upload a file",
		},
		{
			name:    "disallowed extension",
			fields:  uploadFields("7A", "Math", "2024-03-01", "notes"),
			files:   []formFile{{field: "file", name: "virus.exe", content: []byte("MZ")}},
			message: "File type not allowed. Please use: PDF, TXT, DOC, DOCX",
		},
		{
			name:    "attachment named like the notes",
			fields:  uploadFields("7A", "Math", "2024-03-01", "notes"),
			files:   []formFile{{field: "file", name: "Notes.TXT", content: []byte("other")}},
			message: "an attached file cannot be named notes.txt when notes are written",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.doMultipart(t, "/api/v1/content", "", tc.fields, tc.files...)
			require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			var body envelope
			decodeResponse(t, resp, &body)
			require.False(t, body.Success)
			require.Equal(t, tc.message, body.Message)
		})
	}

	// the rejected upload with notes must not have written them
	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/content", nil), "")
	var entries []dto.ContentEntry
	decodeData(t, resp, &entries)
	require.Empty(t, entries)
}

func TestContentSearchRecordsPopularQueries(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "sinta", "student")

	resp := env.doMultipart(t, "/api/v1/content", "", uploadFields("7A", "Biology", "2024-04-01", "Photosynthesis"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	for i := 0; i < 2; i++ {
		resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/content/search?q=bio", nil), token)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	var result dto.ContentSearchResponse
	decodeData(t, resp, &result)
	require.Equal(t, "bio", result.Query)
	require.Len(t, result.Results, 1)

	// anonymous searches are answered but not recorded
	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/content/search?q=algebra", nil), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/searches/popular", nil), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var popular []dto.PopularSearch
	decodeData(t, resp, &popular)
	require.Equal(t, []dto.PopularSearch{{Query: "bio", Count: 2}}, popular)
}

func TestCatalogMergesIndexAndFolders(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.doMultipart(t, "/api/v1/content", "", uploadFields("7A", "Math", "2024-03-01", "notes"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPost, "/api/v1/catalog", "", map[string]interface{}{
		"class_name": "7A",
		"subjects":   []string{"History", "Math"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPost, "/api/v1/catalog", "", map[string]interface{}{
		"class_name": "ALL",
		"subjects":   []string{"Art"},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.doJSON(t, http.MethodPost, "/api/v1/catalog", "", map[string]interface{}{
		"class_name": "8B",
		"subjects":   []string{},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var catalog map[string][]string
	decodeData(t, resp, &catalog)
	require.Equal(t, map[string][]string{"7A": {"History", "Math"}}, catalog)
}
