package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/learning-gap-api/internal/config"
	"github.com/noah-isme/learning-gap-api/internal/database"
	"github.com/noah-isme/learning-gap-api/internal/handler"
	"github.com/noah-isme/learning-gap-api/internal/repository"
	"github.com/noah-isme/learning-gap-api/internal/router"
	"github.com/noah-isme/learning-gap-api/internal/service"
	"github.com/noah-isme/learning-gap-api/internal/storage"
	"github.com/noah-isme/learning-gap-api/pkg/classifier"
)

const testJWTSecret = "handler-test-secret"

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	fs  afero.Fs
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:handler_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := database.Connect(database.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	fs := afero.NewMemMapFs()
	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	searchRepo := repository.NewSearchRepository(db)
	riskRepo := repository.NewRiskAssessmentRepository(db)

	forest, err := classifier.Default()
	require.NoError(t, err)

	searchService := service.NewSearchService(searchRepo, nil, time.Minute, logger)
	contentService := service.NewContentService(service.ContentServiceConfig{
		Store:     storage.NewContentStore(fs, "/uploads"),
		Index:     storage.NewClassIndex(fs, "/classes_subjects.json", logger),
		Searches:  searchService,
		Validator: validate,
		MaxSizeMB: 1,
		Logger:    logger,
	})
	authService := service.NewAuthService(userRepo, validate, testJWTSecret, time.Hour, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, validate, nil, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, validate, storage.NewFileStore(fs, "/submissions"), nil, 1, logger)
	progressService := service.NewProgressService(progressRepo, validate, logger)
	riskService := service.NewRiskService(forest, riskRepo, nil, logger)
	rosterService := service.NewRosterService(userRepo, submissionRepo, riskRepo, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", AppEnv: "test", JWTSecret: testJWTSecret}, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		CatalogHandler:    handler.NewCatalogHandler(contentService, logger),
		ContentHandler:    handler.NewContentHandler(contentService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		ProgressHandler:   handler.NewProgressHandler(progressService, logger),
		SearchHandler:     handler.NewSearchHandler(searchService, logger),
		RiskHandler:       handler.NewRiskHandler(riskService, logger),
		RosterHandler:     handler.NewRosterHandler(rosterService, logger),
		AuthRateLimit:     1000,
	})

	return &testEnv{app: app, db: db, fs: fs}
}

// registerAndLogin creates an account and returns its bearer token.
func (e *testEnv) registerAndLogin(t *testing.T, username, role string) string {
	t.Helper()

	resp := e.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":   username,
		"password":   "secret123",
		"email":      username + "@school.test",
		"role":       role,
		"name":       "Name " + username,
		"class_name": "7A",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = e.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &login))
	require.NotEmpty(t, login.Token)
	return login.Token
}

func (e *testEnv) do(t *testing.T, req *http.Request, token string) *http.Response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req, token)
}

type formFile struct {
	field   string
	name    string
	content []byte
}

func (e *testEnv) doMultipart(t *testing.T, path, token string, fields map[string]string, files ...formFile) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.field, file.name)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.do(t, req, token)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func decodeData(t *testing.T, resp *http.Response, target interface{}) envelope {
	t.Helper()
	var body envelope
	decodeResponse(t, resp, &body)
	if target != nil {
		require.NoError(t, json.Unmarshal(body.Data, target))
	}
	return body
}
