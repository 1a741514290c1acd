package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/events"
	"github.com/noah-isme/learning-gap-api/internal/observability"
	"github.com/noah-isme/learning-gap-api/internal/storage"
)

// SelectAll is the selector value that matches every class or subject.
const SelectAll = "ALL"

var (
	// ErrContentFieldsRequired indicates class, subject or date was left empty.
	ErrContentFieldsRequired = errors.New("class, subject and date are required")
	// ErrContentRequired indicates an upload carried neither notes nor a file.
	ErrContentRequired = errors.New("notes or a file is required")
	// ErrFileTypeNotAllowed indicates the attachment extension is not accepted.
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrInvalidContentPath indicates a class, subject or date cannot name a folder.
	ErrInvalidContentPath = errors.New("class, subject and date must be plain folder names")
	// ErrReservedName indicates a class or subject collides with the wildcard.
	ErrReservedName = errors.New("ALL is reserved and cannot name a class or subject")
	// ErrNotesNameConflict indicates an attachment would overwrite the notes
	// written by the same upload.
	ErrNotesNameConflict = errors.New("an attached file cannot be named notes.txt when notes are written")
	// ErrFileNotFound indicates a download path does not name a stored file.
	ErrFileNotFound = errors.New("file not found")
)

// SearchRecorder stores a user's search query.
type SearchRecorder interface {
	Record(ctx context.Context, userID uint, query string) error
}

// DownloadFile is an opened file ready to stream to a client.
type DownloadFile struct {
	Name     string
	Size     int64
	MimeType string
	ModTime  time.Time
	Reader   io.ReadCloser
}

// ContentService resolves, lists and stores course material.
type ContentService interface {
	Resolve(ctx context.Context, classSel, subjectSel string) ([]dto.ContentEntry, error)
	Catalog(ctx context.Context) (map[string][]string, error)
	AddToCatalog(ctx context.Context, payload dto.CatalogUpdateRequest) (map[string][]string, error)
	Upload(ctx context.Context, payload dto.ContentUploadRequest, file *multipart.FileHeader) (dto.ContentUploadResponse, error)
	Search(ctx context.Context, userID *uint, query string) ([]dto.ContentEntry, error)
	Open(ctx context.Context, relPath string) (DownloadFile, error)
}

type contentService struct {
	store     *storage.ContentStore
	index     *storage.ClassIndex
	searches  SearchRecorder
	events    events.Publisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	maxSize   int64
}

// ContentServiceConfig groups the collaborators of the content service.
// Searches and Events are optional.
type ContentServiceConfig struct {
	Store     *storage.ContentStore
	Index     *storage.ClassIndex
	Searches  SearchRecorder
	Events    events.Publisher
	Validator *validator.Validate
	MaxSizeMB int
	Logger    zerolog.Logger
}

// NewContentService constructs the content service.
func NewContentService(cfg ContentServiceConfig) ContentService {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 50
	}
	return &contentService{
		store:     cfg.Store,
		index:     cfg.Index,
		searches:  cfg.Searches,
		events:    cfg.Events,
		validator: cfg.Validator,
		logger:    cfg.Logger.With().Str("component", "content_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/learning-gap-api/internal/service/content"),
		maxSize:   int64(cfg.MaxSizeMB) * 1024 * 1024,
	}
}

func (s *contentService) Resolve(ctx context.Context, classSel, subjectSel string) ([]dto.ContentEntry, error) {
	classSel = normalizeSelector(classSel)
	subjectSel = normalizeSelector(subjectSel)

	_, span := s.tracer.Start(ctx, "content.resolve", trace.WithAttributes(
		attribute.String("content.class", classSel),
		attribute.String("content.subject", subjectSel),
	))
	defer span.End()

	for _, selector := range []string{classSel, subjectSel} {
		if selector != SelectAll && !storage.ValidSegment(selector) {
			span.SetStatus(codes.Error, "invalid selector")
			return nil, ErrInvalidContentPath
		}
	}

	observability.ContentQueries().WithLabelValues(selectorScope(classSel), selectorScope(subjectSel)).Inc()

	var classes []string
	if classSel == SelectAll {
		found, err := s.store.Classes()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "list classes failed")
			return nil, fmt.Errorf("list classes: %w", err)
		}
		classes = found
	} else {
		classes = []string{classSel}
	}

	entries := make([]dto.ContentEntry, 0)
	for _, class := range classes {
		subjects := []string{subjectSel}
		if subjectSel == SelectAll {
			found, err := s.store.Subjects(class)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "list subjects failed")
				return nil, fmt.Errorf("list subjects of %s: %w", class, err)
			}
			subjects = found
		}

		for _, subject := range subjects {
			resolved, err := s.resolvePair(class, subject)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "list dates failed")
				return nil, err
			}
			entries = append(entries, resolved...)
		}
	}

	observability.ContentEntries().Observe(float64(len(entries)))
	span.SetAttributes(attribute.Int("content.entries", len(entries)))
	return entries, nil
}

// resolvePair lists one (class, subject) folder. A missing folder yields no
// entries; a date folder that cannot be listed is skipped and logged.
func (s *contentService) resolvePair(class, subject string) ([]dto.ContentEntry, error) {
	dates, exists, err := s.store.Dates(class, subject)
	if err != nil {
		return nil, fmt.Errorf("list dates of %s/%s: %w", class, subject, err)
	}
	if !exists {
		return nil, nil
	}

	entries := make([]dto.ContentEntry, 0, len(dates))
	for _, date := range dates {
		names, err := s.store.Files(class, subject, date)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("class", class).
				Str("subject", subject).
				Str("date", date).
				Msg("skipping unreadable date folder")
			continue
		}

		files := make([]dto.ContentFile, 0, len(names))
		for _, name := range names {
			files = append(files, dto.ContentFile{
				Name: name,
				Path: storage.RelativePath(class, subject, date, name),
			})
		}

		entries = append(entries, dto.ContentEntry{
			Class:   class,
			Subject: subject,
			Date:    date,
			Files:   files,
		})
	}
	return entries, nil
}

func (s *contentService) Catalog(ctx context.Context) (map[string][]string, error) {
	_, span := s.tracer.Start(ctx, "content.catalog")
	defer span.End()

	classes, err := s.store.Classes()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list classes: %w", err)
	}

	observed := make(map[string][]string, len(classes))
	for _, class := range classes {
		subjects, err := s.store.Subjects(class)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("list subjects of %s: %w", class, err)
		}
		observed[class] = subjects
	}

	return storage.MergeCatalog(observed, s.index.Load()), nil
}

func (s *contentService) AddToCatalog(ctx context.Context, payload dto.CatalogUpdateRequest) (map[string][]string, error) {
	payload.ClassName = strings.TrimSpace(payload.ClassName)
	for i := range payload.Subjects {
		payload.Subjects[i] = strings.TrimSpace(payload.Subjects[i])
	}

	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}
	if err := checkFolderNames(append([]string{payload.ClassName}, payload.Subjects...)...); err != nil {
		return nil, err
	}

	if _, err := s.index.Add(payload.ClassName, payload.Subjects...); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeCatalogUpdated, map[string]interface{}{
		"class":    payload.ClassName,
		"subjects": payload.Subjects,
	})

	return s.Catalog(ctx)
}

func (s *contentService) Upload(ctx context.Context, payload dto.ContentUploadRequest, file *multipart.FileHeader) (dto.ContentUploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "content.upload")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	reject := func(reason string, err error) (dto.ContentUploadResponse, error) {
		observability.UploadRejected().WithLabelValues(reason).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return dto.ContentUploadResponse{}, err
	}

	class := strings.TrimSpace(payload.ClassName)
	subject := strings.TrimSpace(payload.Subject)
	date := strings.TrimSpace(payload.Date)
	if class == "" || subject == "" || date == "" {
		return reject("fields", ErrContentFieldsRequired)
	}
	if err := checkFolderNames(class, subject, date); err != nil {
		return reject("path", err)
	}

	span.SetAttributes(
		attribute.String("content.class", class),
		attribute.String("content.subject", subject),
		attribute.String("content.date", date),
	)

	notes := strings.TrimSpace(payload.Content)
	hasFile := file != nil && strings.TrimSpace(file.Filename) != ""
	if notes == "" && !hasFile {
		return reject("empty", ErrContentRequired)
	}

	var fileName string
	if hasFile {
		fileName = storage.SanitizeFileName(file.Filename)
		if !storage.AllowedExtension(file.Filename) || !storage.AllowedExtension(fileName) {
			return reject("type", ErrFileTypeNotAllowed)
		}
		if notes != "" && strings.EqualFold(fileName, storage.NotesFileName) {
			return reject("name", ErrNotesNameConflict)
		}
		if file.Size > s.maxSize {
			return reject("size", ErrUploadTooLarge)
		}
		span.SetAttributes(
			attribute.String("upload.original_name", file.Filename),
			attribute.String("upload.sanitized_name", fileName),
			attribute.Int64("upload.request_size", file.Size),
		)
	}

	response := dto.ContentUploadResponse{
		Class:   class,
		Subject: subject,
		Date:    date,
		Files:   make([]dto.ContentFile, 0, 2),
		Message: "Content uploaded successfully!",
	}

	// The attachment goes first so a rejected stream never leaves notes behind.
	var attachment *dto.ContentFile
	if hasFile {
		rel, err := s.saveAttachment(class, subject, date, fileName, file)
		if err != nil {
			if errors.Is(err, ErrUploadTooLarge) {
				return reject("size", err)
			}
			return reject("storage", err)
		}
		attachment = &dto.ContentFile{Name: fileName, Path: rel}
	}

	if notes != "" {
		rel, err := s.store.SaveNotes(class, subject, date, notes)
		if err != nil {
			if attachment != nil {
				if rmErr := s.store.Remove(class, subject, date, fileName); rmErr != nil {
					s.logger.Warn().Err(rmErr).Str("path", attachment.Path).Msg("failed to roll back attachment")
				}
			}
			return reject("storage", err)
		}
		observability.Uploads().WithLabelValues("notes").Inc()
		response.Files = append(response.Files, dto.ContentFile{Name: storage.NotesFileName, Path: rel})
	}

	if attachment != nil {
		observability.Uploads().WithLabelValues("file").Inc()
		response.Files = append(response.Files, *attachment)
	}

	s.logger.Info().
		Str("class", class).
		Str("subject", subject).
		Str("date", date).
		Int("files", len(response.Files)).
		Msg("content uploaded")

	s.publish(ctx, events.TypeContentUploaded, response)
	span.SetStatus(codes.Ok, "stored")

	return response, nil
}

func (s *contentService) saveAttachment(class, subject, date, name string, file *multipart.FileHeader) (string, error) {
	handle, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer handle.Close()

	reader := &limitedReader{reader: handle, remaining: s.maxSize}
	rel, err := s.store.SaveFile(class, subject, date, name, reader)
	if err != nil {
		if reader.exceeded {
			return "", ErrUploadTooLarge
		}
		return "", err
	}
	return rel, nil
}

func (s *contentService) Search(ctx context.Context, userID *uint, query string) ([]dto.ContentEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []dto.ContentEntry{}, nil
	}

	if userID != nil && s.searches != nil {
		if err := s.searches.Record(ctx, *userID, query); err != nil {
			return nil, err
		}
	}

	entries, err := s.Resolve(ctx, SelectAll, SelectAll)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := make([]dto.ContentEntry, 0)
	for _, entry := range entries {
		if containsFold(needle, entry.Class, entry.Subject, entry.Date) {
			matches = append(matches, entry)
			continue
		}

		files := make([]dto.ContentFile, 0)
		for _, file := range entry.Files {
			if containsFold(needle, file.Name) {
				files = append(files, file)
			}
		}
		if len(files) > 0 {
			entry.Files = files
			matches = append(matches, entry)
		}
	}

	return matches, nil
}

func (s *contentService) Open(ctx context.Context, relPath string) (DownloadFile, error) {
	_, span := s.tracer.Start(ctx, "content.download", trace.WithAttributes(
		attribute.String("content.path", relPath),
	))
	defer span.End()

	file, info, err := s.store.Open(relPath)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileNotFound), errors.Is(err, storage.ErrPathOutsideRoot):
			span.SetStatus(codes.Error, "not found")
			if errors.Is(err, storage.ErrPathOutsideRoot) {
				s.logger.Warn().Str("path", relPath).Msg("download path escapes upload root")
			}
			return DownloadFile{}, ErrFileNotFound
		default:
			span.RecordError(err)
			return DownloadFile{}, err
		}
	}

	return openedDownload(file, info)
}

func openedDownload(file io.ReadSeekCloser, info os.FileInfo) (DownloadFile, error) {
	mime, err := mimetype.DetectReader(file)
	if err != nil {
		_ = file.Close()
		return DownloadFile{}, fmt.Errorf("detect content type: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return DownloadFile{}, fmt.Errorf("rewind file: %w", err)
	}

	return DownloadFile{
		Name:     info.Name(),
		Size:     info.Size(),
		MimeType: mime.String(),
		ModTime:  info.ModTime(),
		Reader:   file,
	}, nil
}

func (s *contentService) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

func normalizeSelector(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return SelectAll
	}
	return value
}

func selectorScope(value string) string {
	if value == SelectAll {
		return "all"
	}
	return "single"
}

func checkFolderNames(names ...string) error {
	for _, name := range names {
		if name == SelectAll {
			return ErrReservedName
		}
		if !storage.ValidSegment(name) {
			return ErrInvalidContentPath
		}
	}
	return nil
}

func containsFold(needle string, values ...string) bool {
	for _, value := range values {
		if strings.Contains(strings.ToLower(value), needle) {
			return true
		}
	}
	return false
}

// limitedReader fails once more than remaining bytes have been read.
type limitedReader struct {
	reader    io.Reader
	remaining int64
	exceeded  bool
}

func (r *limitedReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.remaining -= int64(n)
	if r.remaining < 0 {
		r.exceeded = true
		return n, ErrUploadTooLarge
	}
	return n, err
}
