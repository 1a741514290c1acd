package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether all credentials are present.
func (c Config) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Service stores submission attachments on Cloudinary as raw assets.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "cloudinary").Logger(),
		now:    time.Now,
	}, nil
}

// Upload sends the file to Cloudinary and returns a secure URL. Slashes in
// key become sub-folders below the configured folder.
func (s *Service) Upload(ctx context.Context, key string, reader io.Reader) (string, error) {
	folder, publicID := splitKey(s.folder, key, s.now())

	params := uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "raw",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("file uploaded to cloudinary")

	return result.SecureURL, nil
}

// splitKey maps "12/3/essay.pdf" under folder "learngap" to folder
// "learngap/12/3" and a public id that keeps the extension, since raw assets
// are served under their public id.
func splitKey(base, key string, now time.Time) (string, string) {
	key = strings.Trim(strings.ReplaceAll(key, "\\", "/"), "/")
	dir, file := path.Split(key)

	folder := strings.Trim(path.Join(strings.Trim(base, "/"), dir), "/")

	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	stem = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '-'
	}, stem)
	stem = strings.Trim(stem, "-")
	if stem == "" {
		stem = fmt.Sprintf("upload-%d", now.Unix())
	}

	return folder, stem + strings.ToLower(ext)
}
