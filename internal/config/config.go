package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Risk prediction providers.
const (
	RiskProviderTree   = "tree"
	RiskProviderOpenAI = "openai"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseDriver         string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventsSubject          string
	UploadRoot             string
	SubmissionRoot         string
	ClassesFile            string
	MaxUploadMB            int
	JWTSecret              string
	JWTTTL                 time.Duration
	SearchCacheTTL         time.Duration
	RiskProvider           string
	RiskModelPath          string
	OpenAIAPIKey           string
	OpenAIModel            string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// CloudinaryEnabled reports whether submission files go to Cloudinary.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LEARNGAP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Learning Gap API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "learning_gap.db")
	v.SetDefault("events.subject", "learngap")
	v.SetDefault("storage.upload_root", "uploads")
	v.SetDefault("storage.submission_root", "uploads/submissions")
	v.SetDefault("storage.classes_file", "classes_subjects.json")
	v.SetDefault("storage.max_upload_mb", 50)
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("search.cache_ttl", "5m")
	v.SetDefault("risk.provider", RiskProviderTree)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("cloudinary.folder", "learngap/submissions")

	jwtTTL, err := parseDuration(v, "jwt.ttl")
	if err != nil {
		return Config{}, err
	}
	searchTTL, err := parseDuration(v, "search.cache_ttl")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseDriver:         strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventsSubject:          v.GetString("events.subject"),
		UploadRoot:             v.GetString("storage.upload_root"),
		SubmissionRoot:         v.GetString("storage.submission_root"),
		ClassesFile:            v.GetString("storage.classes_file"),
		MaxUploadMB:            v.GetInt("storage.max_upload_mb"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTTL:                 jwtTTL,
		SearchCacheTTL:         searchTTL,
		RiskProvider:           strings.ToLower(strings.TrimSpace(v.GetString("risk.provider"))),
		RiskModelPath:          v.GetString("risk.model_path"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		OpenAIModel:            v.GetString("openai.model"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	switch cfg.RiskProvider {
	case RiskProviderTree:
	case RiskProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("openai api key must be provided for the openai risk provider")
		}
	default:
		return Config{}, fmt.Errorf("unsupported risk provider %q", cfg.RiskProvider)
	}

	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 50
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(key))
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
