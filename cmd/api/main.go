package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/noah-isme/learning-gap-api/internal/config"
	"github.com/noah-isme/learning-gap-api/internal/database"
	"github.com/noah-isme/learning-gap-api/internal/events"
	"github.com/noah-isme/learning-gap-api/internal/handler"
	"github.com/noah-isme/learning-gap-api/internal/middleware"
	"github.com/noah-isme/learning-gap-api/internal/repository"
	"github.com/noah-isme/learning-gap-api/internal/router"
	"github.com/noah-isme/learning-gap-api/internal/service"
	"github.com/noah-isme/learning-gap-api/internal/storage"
	"github.com/noah-isme/learning-gap-api/pkg/ai"
	"github.com/noah-isme/learning-gap-api/pkg/classifier"
	cloud "github.com/noah-isme/learning-gap-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "learning-gap-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis disabled: popular searches are not cached")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	contentStore, err := storage.NewOSContentStore(cfg.UploadRoot)
	if err != nil {
		logger.Fatal().Err(err).Str("root", cfg.UploadRoot).Msg("failed to prepare upload root")
	}
	classIndex := storage.NewClassIndex(afero.NewOsFs(), cfg.ClassesFile, logger)

	submissionFiles, err := submissionStorage(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare submission storage")
	}

	predictor, err := riskPredictor(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.RiskProvider).Msg("failed to load risk predictor")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	publisher := events.NewBrokerPublisher(redisClient, natsConn, cfg.EventsSubject, logger)

	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	searchRepo := repository.NewSearchRepository(db)
	riskRepo := repository.NewRiskAssessmentRepository(db)

	searchService := service.NewSearchService(searchRepo, redisClient, cfg.SearchCacheTTL, logger)
	contentService := service.NewContentService(service.ContentServiceConfig{
		Store:     contentStore,
		Index:     classIndex,
		Searches:  searchService,
		Events:    publisher,
		Validator: validate,
		MaxSizeMB: cfg.MaxUploadMB,
		Logger:    logger,
	})
	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.JWTTTL, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, validate, publisher, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, validate, submissionFiles, publisher, cfg.MaxUploadMB, logger)
	progressService := service.NewProgressService(progressRepo, validate, logger)
	riskService := service.NewRiskService(predictor, riskRepo, publisher, logger)
	rosterService := service.NewRosterService(userRepo, submissionRepo, riskRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.MaxUploadMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		CatalogHandler:    handler.NewCatalogHandler(contentService, logger),
		ContentHandler:    handler.NewContentHandler(contentService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		ProgressHandler:   handler.NewProgressHandler(progressService, logger),
		SearchHandler:     handler.NewSearchHandler(searchService, logger),
		RiskHandler:       handler.NewRiskHandler(riskService, logger),
		RosterHandler:     handler.NewRosterHandler(rosterService, logger),
		HealthProbes:      healthProbes(db, redisClient, natsConn),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("env", cfg.AppEnv).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func submissionStorage(cfg config.Config, logger zerolog.Logger) (service.FileStorage, error) {
	if cfg.CloudinaryEnabled() {
		logger.Info().Str("folder", cfg.CloudinaryUploadFolder).Msg("submission files stored on cloudinary")
		return cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
	}
	return storage.NewOSFileStore(cfg.SubmissionRoot)
}

func riskPredictor(cfg config.Config, logger zerolog.Logger) (service.RiskPredictor, error) {
	if cfg.RiskProvider == config.RiskProviderOpenAI {
		return ai.NewOpenAIClassifier(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
	}

	var (
		forest *classifier.Forest
		err    error
	)
	if cfg.RiskModelPath != "" {
		forest, err = classifier.Load(afero.NewOsFs(), cfg.RiskModelPath)
	} else {
		forest, err = classifier.Default()
	}
	if err != nil {
		return nil, err
	}
	logger.Info().Str("model_version", forest.Version()).Msg("risk model loaded")
	return forest, nil
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return errors.New("nats disconnected")
			}
			return nil
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
