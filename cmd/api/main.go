package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/flagforge/flagforge-api/internal/config"
	"github.com/flagforge/flagforge-api/internal/database"
	"github.com/flagforge/flagforge-api/internal/handler"
	"github.com/flagforge/flagforge-api/internal/middleware"
	"github.com/flagforge/flagforge-api/internal/models"
	"github.com/flagforge/flagforge-api/internal/repository"
	"github.com/flagforge/flagforge-api/internal/router"
	"github.com/flagforge/flagforge-api/internal/service"
	"github.com/flagforge/flagforge-api/internal/vault"
	cloud "github.com/flagforge/flagforge-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	flagVault, err := vault.New(cfg.FlagEncryptionKey)
	if err != nil {
		log.Fatalf("failed to initialize flag vault: %v", err)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Challenge{},
		&models.Hint{},
		&models.ChallengeFile{},
		&models.Solve{},
		&models.Submission{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, leaderboard caching disabled")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, solve feed disabled")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	challengeRepo := repository.NewChallengeRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)

	solveFeed := service.NewSolveFeed(natsConn, cfg.SolveFeedSubject, logger)
	scoringService := service.NewScoringService(challengeRepo, submissionRepo, userRepo, flagVault, solveFeed, validate, logger)
	challengeService := service.NewChallengeService(challengeRepo, userRepo, flagVault, validate, logger)
	leaderboardService := service.NewLeaderboardService(userRepo, submissionRepo, redisClient, cfg.LeaderboardCacheTTL, logger)
	userService := service.NewUserService(userRepo, leaderboardService, validate, logger)
	seedService := service.NewSeedService(challengeRepo, userRepo, flagVault, cfg.SeedEnabled, cfg.SeedToken, logger)

	deps := router.Dependencies{
		ChallengeHandler:   handler.NewChallengeHandler(challengeService, scoringService, logger),
		LeaderboardHandler: handler.NewLeaderboardHandler(leaderboardService, logger),
		UserHandler:        handler.NewUserHandler(userService, logger),
		SeedHandler:        handler.NewSeedHandler(seedService, logger),
	}

	// Attachments need Cloudinary credentials; the rest of the API works
	// without them.
	if cfg.CloudinaryCloudName != "" {
		storage, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploadService := service.NewUploadService(storage, cfg.UploadMaxSizeMB, logger)
		deps.UploadHandler = handler.NewUploadHandler(uploadService, service.NewAdminVerifier(userRepo), logger)
	} else {
		logger.Warn().Msg("cloudinary not configured, attachment uploads disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, deps)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
