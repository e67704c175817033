package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"elearning/backend/config"
	"elearning/backend/events"
	"elearning/backend/mailer"
	"elearning/backend/media"
	"elearning/backend/middleware"
	"elearning/backend/payment"
	"elearning/backend/repository"
	"elearning/backend/routes"
	"elearning/backend/services"
	"elearning/backend/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(cfg.IsProduction())
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize database
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalw("Error initializing database", "driver", cfg.DBDriver, "error", err)
	}

	storage, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Fatalw("Error initializing media storage", "driver", cfg.StorageDriver, "error", err)
	}

	var publisher events.Publisher = events.NewLog(logger)
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Infow("publishing events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	var mail mailer.Mailer = mailer.NewConsole(cfg.MailFromAddress, logger)
	if cfg.MailDriver == "sendgrid" {
		mail = mailer.NewSendGrid(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromAddress)
	}

	gateway := payment.NewPayOS(payment.PayOSConfig{
		ClientID:    cfg.PayOSClientID,
		APIKey:      cfg.PayOSAPIKey,
		ChecksumKey: cfg.PayOSChecksumKey,
		BaseURL:     cfg.PayOSBaseURL,
	}, logger)

	svc := services.New(services.Deps{
		Store:   store,
		Cfg:     cfg,
		Mailer:  mail,
		Events:  publisher,
		Storage: storage,
		Gateway: gateway,
		Logger:  logger,
	})
	if err := svc.Users.SeedSuperAdmin(ctx); err != nil {
		logger.Fatalw("Error seeding super admin", "error", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnw("redis unreachable, rate limiting per process until it recovers", "error", err)
		}
	}
	limiter := middleware.NewRateLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow, logger)

	// Create Fiber app
	app := routes.NewApp(cfg, logger, middleware.NewMetrics())

	// Setup routes
	routes.SetupRoutes(app, cfg, svc, storage, limiter, logger)

	go func() {
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logger.Fatalw("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdown(shutdownCtx, logger, func(ctx context.Context) error { return app.ShutdownWithContext(ctx) },
		store.Close,
		func(context.Context) error { return publisher.Close() },
		func(context.Context) error {
			if rdb == nil {
				return nil
			}
			return rdb.Close()
		},
	)
}

func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	if cfg.DBDriver == "mongo" {
		client, db, err := utils.InitMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureIndexes(ctx, db); err != nil {
			return nil, err
		}
		return repository.NewMongoStore(client, db), nil
	}

	db, err := utils.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := repository.AutoMigrate(db); err != nil {
		return nil, err
	}
	return repository.NewGormStore(db), nil
}

func openStorage(ctx context.Context, cfg *config.Config) (media.Storage, error) {
	if cfg.StorageDriver == "s3" {
		return media.NewS3(ctx, media.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	}
	return media.NewLocal(cfg.UploadDir)
}

// shutdown runs every closer in order and logs the failures.
func shutdown(ctx context.Context, logger *zap.SugaredLogger, closers ...func(context.Context) error) {
	for _, c := range closers {
		if err := c(ctx); err != nil {
			logger.Errorw("shutdown", "error", err)
		}
	}
}
