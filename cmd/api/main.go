package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/artgallery/gallery-api/internal/config"
	"github.com/artgallery/gallery-api/internal/domain/analytics"
	"github.com/artgallery/gallery-api/internal/domain/artwork"
	"github.com/artgallery/gallery-api/internal/domain/comment"
	"github.com/artgallery/gallery-api/internal/domain/realtime"
	"github.com/artgallery/gallery-api/internal/domain/upload"
	"github.com/artgallery/gallery-api/internal/pkg/cache"
	"github.com/artgallery/gallery-api/internal/pkg/database"
	"github.com/artgallery/gallery-api/internal/pkg/imaging"
	"github.com/artgallery/gallery-api/internal/pkg/logger"
	"github.com/artgallery/gallery-api/internal/pkg/metrics"
	"github.com/artgallery/gallery-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("db_driver", cfg.DBDriver).
		Msg("Starting gallery API")

	dsn, err := cfg.DSN()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database configuration")
	}
	db, err := database.Open(cfg.DBDriver, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)

	if cfg.AutoMigrate {
		applied, err := database.NewMigrator(db).Run(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		log.Info().Strs("applied", applied).Msg("Migrations complete")
	}

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	m, err := metrics.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	store, err := storage.New(storage.Config{
		Driver:      cfg.StorageDriver,
		LocalPath:   cfg.UploadDir,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create image storage")
	}

	yearSource, err := analytics.ParseYearSource(cfg.AnalyticsYearSource)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ANALYTICS_YEAR_SOURCE")
	}

	// ---------- Repositories ----------
	artworkRepo := artwork.NewRepository(db)
	commentRepo := comment.NewRepository(db)
	analyticsRepo := analytics.NewRepository(db)

	// ---------- WebSocket hub ----------
	hub := realtime.NewHub(redis, m)
	go hub.Run()

	// ---------- Services ----------
	uploadService := upload.NewService(store, imaging.NewProcessor(imaging.DefaultConfig()), cfg.UploadMaxBytes, m)
	analyticsService := analytics.NewService(analyticsRepo, cache.New(redis, cfg.AnalyticsCacheTTL), cfg.AnalyticsCacheTTL, yearSource, m)

	// Without an in-process sweeper, wake-ups still go to standalone sweepers via Redis
	var sweeper *upload.Sweeper
	trigger := newSweepTrigger(redis)

	artworkService := artwork.NewService(artworkRepo, uploadService, artwork.Publishers{
		hub,
		analyticsInvalidator(analyticsService),
		trigger,
	}, m)

	commentService := comment.NewService(commentRepo, artworkRepo)
	commentService.SetChangeNotifier(analyticsService)

	if cfg.SweepInterval > 0 {
		sweeper = upload.NewSweeper(store, artworkService, upload.SweeperConfig{
			Grace:    cfg.SweepGrace,
			Interval: cfg.SweepInterval,
		}, m)
		sweeper.StartWithWakeups(trigger.Local())
	}

	// ---------- Router ----------
	r := newRouter(routerConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        m,
		DB:             db,
		Upload:         upload.NewHandler(uploadService),
		Artworks:       artwork.NewHandler(artworkService, cfg.UploadMaxBytes),
		Comments:       comment.NewHandler(commentService),
		Analytics:      analytics.NewHandler(analyticsService),
		Realtime:       realtime.NewHandler(hub, cfg.AllowedOrigins),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if sweeper != nil {
		sweeper.Stop()
	}
	hub.Shutdown()

	log.Info().Msg("Server exited properly")
}
