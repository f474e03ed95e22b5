package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/artgallery/gallery-api/internal/config"
	"github.com/artgallery/gallery-api/internal/domain/artwork"
	"github.com/artgallery/gallery-api/internal/domain/upload"
	"github.com/artgallery/gallery-api/internal/pkg/database"
	"github.com/artgallery/gallery-api/internal/pkg/logger"
	"github.com/artgallery/gallery-api/internal/pkg/storage"
)

const defaultInterval = 15 * time.Minute

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().Msg("Starting orphan sweeper")

	dsn, err := cfg.DSN()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database configuration")
	}
	db, err := database.Open(cfg.DBDriver, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

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

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = defaultInterval
	}

	sweeper := upload.NewSweeper(store, artwork.NewRepository(db), upload.SweeperConfig{
		Grace:    cfg.SweepGrace,
		Interval: interval,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional: Redis pub/sub wake-up (polling still runs)
	wake := make(chan struct{}, 1)
	if rdb != nil {
		go subscribeWakeups(ctx, rdb, wake)
	}

	sweeper.StartWithWakeups(wake)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	log.Info().Msg("Shutdown signal received")

	cancel()
	sweeper.Stop()
	log.Info().Msg("sweeper stopped")
}

func subscribeWakeups(ctx context.Context, rdb *redis.Client, wake chan<- struct{}) {
	sub := rdb.Subscribe(ctx, upload.SweepChannel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			// non-blocking wake-up
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}
