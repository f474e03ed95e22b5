package main

import (
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/artgallery/gallery-api/internal/config"
	"github.com/artgallery/gallery-api/internal/pkg/database"
	"github.com/artgallery/gallery-api/internal/pkg/storage"
)

// env carries the connections shared by every subcommand. Tests fill db
// and store up front; otherwise they are opened from cfg on first use.
type env struct {
	cfg   *config.Config
	db    *sqlx.DB
	store storage.Storage
	out   io.Writer
}

func (e *env) database() (*sqlx.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	dsn, err := e.cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(e.cfg.DBDriver, dsn)
	if err != nil {
		return nil, err
	}
	e.db = db
	return db, nil
}

func (e *env) storage() (storage.Storage, error) {
	if e.store != nil {
		return e.store, nil
	}
	st, err := storage.New(storage.Config{
		Driver:      e.cfg.StorageDriver,
		LocalPath:   e.cfg.UploadDir,
		S3Endpoint:  e.cfg.S3Endpoint,
		S3Region:    e.cfg.S3Region,
		S3Bucket:    e.cfg.S3Bucket,
		S3AccessKey: e.cfg.S3AccessKey,
		S3SecretKey: e.cfg.S3SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	e.store = st
	return st, nil
}

// rootCommand creates and returns the root command
func rootCommand(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "galleryctl",
		Short:         "Gallery API maintenance CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.SetOut(e.out)
	rootCmd.AddCommand(
		migrateCommand(e),
		sweepCommand(e),
		statsCommand(e),
	)

	return rootCmd
}
