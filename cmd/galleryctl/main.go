// Command galleryctl runs maintenance tasks against the gallery database
// and image storage.
package main

import (
	"os"

	"github.com/artgallery/gallery-api/internal/config"
	"github.com/artgallery/gallery-api/internal/pkg/database"
	"github.com/artgallery/gallery-api/internal/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Output: os.Stderr})

	e := &env{cfg: cfg, out: os.Stdout}
	err := rootCommand(e).Execute()
	database.Close(e.db)
	if err != nil {
		os.Exit(1)
	}
}
