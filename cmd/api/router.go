package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"

	"github.com/artgallery/gallery-api/internal/domain/analytics"
	"github.com/artgallery/gallery-api/internal/domain/artwork"
	"github.com/artgallery/gallery-api/internal/domain/comment"
	"github.com/artgallery/gallery-api/internal/domain/realtime"
	"github.com/artgallery/gallery-api/internal/domain/upload"
	"github.com/artgallery/gallery-api/internal/middleware"
	"github.com/artgallery/gallery-api/internal/pkg/metrics"
	pkgresponse "github.com/artgallery/gallery-api/internal/pkg/response"
)

const version = "1.0.0"

type routerConfig struct {
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	DB             *sqlx.DB

	Upload    *upload.Handler
	Artworks  *artwork.Handler
	Comments  *comment.Handler
	Analytics *analytics.Handler
	Realtime  *realtime.Handler
}

func newRouter(cfg routerConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	// WebSocket endpoint (before Compress)
	if cfg.Realtime != nil {
		r.Get("/ws", cfg.Realtime.WebSocket)
	}

	r.Get("/health", healthHandler(cfg.DB))

	// Images are already compressed
	r.Mount("/uploads", cfg.Upload.FileRoutes())

	// Compress for everything else
	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Route("/api", func(r chi.Router) {
			r.Mount("/upload", cfg.Upload.Routes())
			r.Mount("/artworks", cfg.Artworks.Routes(cfg.Comments.Mount))
			r.Mount("/analytics", cfg.Analytics.Routes())
		})
	})

	return r
}

func healthHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				status = "database unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		pkgresponse.JSON(w, code, map[string]string{
			"status":  status,
			"version": version,
		})
	}
}
