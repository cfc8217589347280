package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/web-transcriber/backend/internal/api/handlers"
	"github.com/web-transcriber/backend/internal/api/middleware"
	"github.com/web-transcriber/backend/internal/config"
	"github.com/web-transcriber/backend/internal/job"
	"github.com/web-transcriber/backend/internal/model"
)

func NewRouter(cfg *config.Config, store *job.Store, engine *job.Engine, models *model.Manager) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))

	// Handlers
	uploadHandler := handlers.NewUploadHandler(store, engine, models, cfg.UploadPath, cfg.DefaultTask)
	jobHandler := handlers.NewJobHandler(store)
	downloadHandler := handlers.NewDownloadHandler(store)
	modelHandler := handlers.NewModelHandler(models)
	healthHandler := handlers.NewHealthHandler(models)

	uploadLimiter := middleware.NewRateLimiter(30, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		r.With(uploadLimiter.Handler).Post("/upload", uploadHandler.Upload)

		r.Get("/jobs", jobHandler.List)
		r.Get("/jobs/{id}", jobHandler.Status)
		r.Delete("/jobs/{id}", jobHandler.Delete)

		r.Get("/download/{id}/{format}", downloadHandler.Download)

		r.Get("/models", modelHandler.List)
		r.With(middleware.MaxBodySize(64 * 1024)).Post("/models", modelHandler.Switch)
	})

	return r
}
