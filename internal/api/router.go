package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/scrapiee/scrapiee/internal/config"
	"github.com/scrapiee/scrapiee/internal/models"
)

// NewRouter assembles the HTTP surface: health probe without auth, the
// scraping API behind bearer auth and per-client rate limiting. The
// caller owns the limiter's lifecycle.
func NewRouter(h *Handlers, limiter *RateLimiter, cfg config.ServerConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(models.MaxTimeout + 10*time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(Auth(cfg.APIKey))
		r.Use(limiter.Middleware)

		r.Post("/scrape", h.Scrape)
		r.Route("/browser", func(r chi.Router) {
			r.Get("/status", h.BrowserStatus)
			r.Post("/restart", h.BrowserRestart)
		})
	})

	return r
}
