package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"autocamper/internal/ads"
	"autocamper/internal/config"
	"autocamper/internal/events"
	"autocamper/internal/listings"
	"autocamper/internal/logging"
	"autocamper/internal/storage"
	"autocamper/internal/vision"
)

// Handlers groups the endpoint handlers mounted by New.
type Handlers struct {
	Venues    listings.Handler
	Vision    vision.Handler
	Campaigns ads.Handler
	Ledger    storage.Handler
	Events    *events.Broker
}

// New constructs the HTTP server with routes and middleware.
func New(cfg config.Config, logger zerolog.Logger, h Handlers) *http.Server {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      Router(cfg.HTTP.AllowedOrigins, logger, h),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server ready")
	return srv
}

// Router builds the chi router on its own so tests can drive it directly.
func Router(allowedOrigins []string, logger zerolog.Logger, h Handlers) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.Middleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(CORS(allowedOrigins))

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Get("/venue/{id}", h.Venues.Get)
	router.Post("/edit", h.Vision.Edit)
	router.Post("/upscale", h.Vision.Upscale)
	router.Get("/gen-campaign", h.Campaigns.Generate)
	router.Post("/gen-campaign", h.Campaigns.Generate)
	router.Route("/campaigns", func(r chi.Router) {
		r.Get("/", h.Ledger.List)
		r.Get("/{id}", h.Ledger.Get)
	})
	if h.Events != nil {
		router.Get("/events", h.Events.Stream)
	}

	return router
}
