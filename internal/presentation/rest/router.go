package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig configures cross-cutting HTTP behaviour.
type RouterConfig struct {
	AllowedOrigins []string
}

// NewRouter wires the HTTP surface. metrics may be nil.
func NewRouter(
	cfg RouterConfig,
	health *HealthHandler,
	predictions *PredictionHandler,
	metrics http.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(LoggingMiddleware(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/", health.Root)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Post("/predict", predictions.Predict)
	r.Post("/predict/detailed", predictions.PredictDetailed)

	return r
}
