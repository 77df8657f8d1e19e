// Package http provides the HTTP delivery layer for the URL shortener service.
// It routes requests to the use case, validates input and renders JSON responses.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shorturl/docs"
	"github.com/vadimbarashkov/shorturl/pkg/middleware/recoverer"

	httpSwagger "github.com/swaggo/http-swagger"
)

const swaggerPath = "/docs/swagger.yml"

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the URL shortener API.
// Trailing slashes are stripped before routing, so /stats/abc123/ and /stats/abc123 are the same route.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))
	r.Use(middleware.StripSlashes)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(swaggerPath),
	))

	r.Get(swaggerPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(docs.Swagger)
	})

	r.Get("/ping", handlePing)

	h := newURLHandler(urlUseCase, validator.New())

	r.Post("/shorten", h.shortenURL)
	r.Put("/shorten/{shortCode}", h.modifyURL)
	r.Get("/stats/{shortCode}", h.getURLStats)

	r.Get("/{shortCode}", h.redirect)
	r.Delete("/{shortCode}", h.deactivateURL)

	return r
}
