package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/tendant/simple-deck/pkg/simpledeck/api"
	"github.com/tendant/simple-deck/pkg/simpledeck/config"
	"github.com/tendant/simple-deck/pkg/simpledeck/store"
)

// HTTPServer wraps the document service for HTTP access
type HTTPServer struct {
	service *store.Service
	config  *config.ServerConfig
	logger  *slog.Logger
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(service *store.Service, serverConfig *config.ServerConfig, logger *slog.Logger) *HTTPServer {
	return &HTTPServer{
		service: service,
		config:  serverConfig,
		logger:  logger,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// The browser client is served from another origin during development
	if s.config.Environment == "development" {
		r.Use(devCORS)
	}

	r.Get("/healthz", s.handleHealth)
	r.Mount("/api", api.NewFilesHandler(s.service, s.logger).Routes())

	return r
}

func devCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status":   "ok",
		"database": s.config.DatabaseType,
		"storage":  s.config.Storage.Type,
	})
}
