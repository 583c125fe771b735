// Package server provides the HTTP server and routing for the flowsheet
// processor UI shell.
package server

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/config"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/database"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/events"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/modules/configurations"
	confighandlers "github.com/watertap-org/idaes-flowsheet-processor-ui/internal/modules/configurations/handlers"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/modules/results"
	resultshandlers "github.com/watertap-org/idaes-flowsheet-processor-ui/internal/modules/results/handlers"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/internal/modules/system"
	"github.com/watertap-org/idaes-flowsheet-processor-ui/pkg/embedded"
)

// Config holds server configuration
type Config struct {
	Log      zerolog.Logger
	DB       *database.DB
	Config   *config.Config
	EventBus *events.Bus
	History  *configurations.History
	Snapshot *configurations.Snapshot
	Port     int
	DevMode  bool
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	db       *database.DB
	cfg      *config.Config
	eventBus *events.Bus
	history  *configurations.History
	snapshot *configurations.Snapshot
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	// Register common MIME types to ensure correct Content-Type headers
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".mjs", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		db:       cfg.DB,
		cfg:      cfg.Config,
		eventBus: cfg.EventBus,
		history:  cfg.History,
		snapshot: cfg.Snapshot,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	allowedOrigins := []string{"*"}
	if devMode {
		// The Vite dev server runs on its own origin during development
		allowedOrigins = []string{s.cfg.DevOrigin, "http://localhost:" + fmt.Sprint(s.cfg.Port)}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check (before SPA routing)
	s.router.Get("/health", s.handleHealth)

	resultsClient := results.NewClient(s.cfg.SolverServiceURL, s.log)
	resultsHandler := resultshandlers.NewHandler(resultsClient, s.eventBus, s.log)

	configRepo := configurations.NewRepository(s.db.Conn(), s.log)
	saveClient := configurations.NewClient(s.cfg.SolverServiceURL, s.log)
	configHandler := confighandlers.NewHandler(s.history, configRepo, saveClient, s.eventBus, s.log)
	if s.snapshot != nil {
		snapshot := s.snapshot
		history := s.history
		log := s.log
		configHandler.SetOnSaved(func() {
			if err := snapshot.Write(history); err != nil {
				log.Warn().Err(err).Msg("Failed to write history snapshot")
			}
		})
	}

	systemHandlers := system.NewHandlers(s.log)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Event stream (SSE)
		eventsStreamHandler := NewEventsStreamHandler(s.eventBus, s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		r.Route("/flowsheets/{id}", func(r chi.Router) {
			r.Get("/results", resultsHandler.HandleGetView)
			r.Get("/results/fragment", resultsHandler.HandleGetFragment)

			r.Get("/config-name", configHandler.HandleGetName)
			r.Put("/config-name", configHandler.HandleSetName)

			r.Post("/configs", configHandler.HandleSave)
			r.Get("/configs", configHandler.HandleList)
			r.Delete("/configs/{name}", configHandler.HandleDelete)

			r.Post("/history/draft", configHandler.HandleAppendDraft)
		})

		r.Post("/results/render", resultsHandler.HandleRender)
		r.Get("/history", configHandler.HandleGetHistory)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", systemHandlers.HandleStatus)
		})
	})

	// Embedded frontend (SPA with index fallback)
	s.setupFrontend()
}

// setupFrontend serves the embedded frontend, falling back to index.html for
// non-API paths so client-side routing works.
func (s *Server) setupFrontend() {
	frontendFS, err := fs.Sub(embedded.Files, "frontend/dist")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create frontend filesystem from embedded files")
		return
	}

	fileServer := http.FileServer(http.FS(frontendFS))

	s.router.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path != "" {
			if f, err := frontendFS.Open(path); err == nil {
				f.Close()
				s.assetsHandler(fileServer).ServeHTTP(w, r)
				return
			}
		}
		s.serveIndex(w, frontendFS)
	})
}

// serveIndex writes the embedded index.html.
func (s *Server) serveIndex(w http.ResponseWriter, frontendFS fs.FS) {
	indexFile, err := frontendFS.Open("index.html")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to open embedded index.html")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}
	defer indexFile.Close()

	data, err := io.ReadAll(indexFile)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read embedded index.html")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to write index.html response")
	}
}

// assetsHandler wraps the file server to set correct MIME types
func (s *Server) assetsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ext := filepath.Ext(r.URL.Path)
		contentType := mime.TypeByExtension(ext)
		if contentType == "" {
			switch ext {
			case ".js", ".mjs":
				contentType = "application/javascript"
			case ".css":
				contentType = "text/css"
			case ".json":
				contentType = "application/json"
			case ".svg":
				contentType = "image/svg+xml"
			default:
				contentType = "application/octet-stream"
			}
		}
		w.Header().Set("Content-Type", contentType)
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router returns the chi router, used by handler tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
