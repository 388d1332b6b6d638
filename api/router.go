package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/openclaw/qrform/metrics"
	"github.com/openclaw/qrform/render"
	"github.com/openclaw/qrform/session"
	"github.com/openclaw/qrform/store"
)

// Server holds the dependencies for all HTTP handlers.
type Server struct {
	Sessions  *session.Manager
	Encoder   render.Encoder
	Options   render.Options
	History   *store.HistoryStore // nil when history is disabled
	Metrics   *metrics.Metrics
	Log       *slog.Logger
	Version   string
	StartTime time.Time
}

// NewRouter returns a fully configured chi router with all routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)
	r.Use(requestLogger(s.Log))

	// Form UI
	r.Get("/", s.handlePage)

	// Form sessions
	r.Post("/sessions", s.handleCreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleDeleteSession)
		r.Put("/text", s.handleSetText)
		r.Post("/generate", s.handleGenerate)
		r.Get("/download", s.handleDownload)
	})

	// Stateless render
	r.Get("/qr.png", s.handleQRImage)

	// Service
	r.Get("/status", s.handleStatus)
	r.Get("/history", s.handleHistory)
	r.Get("/history/search", s.handleSearchHistory)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	return r
}

// --- helpers ----------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// --- middleware --------------------------------------------------------------

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}
}
