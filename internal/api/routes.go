package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hostcampaign/site/internal/config"
)

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// SetupRoutes configures the site: health probes, the Contact-MP JSON API,
// the server-rendered wizard and the static content with SPA fallback.
func SetupRoutes(cfg config.ServerConfig, h *Handlers, hc *HealthChecker) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// Server identity header - distinguishes real server from stub API
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Identity", "hostcampaign-site-v1.0")
			w.Header().Set("X-Server-Binary", "cmd/server")
			next.ServeHTTP(w, req)
		})
	})

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks
	r.Get("/health", hc.HandleHealth)
	r.Get("/health/live", hc.HandleLiveness)
	r.Get("/health/ready", hc.HandleReadiness)

	r.Route("/api/contact-mp", func(r chi.Router) {
		r.Get("/concerns", h.ListConcerns)
		r.Post("/sessions", h.CreateSession)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Put("/postcode", h.SetPostcode)
			r.Post("/lookup", h.Lookup)
			r.Post("/concerns/{concern}/toggle", h.ToggleConcern)
			r.Put("/narrative", h.SetNarrative)
			r.Post("/generate", h.Generate)
			r.Get("/fields/{field}", h.CopyField)
			r.Get("/mailto", h.Mailto)
			r.Post("/restart", h.Restart)
		})
	})

	// Server-rendered wizard for browsers without JavaScript
	r.Route("/contact-mp", func(r chi.Router) {
		r.Get("/", h.Page)
		r.Post("/lookup", h.PageLookup)
		r.Post("/generate", h.PageGenerate)
		r.Post("/restart", h.PageRestart)
		r.Get("/mailto", h.PageMailto)
		r.Get("/copy/{field}", h.PageCopy)
	})

	// Serve static files for the campaign content (SPA with fallback to index.html)
	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = "./web/dist"
	}
	spaHandler(r, staticDir)

	return r
}

// spaHandler serves static files and falls back to index.html for SPA routing
func spaHandler(r chi.Router, staticPath string) {
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path

		// Skip API routes
		if strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/health") {
			http.NotFound(w, req)
			return
		}

		// Try to serve the file directly
		filePath := filepath.Join(staticPath, filepath.Clean("/"+path))
		if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
			http.ServeFile(w, req, filePath)
			return
		}

		// For SPA routing, serve index.html for unknown paths
		indexPath := filepath.Join(staticPath, "index.html")
		http.ServeFile(w, req, indexPath)
	})
}
