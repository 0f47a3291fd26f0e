// Package api is the HTTP surface of the deck engine: upload, structure
// inspection, expansion, search and artifact downloads over a chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/qixuan-zhu/deckagent"
)

// Options carries the server-level settings that sit outside the engine
// configuration.
type Options struct {
	// APIKey, when set, gates every /api route behind bearer auth.
	APIKey string
	// CORSOrigins, when set, is sent as Access-Control-Allow-Origin.
	CORSOrigins string
	// UploadDir is where uploaded deck files are stored.
	UploadDir string
	// MaxUpload is the upload size limit in bytes.
	MaxUpload int64
}

// Server routes HTTP requests onto a deckagent engine.
type Server struct {
	router chi.Router
	engine deckagent.Engine
	opts   Options
}

// NewServer creates and configures the HTTP server.
func NewServer(engine deckagent.Engine, opts Options) *Server {
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = 100 << 20
	}
	s := &Server{engine: engine, opts: opts}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(requestLogger)
	if s.opts.CORSOrigins != "" {
		r.Use(corsHeaders(s.opts.CORSOrigins))
	}

	// Public endpoints.
	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.opts.APIKey != "" {
			r.Use(bearerAuth(s.opts.APIKey))
		}
		r.Route("/api", func(r chi.Router) {
			r.Post("/upload", s.handleUpload)
			r.Post("/search", s.handleSearch)
			r.Get("/stats", s.handleStats)
			r.Route("/decks", func(r chi.Router) {
				r.Get("/", s.handleListDecks)
				r.Route("/{deckID}", func(r chi.Router) {
					r.Get("/", s.handleGetDeck)
					r.Delete("/", s.handleDeleteDeck)
					r.Get("/outline", s.handleOutline)
					r.Get("/slides/{index}", s.handleGetSlide)
					r.Post("/expand", s.handleExpand)
					r.Get("/expansions", s.handleExpansions)
					r.Post("/reindex", s.handleReindex)
					r.Get("/download", s.handleDownload)
				})
			})
		})
	})

	s.router = r
}
