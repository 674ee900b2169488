// Package dashboard serves the local JSON API used to manage bots: the
// stored list, the current selection, editing sessions and quick actions.
package dashboard

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/edgard/telebot/internal/editor"
	"github.com/edgard/telebot/internal/gemini"
	"github.com/edgard/telebot/internal/logger"
	"github.com/edgard/telebot/internal/metrics"
	"github.com/edgard/telebot/internal/store"
	"github.com/edgard/telebot/internal/telegram"
)

// Deps groups the collaborators of a Server.
type Deps struct {
	Store  *store.Store
	Client telegram.Client
	// Generator is nil when content generation is disabled.
	Generator gemini.Client
	// NewEditor opens an editing session for existing, or a new bot.
	NewEditor    func(existing *store.BotRecord) *editor.Editor
	HelloMessage string
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// Server is the dashboard HTTP API.
type Server struct {
	deps Deps
	log  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*editor.Editor
}

// New creates a Server.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{
		deps:     deps,
		log:      deps.Logger.With("component", "dashboard"),
		sessions: make(map[string]*editor.Editor),
	}
}

// Handler builds the chi router with every route wired.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth())
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		r.Get("/bots", s.handleListBots())
		r.Route("/bots/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetBot())
			r.Delete("/", s.handleDeleteBot())
			r.Post("/hello", s.handleSayHello())
			r.Get("/link", s.handleBotLink())
		})

		r.Get("/selected", s.handleGetSelected())
		r.Put("/selected/{id}", s.handleSelect())

		r.Post("/editors", s.handleOpenEditor())
		r.Route("/editors/{sid}", func(r chi.Router) {
			r.Get("/", s.handleEditorSnapshot())
			r.Put("/token", s.handleEditorToken())
			r.Put("/description", s.handleEditorDescription())
			r.Delete("/chat", s.handleEditorClearChat())
			r.Post("/test", s.handleEditorTest())
			r.Post("/save", s.handleEditorSave())
			r.Delete("/", s.handleEditorClose())
		})

		r.Post("/generate", s.handleGenerate())
	})

	return r
}

// Close ends every open editing session.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*editor.Editor)
	s.mu.Unlock()

	for _, e := range sessions {
		e.Close()
	}
}
