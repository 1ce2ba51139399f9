package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/okuznet/zametki/internal/handler"
	"github.com/okuznet/zametki/internal/middleware"
	"github.com/okuznet/zametki/internal/note"
	"github.com/okuznet/zametki/internal/store"
	ws "github.com/okuznet/zametki/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	homeH        *handler.HomeHandler
	authH        *handler.AuthHandler
	noteH        *handler.NoteHandler
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	noteStore := store.NewNoteStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)

	noteService := note.NewService(noteStore)

	return &Server{
		db:           db,
		hub:          hub,
		homeH:        handler.NewHomeHandler(logger.With("component", "home")),
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		noteH:        handler.NewNoteHandler(noteService, hub, logger.With("component", "note")),
		sessionStore: sessionStore,
		userStore:    userStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /{$}", s.homeH.Home)
	outerMux.HandleFunc("GET /auth/login/{$}", s.authH.LoginPage)
	outerMux.HandleFunc("POST /auth/login/{$}", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /auth/signup/{$}", s.authH.SignupPage)
	outerMux.HandleFunc("POST /auth/signup/{$}", s.rateLimitedHandler(s.authH.Signup))
	outerMux.HandleFunc("POST /auth/logout/{$}", s.authH.Logout)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /notes/{$}", s.noteH.List)
	mux.HandleFunc("GET /notes/add/{$}", s.noteH.AddForm)
	mux.HandleFunc("POST /notes/add/{$}", s.noteH.Add)
	mux.HandleFunc("GET /notes/success/{$}", s.noteH.Success)
	mux.HandleFunc("GET /notes/{slug}/{$}", s.noteH.Detail)
	mux.HandleFunc("GET /notes/{slug}/edit/{$}", s.noteH.EditForm)
	mux.HandleFunc("POST /notes/{slug}/edit/{$}", s.noteH.Edit)
	mux.HandleFunc("GET /notes/{slug}/delete/{$}", s.noteH.DeleteConfirm)
	mux.HandleFunc("POST /notes/{slug}/delete/{$}", s.noteH.Delete)

	// WebSocket — note change events for the logged-in user's other tabs
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
