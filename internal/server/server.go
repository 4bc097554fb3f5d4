package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mwalcott/eventdesk/internal/config"
	"github.com/mwalcott/eventdesk/internal/handler"
	"github.com/mwalcott/eventdesk/internal/middleware"
	"github.com/mwalcott/eventdesk/internal/store"
	"github.com/mwalcott/eventdesk/internal/thumb"
)

type Server struct {
	db         *sql.DB
	signingKey []byte
	thumbs     *thumb.Manager
	authH      *handler.AuthHandler
	eventH     *handler.EventHandler
	logger     *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	thumbs, err := thumb.NewManager(cfg.ThumbDir, logger.With("component", "thumb"))
	if err != nil {
		return nil, fmt.Errorf("init thumbnail manager: %w", err)
	}

	userStore := store.NewUserStore(db)
	eventStore := store.NewEventStore(db)

	return &Server{
		db:         db,
		signingKey: cfg.SessionKey,
		thumbs:     thumbs,
		authH:      handler.NewAuthHandler(userStore, cfg.SessionKey, logger.With("component", "auth")),
		eventH:     handler.NewEventHandler(eventStore, userStore, thumbs, logger.With("component", "event")),
		logger:     logger,
	}, nil
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Admin auth (public)
	mux.HandleFunc("POST /admin/register", s.authH.Register)
	mux.HandleFunc("POST /admin/login", s.authH.Login)
	mux.HandleFunc("GET /admin/is-auth", s.authH.IsAuth)

	// Event reads (public)
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)

	// Event mutations require an admin session
	requireAdmin := middleware.RequireAdmin(s.signingKey)
	mux.Handle("POST /api/events", requireAdmin(http.HandlerFunc(s.eventH.Create)))
	mux.Handle("PUT /api/events/{id}", requireAdmin(http.HandlerFunc(s.eventH.Update)))
	mux.Handle("DELETE /api/events/{id}", requireAdmin(http.HandlerFunc(s.eventH.Delete)))

	// Thumbnail files are served as static content
	mux.Handle("GET /thumbs/", http.StripPrefix("/thumbs/", http.FileServer(http.Dir(s.thumbs.Dir()))))

	mux.HandleFunc("GET /health", s.healthHandler)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
