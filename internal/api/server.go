// Package api exposes accounts, the leaderboard and live game sessions over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/user/climate-farm/internal/commands"
	"github.com/user/climate-farm/internal/game"
	"github.com/user/climate-farm/internal/interfaces"
	"github.com/user/climate-farm/internal/store"
	"go.uber.org/zap"
)

// AccountStore is the persistence the API needs
type AccountStore interface {
	interfaces.SaveStore
	interfaces.HarvestRecorder

	Register(ctx context.Context, username, email, password string) (store.User, string, error)
	Login(ctx context.Context, username, password string) (store.User, string, error)
	Authenticate(ctx context.Context, token string) (store.User, error)
	Top(ctx context.Context, limit int) ([]store.LeaderboardEntry, error)
	Rank(ctx context.Context, userID string) (store.RankedEntry, error)
}

// WeatherSource serves readings and forecasts for arbitrary coordinates
type WeatherSource interface {
	interfaces.WeatherProvider
	interfaces.Forecaster
}

// Server holds the HTTP handlers
type Server struct {
	sessions  *game.SessionManager
	accounts  AccountStore
	hub       *Hub
	parser    *commands.Parser
	weather   WeatherSource
	publicURL string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewServer creates the API over a session manager and an account store
func NewServer(sessions *game.SessionManager, accounts AccountStore, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		sessions: sessions,
		accounts: accounts,
		hub:      hub,
		parser:   commands.NewParserForRules(sessions.Engine().Rules()),
		timeout:  60 * time.Second,
		logger:   logger,
	}
}

// SetWeather enables the weather endpoints
func (s *Server) SetWeather(source WeatherSource) {
	s.weather = source
}

// SetPublicURL sets the base URL encoded in session QR codes
func (s *Server) SetPublicURL(url string) {
	s.publicURL = url
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	router.Route("/api", func(r chi.Router) {
		// Websocket upgrades outlive the request timeout
		r.With(s.optionalAuth).Get("/sessions/{id}/ws", s.handleSessionSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.timeout))

			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/game/save", s.handleSaveGame)
				r.Get("/game/load", s.handleLoadGame)
				r.Post("/game/harvest", s.handleRecordHarvest)
				r.Get("/leaderboard/rank", s.handleRank)
				r.Post("/sessions/{id}/save", s.handleSessionSave)
			})

			r.Get("/leaderboard", s.handleLeaderboard)
			r.Get("/crops", s.handleCrops)
			r.Get("/locations", s.handleLocations)
			r.Get("/locations/nearest", s.handleNearestLocation)
			r.Get("/weather", s.handleWeather)
			r.Get("/weather/forecast", s.handleForecast)

			// Owned sessions answer only to their owner; the QR code is public
			r.Group(func(r chi.Router) {
				r.Use(s.optionalAuth)
				r.Post("/sessions", s.handleCreateSession)
				r.Get("/sessions", s.handleListSessions)
				r.Get("/sessions/{id}", s.handleSessionSnapshot)
				r.Post("/sessions/{id}/actions", s.handleSessionAction)
				r.Post("/sessions/{id}/commands", s.handleSessionCommand)
				r.Post("/sessions/{id}/tick", s.handleSessionTick)
				r.Delete("/sessions/{id}", s.handleStopSession)
				r.Get("/sessions/{id}/qr", s.handleSessionQR)
			})
		})
	})

	return router
}

type errorResponse struct {
	Error string `json:"error"`
}

type rejectionResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return decoder.Decode(v)
}

// sessionError maps session and engine errors to responses
func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case game.IsRejection(err):
		writeJSON(w, http.StatusUnprocessableEntity, rejectionResponse{Accepted: false, Reason: err.Error()})
	case errors.Is(err, game.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, game.ErrSessionStopped):
		writeError(w, http.StatusGone, "session stopped")
	case errors.Is(err, game.ErrTooManySessions):
		writeError(w, http.StatusServiceUnavailable, "too many sessions")
	case errors.Is(err, game.ErrUnknownLocation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, game.ErrNoSave):
		writeError(w, http.StatusNotFound, "no saved game")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "session busy")
	default:
		s.logger.Error("Session request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	session, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.sessionError(w, err)
		return nil, false
	}
	return session, true
}

// lookupOwnedSession is lookupSession plus the owner check
func (s *Server) lookupOwnedSession(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return nil, false
	}
	if !canControl(r, session.OwnerID()) {
		writeError(w, http.StatusForbidden, "session belongs to another account")
		return nil, false
	}
	return session, true
}

// canControl reports whether the caller may drive a session with this owner
func canControl(r *http.Request, ownerID string) bool {
	if ownerID == "" {
		return true
	}
	user, ok := UserFromContext(r.Context())
	return ok && user.ID == ownerID
}
