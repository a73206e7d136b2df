package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/user/climate-farm/internal/store"
	"github.com/user/climate-farm/internal/types"
	"go.uber.org/zap"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User  store.User `json:"user"`
	Token string     `json:"token"`
}

type saveRequest struct {
	GameState *types.GameState `json:"gameState"`
}

type loadResponse struct {
	GameState types.GameState `json:"gameState"`
	SavedAt   time.Time       `json:"savedAt"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, token, err := s.accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, store.ErrUserExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.logger.Error("Failed to register user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, token, err := s.accounts.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		s.logger.Error("Failed to log in", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (s *Server) handleSaveGame(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req saveRequest
	if err := decodeJSON(w, r, &req); err != nil || req.GameState == nil {
		writeError(w, http.StatusBadRequest, "gameState is required")
		return
	}

	if err := s.accounts.SaveGame(r.Context(), user.ID, *req.GameState); err != nil {
		s.logger.Error("Failed to save game", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save game")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"saved": true})
}

func (s *Server) handleLoadGame(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	state, savedAt, err := s.accounts.LoadGame(r.Context(), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no saved game")
		return
	}
	if err != nil {
		s.logger.Error("Failed to load game", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load game")
		return
	}

	writeJSON(w, http.StatusOK, loadResponse{GameState: state, SavedAt: savedAt})
}

func (s *Server) handleRecordHarvest(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	if err := s.accounts.RecordHarvest(r.Context(), user.ID); err != nil {
		s.logger.Error("Failed to record harvest", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record harvest")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"recorded": true})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}

	entries, err := s.accounts.Top(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to read leaderboard", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, denseRanks(entries))
}

// denseRanks numbers entries already ordered by high score
func denseRanks(entries []store.LeaderboardEntry) []store.RankedEntry {
	ranked := make([]store.RankedEntry, len(entries))
	rank := 0
	for i, e := range entries {
		if i == 0 || e.HighScore != entries[i-1].HighScore {
			rank++
		}
		ranked[i] = store.RankedEntry{Rank: rank, LeaderboardEntry: e}
	}
	return ranked
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	ranked, err := s.accounts.Rank(r.Context(), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not on the leaderboard")
		return
	}
	if err != nil {
		s.logger.Error("Failed to compute rank", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to compute rank")
		return
	}

	writeJSON(w, http.StatusOK, ranked)
}
