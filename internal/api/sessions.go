package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/skip2/go-qrcode"
	"github.com/user/climate-farm/internal/commands"
	"github.com/user/climate-farm/internal/game"
	"github.com/user/climate-farm/internal/types"
	"go.uber.org/zap"
)

type createSessionRequest struct {
	LocationID string `json:"locationId"`
	Resume     bool   `json:"resume"`
}

type sessionResponse struct {
	SessionID string          `json:"sessionId"`
	State     types.GameState `json:"state"`
}

type actionResponse struct {
	Accepted bool            `json:"accepted"`
	Outcome  game.Outcome    `json:"outcome"`
	State    types.GameState `json:"state"`
}

type commandRequest struct {
	Text string `json:"text"`
}

type commandResponse struct {
	Accepted  bool             `json:"accepted"`
	Reply     string           `json:"reply"`
	Reason    string           `json:"reason,omitempty"`
	Corrected []string         `json:"corrected,omitempty"`
	State     *types.GameState `json:"state,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, authenticated := UserFromContext(r.Context())

	var (
		session *game.Session
		err     error
	)
	if req.Resume {
		if !authenticated {
			writeError(w, http.StatusUnauthorized, "authentication required to resume")
			return
		}
		session, err = s.sessions.ResumeGame(r.Context(), user.ID)
	} else {
		if req.LocationID == "" {
			writeError(w, http.StatusBadRequest, "locationId is required")
			return
		}
		session, err = s.sessions.NewGame(user.ID, req.LocationID)
	}
	if err != nil {
		s.sessionError(w, err)
		return
	}

	state, err := session.Snapshot(r.Context())
	if err != nil {
		s.sessionError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: session.ID(), State: state})
}

type sessionListEntry struct {
	ID    string `json:"id"`
	Owned bool   `json:"owned"`
}

// handleListSessions lists guest sessions and the caller's own
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	entries := make([]sessionListEntry, 0)
	for _, info := range s.sessions.List() {
		if !canControl(r, info.OwnerID) {
			continue
		}
		entries = append(entries, sessionListEntry{ID: info.ID, Owned: info.OwnerID != ""})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSessionSnapshot(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupOwnedSession(w, r)
	if !ok {
		return
	}

	state, err := session.Snapshot(r.Context())
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: session.ID(), State: state})
}

func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupOwnedSession(w, r)
	if !ok {
		return
	}

	var action game.Action
	if err := decodeJSON(w, r, &action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid action")
		return
	}

	state, outcome, err := session.Apply(r.Context(), action)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Accepted: true, Outcome: outcome, State: state})
}

func (s *Server) handleSessionTick(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupOwnedSession(w, r)
	if !ok {
		return
	}

	state, err := session.Advance(r.Context())
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: session.ID(), State: state})
}

// handleSessionCommand runs one line of free text against a session
func (s *Server) handleSessionCommand(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupOwnedSession(w, r)
	if !ok {
		return
	}

	var req commandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	cmd, err := s.parser.Parse(req.Text)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commandResponse{
			Accepted: false,
			Reply:    "Unrecognized command. Type help for the list.",
			Reason:   err.Error(),
		})
		return
	}

	resp := commandResponse{Accepted: true, Corrected: cmd.Corrected}
	var state types.GameState

	switch cmd.Kind {
	case commands.KindHelp:
		resp.Reply = commands.Help(s.sessions.Engine().Rules())
		state, err = session.Snapshot(r.Context())
	case commands.KindStatus:
		state, err = session.Snapshot(r.Context())
		resp.Reply = commands.Status(state)
	case commands.KindNext:
		state, err = session.Advance(r.Context())
		resp.Reply = fmt.Sprintf("Day %d begins.", state.Day)
	case commands.KindAction:
		var outcome game.Outcome
		state, outcome, err = session.Apply(r.Context(), cmd.Action)
		if game.IsRejection(err) {
			writeJSON(w, http.StatusUnprocessableEntity, commandResponse{
				Accepted:  false,
				Reply:     "Cannot do that: " + err.Error(),
				Reason:    err.Error(),
				Corrected: cmd.Corrected,
			})
			return
		}
		resp.Reply = commands.Describe(outcome)
	}
	if err != nil {
		s.sessionError(w, err)
		return
	}

	resp.State = &state
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionSave(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupOwnedSession(w, r)
	if !ok {
		return
	}
	user, _ := UserFromContext(r.Context())

	if err := session.Save(r.Context(), user.ID); err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"saved": true})
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupOwnedSession(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Stop(session.ID()); err != nil {
		s.sessionError(w, err)
		return
	}
	if s.hub != nil {
		s.hub.Closed(session.ID())
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionSocket(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupOwnedSession(w, r)
	if !ok {
		return
	}
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "live updates disabled")
		return
	}

	var initial *types.GameState
	if state, err := session.Snapshot(r.Context()); err == nil {
		initial = &state
	}
	s.hub.ServeWs(session.ID(), initial, w, r)
}

// handleSessionQR renders a PNG QR code pointing at the session
func (s *Server) handleSessionQR(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	url := s.sessionURL(r, session.ID())
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		s.logger.Error("Failed to generate QR code", zap.String("session_id", session.ID()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *Server) sessionURL(r *http.Request, id string) string {
	base := strings.TrimSuffix(s.publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/api/sessions/" + id
}
