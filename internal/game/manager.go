package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/user/climate-farm/internal/interfaces"
	"github.com/user/climate-farm/internal/types"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned for an unknown session id
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned when the session limit is reached
	ErrTooManySessions = errors.New("too many sessions")
)

// SessionInfo describes a running session
type SessionInfo struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId,omitempty"`
}

// SessionManager creates, tracks and stops game sessions
type SessionManager struct {
	engine      *Engine
	locations   *LocationCatalog
	config      SessionConfig
	maxSessions int
	Logger      *zap.Logger

	weather   interfaces.WeatherProvider
	saves     interfaces.SaveStore
	harvests  interfaces.HarvestRecorder
	publisher interfaces.SnapshotPublisher

	sessions  map[string]*Session
	stateLock sync.RWMutex
}

// NewSessionManager creates a new session manager
func NewSessionManager(engine *Engine, locations *LocationCatalog, cfg SessionConfig, maxSessions int) *SessionManager {
	return &SessionManager{
		engine:      engine,
		locations:   locations,
		config:      cfg,
		maxSessions: maxSessions,
		Logger:      zap.NewNop(), // Will be set by the server
		sessions:    make(map[string]*Session),
	}
}

// SetLogger sets the logger used by the manager and new sessions
func (sm *SessionManager) SetLogger(logger *zap.Logger) {
	sm.Logger = logger
}

// SetWeatherProvider sets the source of weather readings
func (sm *SessionManager) SetWeatherProvider(provider interfaces.WeatherProvider) {
	sm.weather = provider
}

// SetSaveStore sets where owned sessions are saved
func (sm *SessionManager) SetSaveStore(store interfaces.SaveStore) {
	sm.saves = store
}

// SetHarvestRecorder sets where harvests are counted
func (sm *SessionManager) SetHarvestRecorder(recorder interfaces.HarvestRecorder) {
	sm.harvests = recorder
}

// SetPublisher sets the sink for live snapshots
func (sm *SessionManager) SetPublisher(publisher interfaces.SnapshotPublisher) {
	sm.publisher = publisher
}

// Engine returns the engine shared by all sessions
func (sm *SessionManager) Engine() *Engine {
	return sm.engine
}

// Locations returns the location catalog
func (sm *SessionManager) Locations() *LocationCatalog {
	return sm.locations
}

// NewGame starts a session with a fresh farm on a preset location
func (sm *SessionManager) NewGame(ownerID, locationID string) (*Session, error) {
	location, err := sm.locations.Find(locationID)
	if err != nil {
		return nil, err
	}
	return sm.start(ownerID, sm.engine.NewGameState(location))
}

// ResumeGame starts a session from the owner's latest save
func (sm *SessionManager) ResumeGame(ctx context.Context, ownerID string) (*Session, error) {
	if sm.saves == nil {
		return nil, errors.New("no save store configured")
	}
	state, _, err := sm.saves.LoadGame(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load save: %w", err)
	}
	return sm.start(ownerID, state)
}

func (sm *SessionManager) start(ownerID string, state types.GameState) (*Session, error) {
	sm.stateLock.Lock()
	defer sm.stateLock.Unlock()

	if sm.maxSessions > 0 && len(sm.sessions) >= sm.maxSessions {
		return nil, ErrTooManySessions
	}

	deps := sessionDeps{
		weather:   sm.weather,
		saves:     sm.saves,
		harvests:  sm.harvests,
		publisher: sm.publisher,
	}
	session := newSession(uuid.New().String(), ownerID, state, sm.engine, deps, sm.config, sm.Logger)
	sm.sessions[session.ID()] = session
	session.Start()

	sm.Logger.Info("Session started",
		zap.String("session_id", session.ID()),
		zap.String("owner_id", ownerID),
		zap.String("location", state.Farm.Location.ID),
		zap.Int("day", state.Day))

	return session, nil
}

// Get retrieves a session by id
func (sm *SessionManager) Get(id string) (*Session, error) {
	sm.stateLock.RLock()
	defer sm.stateLock.RUnlock()

	session, exists := sm.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns the running sessions ordered by start time
func (sm *SessionManager) List() []SessionInfo {
	sm.stateLock.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.stateLock.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt().Before(sessions[j].CreatedAt())
	})

	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionInfo{ID: s.ID(), OwnerID: s.OwnerID()})
	}
	return out
}

// Stop ends a session and forgets it
func (sm *SessionManager) Stop(id string) error {
	sm.stateLock.Lock()
	session, exists := sm.sessions[id]
	if exists {
		delete(sm.sessions, id)
	}
	sm.stateLock.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	session.Stop()
	return nil
}

// StopAll ends every session, used at shutdown
func (sm *SessionManager) StopAll() {
	sm.stateLock.Lock()
	sessions := sm.sessions
	sm.sessions = make(map[string]*Session)
	sm.stateLock.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Stop()
		}(s)
	}
	wg.Wait()

	sm.Logger.Info("All sessions stopped", zap.Int("count", len(sessions)))
}
