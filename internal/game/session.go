package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/user/climate-farm/internal/interfaces"
	"github.com/user/climate-farm/internal/types"
	"go.uber.org/zap"
)

// ErrSessionStopped is returned by calls on a session whose loop has exited
var ErrSessionStopped = errors.New("session stopped")

// externalTimeout bounds each weather fetch, save and harvest report
const externalTimeout = 10 * time.Second

// SessionConfig holds the wall-clock cadence of a session
type SessionConfig struct {
	TickInterval           time.Duration
	AutosaveInterval       time.Duration
	WeatherRefreshInterval time.Duration
}

// DefaultSessionConfig returns one simulated day per 30 seconds
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TickInterval:           30 * time.Second,
		AutosaveInterval:       30 * time.Second,
		WeatherRefreshInterval: 10 * time.Minute,
	}
}

type commandKind int

const (
	cmdTick commandKind = iota
	cmdApply
	cmdWeather
	cmdSave
	cmdSaved
	cmdSnapshot
)

type command struct {
	kind    commandKind
	action  Action
	weather types.Weather
	version uint64
	reply   chan result
}

type result struct {
	state   types.GameState
	outcome Outcome
	version uint64
	err     error
}

// sessionDeps are the collaborators a session reports to. Any of them may be nil.
type sessionDeps struct {
	weather   interfaces.WeatherProvider
	saves     interfaces.SaveStore
	harvests  interfaces.HarvestRecorder
	publisher interfaces.SnapshotPublisher
}

// Session owns one running game. All state changes happen on its loop
// goroutine; callers talk to it through commands.
type Session struct {
	id        string
	ownerID   string
	createdAt time.Time
	engine    *Engine
	deps      sessionDeps
	config    SessionConfig
	logger    *zap.Logger

	commands chan command
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	helpers  sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	// Owned by the loop goroutine
	state        types.GameState
	version      uint64
	savedVersion uint64
}

func newSession(id, ownerID string, state types.GameState, engine *Engine, deps sessionDeps, cfg SessionConfig, logger *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:        id,
		ownerID:   ownerID,
		createdAt: time.Now(),
		engine:    engine,
		deps:      deps,
		config:    cfg,
		logger:    logger.With(zap.String("session_id", id)),
		commands:  make(chan command),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		state:     state.Clone(),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// OwnerID returns the account that owns the session, empty for guests
func (s *Session) OwnerID() string {
	return s.ownerID
}

// CreatedAt returns when the session started
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Done is closed once the loop has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start launches the loop, which fetches the first weather reading
func (s *Session) Start() {
	go s.run()
}

// Stop ends the loop after the command in progress and waits for it to exit.
// An owned session gets a final save.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
	s.helpers.Wait()
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot(ctx context.Context) (types.GameState, error) {
	r, err := s.send(ctx, command{kind: cmdSnapshot})
	return r.state, err
}

// Apply runs a player action. Rejections come back as the error with the
// unchanged state.
func (s *Session) Apply(ctx context.Context, action Action) (types.GameState, Outcome, error) {
	r, err := s.send(ctx, command{kind: cmdApply, action: action})
	if err != nil {
		return types.GameState{}, Outcome{}, err
	}
	return r.state, r.outcome, r.err
}

// Advance runs one tick immediately, outside the ticker cadence
func (s *Session) Advance(ctx context.Context) (types.GameState, error) {
	r, err := s.send(ctx, command{kind: cmdTick})
	return r.state, err
}

// UpdateWeather replaces the current weather reading
func (s *Session) UpdateWeather(ctx context.Context, w types.Weather) error {
	_, err := s.send(ctx, command{kind: cmdWeather, weather: w})
	return err
}

// Save writes the current state to an account's save slot. A save into the
// owner's own slot counts as the autosave for that state.
func (s *Session) Save(ctx context.Context, userID string) error {
	if s.deps.saves == nil {
		return errors.New("no save store configured")
	}
	r, err := s.send(ctx, command{kind: cmdSave})
	if err != nil {
		return err
	}
	if err := s.deps.saves.SaveGame(ctx, userID, r.state); err != nil {
		return err
	}
	if userID == s.ownerID {
		// A stopped session already ran its final save
		s.send(ctx, command{kind: cmdSaved, version: r.version})
	}
	return nil
}

func (s *Session) send(ctx context.Context, cmd command) (result, error) {
	if err := ctx.Err(); err != nil {
		return result{}, err
	}
	cmd.reply = make(chan result, 1)

	select {
	case s.commands <- cmd:
	case <-s.done:
		return result{}, ErrSessionStopped
	case <-ctx.Done():
		return result{}, ctx.Err()
	}

	select {
	case r := <-cmd.reply:
		return r, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (s *Session) run() {
	defer close(s.done)

	tick := time.NewTicker(s.config.TickInterval)
	defer tick.Stop()
	autosave := time.NewTicker(s.config.AutosaveInterval)
	defer autosave.Stop()
	refresh := time.NewTicker(s.config.WeatherRefreshInterval)
	defer refresh.Stop()

	s.refreshWeather()

	for {
		select {
		case <-s.quit:
			s.shutdown()
			return
		case <-tick.C:
			s.tick()
		case <-autosave.C:
			s.autosave()
		case <-refresh.C:
			s.refreshWeather()
		case cmd := <-s.commands:
			s.handle(cmd)
		}
	}
}

func (s *Session) handle(cmd command) {
	var r result

	switch cmd.kind {
	case cmdTick:
		s.tick()
	case cmdApply:
		r.outcome, r.err = s.apply(cmd.action)
	case cmdWeather:
		s.state.Weather = cmd.weather
		s.version++
	case cmdSaved:
		if cmd.version > s.savedVersion {
			s.savedVersion = cmd.version
		}
	case cmdSave, cmdSnapshot:
	}

	r.state = s.state.Clone()
	r.version = s.version
	if cmd.reply != nil {
		cmd.reply <- r
	}
}

func (s *Session) tick() {
	previous := s.state.Status
	s.state = s.engine.Tick(s.state)
	if s.state.Status == previous && previous.Terminal() {
		return
	}
	s.version++

	s.logger.Debug("Tick applied",
		zap.Int("day", s.state.Day),
		zap.Int("score", s.state.Farm.Score),
		zap.Int("money", s.state.Farm.Resources.Money),
		zap.Float64("environmental_score", s.state.Farm.EnvironmentalScore),
		zap.Int("crops", len(s.state.Farm.Crops)))

	if s.state.Status != previous {
		s.logger.Info("Game finished",
			zap.String("status", string(s.state.Status)),
			zap.Int("day", s.state.Day),
			zap.Int("score", s.state.Farm.Score))
		s.autosave()
	}
	s.publish()
}

func (s *Session) apply(action Action) (Outcome, error) {
	next, outcome, err := s.engine.Apply(s.state, action)
	if err != nil {
		s.logger.Debug("Action rejected",
			zap.String("action", string(action.Type)),
			zap.Error(err))
		return Outcome{}, err
	}

	s.state = next
	s.version++
	s.logger.Debug("Action applied",
		zap.String("action", string(action.Type)),
		zap.Int("slot", outcome.Slot))

	if action.Type == ActionHarvest {
		s.reportHarvest()
	}
	s.publish()
	return outcome, nil
}

func (s *Session) publish() {
	if s.deps.publisher != nil {
		s.deps.publisher.Publish(s.id, s.state.Clone())
	}
}

// goHelper runs external I/O off the loop goroutine
func (s *Session) goHelper(fn func(ctx context.Context)) {
	s.helpers.Add(1)
	go func() {
		defer s.helpers.Done()
		ctx, cancel := context.WithTimeout(s.ctx, externalTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Session) refreshWeather() {
	if s.deps.weather == nil {
		return
	}
	location := s.state.Farm.Location

	s.goHelper(func(ctx context.Context) {
		reading, err := s.deps.weather.Current(ctx, location.Lat(), location.Lon())
		if err != nil {
			s.logger.Warn("Weather refresh failed, keeping last reading", zap.Error(err))
			return
		}
		select {
		case s.commands <- command{kind: cmdWeather, weather: reading}:
		case <-s.quit:
		case <-ctx.Done():
		}
	})
}

func (s *Session) autosave() {
	if s.ownerID == "" || s.deps.saves == nil || s.version == s.savedVersion {
		return
	}
	snapshot := s.state.Clone()
	s.savedVersion = s.version

	s.goHelper(func(ctx context.Context) {
		if err := s.deps.saves.SaveGame(ctx, s.ownerID, snapshot); err != nil {
			s.logger.Error("Autosave failed", zap.String("owner_id", s.ownerID), zap.Error(err))
			return
		}
		s.logger.Debug("Autosaved", zap.Int("day", snapshot.Day))
	})
}

func (s *Session) reportHarvest() {
	if s.ownerID == "" || s.deps.harvests == nil {
		return
	}
	s.goHelper(func(ctx context.Context) {
		if err := s.deps.harvests.RecordHarvest(ctx, s.ownerID); err != nil {
			s.logger.Warn("Failed to record harvest", zap.String("owner_id", s.ownerID), zap.Error(err))
		}
	})
}

// shutdown runs on the loop goroutine before it exits
func (s *Session) shutdown() {
	// In-flight saves must land before the final one
	s.helpers.Wait()

	if s.ownerID != "" && s.deps.saves != nil && s.version != s.savedVersion {
		ctx, cancel := context.WithTimeout(context.Background(), externalTimeout)
		defer cancel()
		if err := s.deps.saves.SaveGame(ctx, s.ownerID, s.state.Clone()); err != nil {
			s.logger.Error("Final save failed", zap.Error(err))
		}
	}
	s.cancel()
	s.logger.Info("Session stopped", zap.Int("day", s.state.Day))
}
