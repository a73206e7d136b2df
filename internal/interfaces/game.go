package interfaces

import (
	"context"
	"time"

	"github.com/user/climate-farm/internal/types"
)

// WeatherProvider defines the interface for current weather readings
type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64) (types.Weather, error)
}

// Forecaster defines the interface for daily weather outlooks
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64, days int) ([]types.DailyForecast, error)
}

// SaveStore defines the interface for per-account game saves
type SaveStore interface {
	SaveGame(ctx context.Context, userID string, state types.GameState) error
	LoadGame(ctx context.Context, userID string) (types.GameState, time.Time, error)
}

// HarvestRecorder defines the interface for counting harvests on the leaderboard
type HarvestRecorder interface {
	RecordHarvest(ctx context.Context, userID string) error
}

// SnapshotPublisher defines the interface for pushing session updates to viewers
type SnapshotPublisher interface {
	Publish(sessionID string, state types.GameState)
}
