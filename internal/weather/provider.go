// Package weather supplies weather readings to the game from Meteomatics or
// from a deterministic simulation.
package weather

import (
	"fmt"
	"time"

	"github.com/user/climate-farm/config"
	"go.uber.org/zap"
)

// New builds the configured provider wrapped in a last-reading cache
func New(cfg config.WeatherConfig, logger *zap.Logger) (*Cached, error) {
	switch cfg.Provider {
	case "meteomatics":
		client := NewMeteomaticsClient(cfg.BaseURL, cfg.Username, cfg.Password, cfg.TimeoutDuration(), logger)
		return NewCached(client, logger), nil
	case "simulated", "":
		return NewCached(NewSimulated(cfg.Seed, time.Hour), logger), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", cfg.Provider)
	}
}
