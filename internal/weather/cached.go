package weather

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/climate-farm/internal/interfaces"
	"github.com/user/climate-farm/internal/types"
	"go.uber.org/zap"
)

var (
	_ interfaces.WeatherProvider = (*Cached)(nil)
	_ interfaces.Forecaster      = (*Cached)(nil)
)

// Cached wraps a provider and serves the last good reading per coordinate
// when the provider fails
type Cached struct {
	provider  interfaces.WeatherProvider
	logger    *zap.Logger
	lastMutex sync.RWMutex
	last      map[string]types.Weather
}

// NewCached creates a caching wrapper around a provider
func NewCached(provider interfaces.WeatherProvider, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{
		provider: provider,
		logger:   logger,
		last:     make(map[string]types.Weather),
	}
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.3f,%.3f", lat, lon)
}

// Current returns a fresh reading, or the last good one if the provider fails
func (c *Cached) Current(ctx context.Context, lat, lon float64) (types.Weather, error) {
	key := cacheKey(lat, lon)

	reading, err := c.provider.Current(ctx, lat, lon)
	if err == nil {
		c.lastMutex.Lock()
		c.last[key] = reading
		c.lastMutex.Unlock()
		return reading, nil
	}

	c.lastMutex.RLock()
	last, ok := c.last[key]
	c.lastMutex.RUnlock()
	if !ok {
		return types.Weather{}, err
	}

	c.logger.Warn("Weather provider failed, serving cached reading",
		zap.String("coordinate", key),
		zap.Time("observed_at", last.ObservedAt),
		zap.Error(err))
	return last, nil
}

// Forecast passes through when the wrapped provider supports forecasts
func (c *Cached) Forecast(ctx context.Context, lat, lon float64, days int) ([]types.DailyForecast, error) {
	f, ok := c.provider.(interfaces.Forecaster)
	if !ok {
		return nil, fmt.Errorf("%w: provider has no forecast", ErrUnavailable)
	}
	return f.Forecast(ctx, lat, lon, days)
}
