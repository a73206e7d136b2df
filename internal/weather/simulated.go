package weather

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/user/climate-farm/internal/interfaces"
	"github.com/user/climate-farm/internal/types"
)

var (
	_ interfaces.WeatherProvider = (*Simulated)(nil)
	_ interfaces.Forecaster      = (*Simulated)(nil)
)

// Simulated produces plausible readings without network access. The same
// seed, coordinate and step always yield the same reading.
type Simulated struct {
	seed int64
	step time.Duration
	now  func() time.Time
}

// NewSimulated creates a simulated provider. Current readings change once per step.
func NewSimulated(seed int64, step time.Duration) *Simulated {
	if step <= 0 {
		step = time.Hour
	}
	return &Simulated{seed: seed, step: step, now: time.Now}
}

// Current returns the reading for the current step
func (s *Simulated) Current(_ context.Context, lat, lon float64) (types.Weather, error) {
	now := s.now().UTC()
	w := s.Reading(lat, lon, now.UnixNano()/int64(s.step))
	w.ObservedAt = now.Truncate(s.step)
	return w, nil
}

// Forecast returns daily readings for the coming days
func (s *Simulated) Forecast(_ context.Context, lat, lon float64, days int) ([]types.DailyForecast, error) {
	if days <= 0 {
		days = 7
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	out := make([]types.DailyForecast, 0, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i)
		w := s.Reading(lat, lon, date.Unix()/86400)
		out = append(out, types.DailyForecast{
			Date:          date,
			Temperature:   w.Temperature,
			Precipitation: w.Precipitation * 24,
			Humidity:      w.Humidity,
		})
	}
	return out, nil
}

// Reading derives the reading for an arbitrary step index. Latitude sets the
// baseline: warm and humid near the equator, cold towards the poles.
func (s *Simulated) Reading(lat, lon float64, step int64) types.Weather {
	rng := seededRNG(s.seed, fmt.Sprintf("%.2f,%.2f:%d", lat, lon, step))
	absLat := math.Abs(lat)

	temperature := 29 - 0.45*absLat + rng.NormFloat64()*4
	humidity := clampRange(85-0.6*absLat+rng.NormFloat64()*12, 5, 100)

	precipitation := 0.0
	if rng.Float64() < 0.15+humidity/400 {
		precipitation = rng.ExpFloat64() * 3
	}

	return types.Weather{
		Temperature:   round1(temperature),
		Precipitation: round1(precipitation),
		Humidity:      round1(humidity),
		WindSpeed:     round1(1 + rng.Float64()*9),
		SoilMoisture:  round1(clampRange(0.2+humidity/200+precipitation/20, 0, 1)),
	}
}

func seededRNG(seed int64, salt string) *rand.Rand {
	// #nosec G404
	return rand.New(rand.NewPCG(seedWord(seed, salt+"a"), seedWord(seed, salt+"b")))
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}

func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
