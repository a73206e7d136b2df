package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/user/climate-farm/internal/interfaces"
	"github.com/user/climate-farm/internal/types"
	"go.uber.org/zap"
)

// DefaultMeteomaticsURL is the public Meteomatics API endpoint
const DefaultMeteomaticsURL = "https://api.meteomatics.com"

// Parameters requested for a current reading, in response order
const (
	paramTemperature  = "t_2m:C"
	paramPrecip1h     = "precip_1h:mm"
	paramHumidity     = "relative_humidity_2m:p"
	paramWindSpeed    = "wind_speed_10m:ms"
	paramSoilMoisture = "soil_moisture_index_-5cm:idx"
	paramPrecip24h    = "precip_24h:mm"
)

// ErrUnavailable is returned when the provider cannot produce a reading
var ErrUnavailable = errors.New("weather unavailable")

var (
	_ interfaces.WeatherProvider = (*MeteomaticsClient)(nil)
	_ interfaces.Forecaster      = (*MeteomaticsClient)(nil)
)

// MeteomaticsClient fetches readings from the Meteomatics time-series API
type MeteomaticsClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewMeteomaticsClient creates a client using HTTP basic auth
func NewMeteomaticsClient(baseURL, username, password string, timeout time.Duration, logger *zap.Logger) *MeteomaticsClient {
	if baseURL == "" {
		baseURL = DefaultMeteomaticsURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeteomaticsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

type meteomaticsResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Parameter   string `json:"parameter"`
		Coordinates []struct {
			Lat   float64 `json:"lat"`
			Lon   float64 `json:"lon"`
			Dates []struct {
				Date  time.Time `json:"date"`
				Value float64   `json:"value"`
			} `json:"dates"`
		} `json:"coordinates"`
	} `json:"data"`
}

// series returns the dated values for a parameter at the first coordinate
func (r *meteomaticsResponse) series(parameter string) ([]time.Time, []float64) {
	for _, d := range r.Data {
		if d.Parameter != parameter || len(d.Coordinates) == 0 {
			continue
		}
		dates := d.Coordinates[0].Dates
		times := make([]time.Time, len(dates))
		values := make([]float64, len(dates))
		for i, v := range dates {
			times[i] = v.Date
			values[i] = v.Value
		}
		return times, values
	}
	return nil, nil
}

func (r *meteomaticsResponse) first(parameter string) float64 {
	_, values := r.series(parameter)
	if len(values) == 0 {
		return 0
	}
	return values[0]
}

// Current returns the reading for the current instant at a coordinate
func (c *MeteomaticsClient) Current(ctx context.Context, lat, lon float64) (types.Weather, error) {
	now := c.now().UTC().Truncate(time.Second)
	params := []string{paramTemperature, paramPrecip1h, paramHumidity, paramWindSpeed, paramSoilMoisture}

	resp, err := c.query(ctx, now.Format(time.RFC3339), params, lat, lon)
	if err != nil {
		return types.Weather{}, err
	}
	if _, values := resp.series(paramTemperature); len(values) == 0 {
		return types.Weather{}, fmt.Errorf("%w: response has no temperature", ErrUnavailable)
	}

	return types.Weather{
		Temperature:   resp.first(paramTemperature),
		Precipitation: max(0, resp.first(paramPrecip1h)),
		Humidity:      resp.first(paramHumidity),
		WindSpeed:     resp.first(paramWindSpeed),
		SoilMoisture:  resp.first(paramSoilMoisture),
		ObservedAt:    now,
	}, nil
}

// Forecast returns one entry per day starting today
func (c *MeteomaticsClient) Forecast(ctx context.Context, lat, lon float64, days int) ([]types.DailyForecast, error) {
	if days <= 0 {
		days = 7
	}
	start := c.now().UTC().Truncate(time.Second)
	end := start.Add(time.Duration(days) * 24 * time.Hour)
	span := fmt.Sprintf("%s--%s:P1D", start.Format(time.RFC3339), end.Format(time.RFC3339))
	params := []string{paramTemperature, paramPrecip24h, paramHumidity}

	resp, err := c.query(ctx, span, params, lat, lon)
	if err != nil {
		return nil, err
	}

	dates, temps := resp.series(paramTemperature)
	_, precip := resp.series(paramPrecip24h)
	_, humidity := resp.series(paramHumidity)

	forecast := make([]types.DailyForecast, 0, len(dates))
	for i, date := range dates {
		day := types.DailyForecast{Date: date, Temperature: temps[i]}
		if i < len(precip) {
			day.Precipitation = max(0, precip[i])
		}
		if i < len(humidity) {
			day.Humidity = humidity[i]
		}
		forecast = append(forecast, day)
	}
	return forecast, nil
}

func (c *MeteomaticsClient) query(ctx context.Context, when string, params []string, lat, lon float64) (*meteomaticsResponse, error) {
	url := fmt.Sprintf("%s/%s/%s/%s,%s/json",
		c.baseURL, when, strings.Join(params, ","),
		strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		c.logger.Warn("Weather provider returned an error",
			zap.Int("status", res.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}

	var parsed meteomaticsResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrUnavailable, err)
	}
	return &parsed, nil
}
