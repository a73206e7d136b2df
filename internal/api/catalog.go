package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/user/climate-farm/internal/types"
	"go.uber.org/zap"
)

const maxForecastDays = 10

type nearestResponse struct {
	Location   types.Location `json:"location"`
	DistanceKm float64        `json:"distanceKm"`
}

func (s *Server) handleCrops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.Engine().Rules().Catalog())
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.Locations().All())
}

func (s *Server) handleNearestLocation(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoordinates(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	location, meters := s.sessions.Locations().Nearest(lat, lon)
	writeJSON(w, http.StatusOK, nearestResponse{
		Location:   location,
		DistanceKm: math.Round(meters/100) / 10,
	})
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.weather == nil {
		writeError(w, http.StatusServiceUnavailable, "weather is not configured")
		return
	}
	lat, lon, err := parseCoordinates(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reading, err := s.weather.Current(r.Context(), lat, lon)
	if err != nil {
		s.logger.Warn("Weather lookup failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		writeError(w, http.StatusBadGateway, "weather unavailable")
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if s.weather == nil {
		writeError(w, http.StatusServiceUnavailable, "weather is not configured")
		return
	}
	lat, lon, err := parseCoordinates(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	days := 3
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 || days > maxForecastDays {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", maxForecastDays))
			return
		}
	}

	forecast, err := s.weather.Forecast(r.Context(), lat, lon, days)
	if err != nil {
		s.logger.Warn("Forecast lookup failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		writeError(w, http.StatusBadGateway, "forecast unavailable")
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func parseCoordinates(r *http.Request) (float64, float64, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("lat must be a number between -90 and 90")
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("lon must be a number between -180 and 180")
	}
	return lat, lon, nil
}
