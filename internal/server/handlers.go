package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/morlais/tidegate/internal/cache"
	"github.com/morlais/tidegate/internal/marine"
	"github.com/morlais/tidegate/internal/models"
)

const (
	dateLayout = "2006-01-02"

	// The daily forecast covers today plus this many days ahead.
	weatherWindowDays = 5

	defaultHeightsLimit = 100
	maxHeightsLimit     = 1000
)

// envelope wraps dataset-backed responses with their staleness metadata.
type envelope struct {
	Data       any    `json:"data"`
	FetchedAt  string `json:"fetchedAt,omitempty"`
	Stale      bool   `json:"stale"`
	StaleError string `json:"staleError,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type tideExtremeDTO struct {
	Type     string  `json:"type"`
	DateTime string  `json:"datetime"`
	Date     string  `json:"date"`
	Height   float64 `json:"height"`
}

type tideHeightDTO struct {
	DateTime string  `json:"datetime"`
	Date     string  `json:"date"`
	Height   float64 `json:"height"`
}

type tideHeightsPage struct {
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
	Heights []tideHeightDTO `json:"heights"`
}

type gateEventDTO struct {
	DateTime string  `json:"datetime"`
	Action   string  `json:"action"`
	Height   float64 `json:"height"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDataset renders a dataset value in the staleness envelope. A non-stale
// error means there is no value at all; the data is simply unavailable.
func (s *Server) writeDataset(w http.ResponseWriter, data any, fetchedAt time.Time, err error) {
	env := envelope{Data: data, FetchedAt: fetchedAt.In(s.loc).Format(time.RFC3339)}

	if err != nil {
		var staleErr *cache.StaleError
		if !errors.As(err, &staleErr) {
			writeError(w, http.StatusServiceUnavailable, "data unavailable")
			return
		}
		env.Stale = true
		env.StaleError = staleErr.Err.Error()
	}

	writeJSON(w, http.StatusOK, env)
}

// writeKeyed renders an on-demand lookup. Keyed caches carry no fetch time;
// staleness shows in the envelope without one.
func (s *Server) writeKeyed(w http.ResponseWriter, data any, err error) {
	env := envelope{Data: data}

	if err != nil {
		var staleErr *cache.StaleError
		if !errors.As(err, &staleErr) {
			writeError(w, http.StatusBadGateway, "upstream unavailable")
			return
		}
		env.Stale = true
		env.StaleError = staleErr.Err.Error()
	}

	writeJSON(w, http.StatusOK, env)
}

func (s *Server) parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, s.loc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTides(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := s.parseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	extremes, fetchedAt, err := s.svc.Extremes(r.Context())
	var staleErr *cache.StaleError
	if err != nil && !errors.As(err, &staleErr) {
		writeError(w, http.StatusServiceUnavailable, "data unavailable")
		return
	}

	var dtos []tideExtremeDTO
	for _, e := range extremes {
		local := e.Timestamp.In(s.loc)
		if local.Format(dateLayout) != date {
			continue
		}
		dtos = append(dtos, tideExtremeDTO{
			Type:     string(e.Type),
			DateTime: local.Format(time.RFC3339),
			Date:     date,
			Height:   e.Height,
		})
	}
	if len(dtos) == 0 {
		writeError(w, http.StatusNotFound, "no tide data for "+date)
		return
	}

	s.writeDataset(w, dtos, fetchedAt, err)
}

func (s *Server) handleTideHeights(w http.ResponseWriter, r *http.Request) {
	offset, limit := 0, defaultHeightsLimit
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxHeightsLimit {
		limit = maxHeightsLimit
	}

	samples, fetchedAt, err := s.svc.Heights(r.Context())
	var staleErr *cache.StaleError
	if err != nil && !errors.As(err, &staleErr) {
		writeError(w, http.StatusServiceUnavailable, "data unavailable")
		return
	}

	page := tideHeightsPage{
		Total:   len(samples),
		Offset:  offset,
		Limit:   limit,
		Heights: []tideHeightDTO{},
	}
	if offset < len(samples) {
		end := offset + limit
		if end > len(samples) {
			end = len(samples)
		}
		for _, sample := range samples[offset:end] {
			local := sample.Timestamp.In(s.loc)
			page.Heights = append(page.Heights, tideHeightDTO{
				DateTime: local.Format(time.RFC3339),
				Date:     local.Format(dateLayout),
				Height:   sample.Height,
			})
		}
	}

	s.writeDataset(w, page, fetchedAt, err)
}

func (s *Server) gateEventDTOs(events []models.GateEvent, date string) []gateEventDTO {
	var dtos []gateEventDTO
	for _, e := range events {
		local := e.Timestamp.In(s.loc)
		if date != "" && local.Format(dateLayout) != date {
			continue
		}
		dtos = append(dtos, gateEventDTO{
			DateTime: local.Format(time.RFC3339),
			Action:   strings.ToLower(string(e.Action)),
			Height:   e.Height,
		})
	}
	return dtos
}

func (s *Server) handleGateTimes(w http.ResponseWriter, r *http.Request) {
	events, fetchedAt, err := s.svc.GateEvents(r.Context())
	var staleErr *cache.StaleError
	if err != nil && !errors.As(err, &staleErr) {
		writeError(w, http.StatusServiceUnavailable, "data unavailable")
		return
	}

	byDate := make(map[string][]gateEventDTO)
	for _, dto := range s.gateEventDTOs(events, "") {
		day := dto.DateTime[:len(dateLayout)]
		byDate[day] = append(byDate[day], dto)
	}

	s.writeDataset(w, byDate, fetchedAt, err)
}

func (s *Server) handleGateTimesForDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := s.parseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	events, fetchedAt, err := s.svc.GateEvents(r.Context())
	var staleErr *cache.StaleError
	if err != nil && !errors.As(err, &staleErr) {
		writeError(w, http.StatusServiceUnavailable, "data unavailable")
		return
	}

	dtos := s.gateEventDTOs(events, date)
	if len(dtos) == 0 {
		writeError(w, http.StatusNotFound, "no gate operations for "+date)
		return
	}

	s.writeDataset(w, dtos, fetchedAt, err)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	requested, err := s.parseDate(date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if requested.Before(today) || requested.After(today.AddDate(0, 0, weatherWindowDays)) {
		writeError(w, http.StatusNotFound, "weather forecast only covers today through 5 days ahead")
		return
	}

	days, fetchedAt, err := s.svc.Weather(r.Context())
	var staleErr *cache.StaleError
	if err != nil && !errors.As(err, &staleErr) {
		writeError(w, http.StatusServiceUnavailable, "data unavailable")
		return
	}

	day, ok := days[date]
	if !ok {
		writeError(w, http.StatusNotFound, "no weather data for "+date)
		return
	}

	s.writeDataset(w, day.In(s.loc), fetchedAt, err)
}

func (s *Server) handleSunriseSunset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date := q.Get("date")
	if date == "" {
		date = s.now().In(s.loc).Format(dateLayout)
	} else if _, err := s.parseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	lat, lng := s.cfg.Latitude, s.cfg.Longitude
	var err error
	if v := q.Get("lat"); v != "" {
		if lat, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "lat must be a number")
			return
		}
	}
	if v := q.Get("lng"); v != "" {
		if lng, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "lng must be a number")
			return
		}
	}

	times, err := s.svc.SunTimes(r.Context(), date, lat, lng)
	s.writeKeyed(w, times, err)
}

func (s *Server) handleMoonPhase(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	var day time.Time
	if date == "" {
		now := s.now().In(s.loc)
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse(dateLayout, date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	phase, err := s.svc.MoonPhase(r.Context(), day.Unix())
	s.writeKeyed(w, phase, err)
}

func (s *Server) handleMarine(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var params marine.Params
	var err error
	if v := q.Get("lat"); v != "" {
		if params.Lat, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "lat must be a number")
			return
		}
	}
	if v := q.Get("lon"); v != "" {
		if params.Lon, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "lon must be a number")
			return
		}
	}
	if v := q.Get("forecast_hours"); v != "" {
		if params.ForecastHours, err = strconv.Atoi(v); err != nil || params.ForecastHours <= 0 {
			writeError(w, http.StatusBadRequest, "forecast_hours must be a positive integer")
			return
		}
	}
	params.Hourly = q.Get("hourly")
	params.TimeFormat = q.Get("timeformat")

	forecast, err := s.svc.Marine(r.Context(), params)
	s.writeKeyed(w, forecast, err)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dataset")
	if err := s.svc.Invalidate(name); err != nil {
		writeError(w, http.StatusNotFound, "unknown dataset "+name)
		return
	}

	log.Info().Str("dataset", name).Msg("dataset invalidated by request")
	writeJSON(w, http.StatusOK, map[string]string{"dataset": name, "status": "invalidated"})
}
