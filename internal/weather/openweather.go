// Package weather fetches the daily forecast for the gate location from the
// OpenWeather One Call API. Wind speeds are converted to Beaufort at the
// fetch boundary, and days are keyed by their local civil date because that
// is how the boundary layer looks them up.
package weather

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/morlais/tidegate/internal/models"
	"github.com/morlais/tidegate/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "https://api.openweathermap.org"

type Client struct {
	httpClient *client.Client
	key        string
	lat        float64
	lon        float64
	loc        *time.Location
}

func NewClient(httpClient *client.Client, key string, lat, lon float64, loc *time.Location) *Client {
	return &Client{
		httpClient: httpClient,
		key:        key,
		lat:        lat,
		lon:        lon,
		loc:        loc,
	}
}

type apiDay struct {
	DT        int64                     `json:"dt"`
	Sunrise   *int64                    `json:"sunrise,omitempty"`
	Sunset    *int64                    `json:"sunset,omitempty"`
	Moonrise  *int64                    `json:"moonrise,omitempty"`
	Moonset   *int64                    `json:"moonset,omitempty"`
	MoonPhase *float64                  `json:"moon_phase,omitempty"`
	Summary   string                    `json:"summary,omitempty"`
	Temp      models.DayTemps           `json:"temp"`
	FeelsLike models.FeelsLike          `json:"feels_like"`
	Pressure  int                       `json:"pressure"`
	Humidity  int                       `json:"humidity"`
	DewPoint  float64                   `json:"dew_point"`
	WindSpeed float64                   `json:"wind_speed"`
	WindGust  *float64                  `json:"wind_gust,omitempty"`
	WindDeg   int                       `json:"wind_deg"`
	Weather   []models.WeatherCondition `json:"weather"`
	Clouds    int                       `json:"clouds"`
	Pop       float64                   `json:"pop"`
	UVI       float64                   `json:"uvi"`
}

type apiResponse struct {
	Daily []apiDay `json:"daily"`
}

// Daily fetches the daily forecast and returns it keyed by local date
// (YYYY-MM-DD).
func (c *Client) Daily(ctx context.Context) (map[string]models.WeatherDay, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(c.lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(c.lon, 'f', -1, 64))
	query.Set("exclude", "minutely,hourly,alerts,current")
	query.Set("units", "metric")
	query.Set("appid", c.key)

	var resp apiResponse
	if err := c.httpClient.GetJSON(ctx, "/data/3.0/onecall", query, &resp); err != nil {
		return nil, fmt.Errorf("fetching daily weather: %w", err)
	}

	days := make(map[string]models.WeatherDay, len(resp.Daily))
	for _, d := range resp.Daily {
		if d.DT <= 0 {
			return nil, fmt.Errorf("weather day has invalid timestamp %d", d.DT)
		}

		day := models.WeatherDay{
			Timestamp:         time.Unix(d.DT, 0).UTC(),
			Sunrise:           unixPtr(d.Sunrise),
			Sunset:            unixPtr(d.Sunset),
			Moonrise:          unixPtr(d.Moonrise),
			Moonset:           unixPtr(d.Moonset),
			MoonPhase:         d.MoonPhase,
			Summary:           d.Summary,
			Temp:              d.Temp,
			FeelsLike:         d.FeelsLike,
			Pressure:          d.Pressure,
			Humidity:          d.Humidity,
			DewPoint:          d.DewPoint,
			WindSpeed:         d.WindSpeed,
			WindSpeedBeaufort: models.Beaufort(d.WindSpeed),
			WindDeg:           d.WindDeg,
			Conditions:        d.Weather,
			Clouds:            d.Clouds,
			Pop:               d.Pop,
			UVI:               d.UVI,
		}
		if d.WindGust != nil {
			day.WindGust = d.WindGust
			gustBft := models.Beaufort(*d.WindGust)
			day.WindGustBeaufort = &gustBft
		}

		dateKey := day.Timestamp.In(c.loc).Format("2006-01-02")
		days[dateKey] = day
	}

	log.Debug().Int("days", len(days)).Msg("fetched daily weather")
	return days, nil
}

func unixPtr(ts *int64) *time.Time {
	if ts == nil {
		return nil
	}
	t := time.Unix(*ts, 0).UTC()
	return &t
}
