// Package marine fetches sea state and current forecasts from the
// Open-Meteo marine API.
package marine

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/morlais/tidegate/internal/models"
	"github.com/morlais/tidegate/pkg/http/client"
)

const (
	DefaultBaseURL = "https://api.open-meteo.com"

	DefaultHourly        = "sea_level_height_msl,ocean_current_velocity,ocean_current_direction"
	DefaultForecastHours = 48
)

// Params identifies one marine forecast request. Its Key doubles as the
// cache key for the keyed marine cache.
type Params struct {
	Lat           float64
	Lon           float64
	Hourly        string
	TimeFormat    string
	ForecastHours int
}

func (p Params) withDefaults() Params {
	if p.Hourly == "" {
		p.Hourly = DefaultHourly
	}
	if p.TimeFormat == "" {
		p.TimeFormat = "unixtime"
	}
	if p.ForecastHours == 0 {
		p.ForecastHours = DefaultForecastHours
	}
	return p
}

func (p Params) Key() string {
	p = p.withDefaults()
	return fmt.Sprintf("%g:%g:%s:%s:%d", p.Lat, p.Lon, p.Hourly, p.TimeFormat, p.ForecastHours)
}

type Client struct {
	httpClient *client.Client
}

func NewClient(httpClient *client.Client) *Client {
	return &Client{httpClient: httpClient}
}

// Forecast fetches the hourly marine forecast described by p.
func (c *Client) Forecast(ctx context.Context, p Params) (models.MarineForecast, error) {
	p = p.withDefaults()

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(p.Lon, 'f', -1, 64))
	query.Set("hourly", p.Hourly)
	query.Set("timeformat", p.TimeFormat)
	query.Set("forecast_hours", strconv.Itoa(p.ForecastHours))

	var forecast models.MarineForecast
	if err := c.httpClient.GetJSON(ctx, "/v1/marine", query, &forecast); err != nil {
		return models.MarineForecast{}, fmt.Errorf("fetching marine forecast: %w", err)
	}
	if len(forecast.Hourly.Time) == 0 {
		return models.MarineForecast{}, fmt.Errorf("marine forecast has no hourly series")
	}
	return forecast, nil
}
