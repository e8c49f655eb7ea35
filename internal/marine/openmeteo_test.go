package marine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morlais/tidegate/pkg/http/client"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(client.New(client.Options{BaseURL: srv.URL, Timeout: time.Second}))
}

func TestForecast(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/marine", r.URL.Path)
		assert.Equal(t, "53.28", r.URL.Query().Get("latitude"))
		assert.Equal(t, "-3.83", r.URL.Query().Get("longitude"))
		assert.Equal(t, DefaultHourly, r.URL.Query().Get("hourly"))
		assert.Equal(t, "unixtime", r.URL.Query().Get("timeformat"))
		assert.Equal(t, "48", r.URL.Query().Get("forecast_hours"))

		_, _ = w.Write([]byte(`{
			"latitude": 53.28,
			"longitude": -3.83,
			"hourly_units": {"sea_level_height_msl": "m"},
			"hourly": {
				"time": [1748736000, 1748739600],
				"sea_level_height_msl": [0.42, 0.61]
			}
		}`))
	})

	forecast, err := c.Forecast(context.Background(), Params{Lat: 53.28, Lon: -3.83})
	require.NoError(t, err)
	assert.Equal(t, 53.28, forecast.Latitude)
	require.Len(t, forecast.Hourly.Time, 2)
	assert.InDelta(t, 0.42, forecast.Hourly.SeaLevelHeightMSL[0], 1e-9)
	assert.Equal(t, "m", forecast.HourlyUnits["sea_level_height_msl"])
}

func TestForecastEmptySeries(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude": 53.28, "longitude": -3.83, "hourly": {"time": []}}`))
	})

	_, err := c.Forecast(context.Background(), Params{Lat: 53.28, Lon: -3.83})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no hourly series")
}

func TestParamsKey(t *testing.T) {
	t.Parallel()

	// Defaults are folded in so equivalent requests share a cache entry.
	explicit := Params{
		Lat:           53.28,
		Lon:           -3.83,
		Hourly:        DefaultHourly,
		TimeFormat:    "unixtime",
		ForecastHours: DefaultForecastHours,
	}
	assert.Equal(t, explicit.Key(), Params{Lat: 53.28, Lon: -3.83}.Key())
	assert.NotEqual(t, explicit.Key(), Params{Lat: 51.5, Lon: -0.1}.Key())
}
