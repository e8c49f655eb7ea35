package astro

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

func newTestClient(t *testing.T, handler http.HandlerFunc) *client.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return client.New(client.Options{BaseURL: srv.URL, Timeout: time.Second})
}

func TestSunTimes(t *testing.T) {
	t.Parallel()

	httpClient := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json", r.URL.Path)
		assert.Equal(t, "53.28", r.URL.Query().Get("lat"))
		assert.Equal(t, "-3.83", r.URL.Query().Get("lng"))
		assert.Equal(t, "2025-06-01", r.URL.Query().Get("date"))
		assert.Equal(t, "0", r.URL.Query().Get("formatted"))

		_, _ = w.Write([]byte(`{
			"results": {
				"sunrise": "2025-06-01T03:47:12+00:00",
				"sunset": "2025-06-01T20:28:33+00:00",
				"solar_noon": "2025-06-01T12:07:52+00:00",
				"day_length": 60081
			},
			"status": "OK"
		}`))
	})

	times, err := NewSunClient(httpClient, "Europe/London").Times(context.Background(), "2025-06-01", 53.28, -3.83)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T03:47:12+00:00", times.Sunrise)
	assert.Equal(t, int64(60081), times.DayLength)
	assert.Equal(t, "Europe/London", times.TZID)
}

func TestSunTimesBadStatus(t *testing.T) {
	t.Parallel()

	httpClient := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": {}, "status": "INVALID_DATE"}`))
	})

	_, err := NewSunClient(httpClient, "Europe/London").Times(context.Background(), "not-a-date", 53.28, -3.83)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_DATE")
}

func TestMoonPhase(t *testing.T) {
	t.Parallel()

	httpClient := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/moonphases/", r.URL.Path)
		assert.Equal(t, "1748736000", r.URL.Query().Get("d"))

		_, _ = w.Write([]byte(`[{
			"TargetDate": "1748736000",
			"Phase": "Waxing Crescent",
			"Age": 5.43,
			"Illumination": 0.29
		}]`))
	})

	phase, err := NewMoonClient(httpClient).Phase(context.Background(), 1748736000)
	require.NoError(t, err)
	assert.Equal(t, "Waxing Crescent", phase.Phase)
	assert.InDelta(t, 5.43, phase.Age, 1e-9)
}

func TestMoonPhaseNoRecords(t *testing.T) {
	t.Parallel()

	httpClient := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := NewMoonClient(httpClient).Phase(context.Background(), 1748736000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no records")
}
