package worldtides

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/morlais/tidegate/internal/models"
	"github.com/morlais/tidegate/pkg/http/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := client.New(client.Options{BaseURL: server.URL, MaxRetries: 1})
	return NewClient(httpClient, "test-key", 53.28, -3.83), server
}

func TestHeightsDecodeAndOrder(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CD", r.URL.Query().Get("datum"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "53.28", r.URL.Query().Get("lat"))

		// Deliberately out of order; the client must sort.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": 200,
			"heights": []map[string]any{
				{"dt": base.Add(30 * time.Minute).Unix(), "height": 3.4},
				{"dt": base.Unix(), "height": 3.1},
			},
		})
	})

	samples, err := c.Heights(context.Background(), base, 1)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, base, samples[0].Timestamp)
	assert.Equal(t, 3.1, samples[0].Height)
	assert.True(t, samples[1].Timestamp.After(samples[0].Timestamp))
}

func TestHeightsChunksLongRanges(t *testing.T) {
	t.Parallel()

	var requests []struct {
		date string
		days int
	}

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		days, err := strconv.Atoi(r.URL.Query().Get("days"))
		require.NoError(t, err)
		requests = append(requests, struct {
			date string
			days int
		}{r.URL.Query().Get("date"), days})
		_ = json.NewEncoder(w).Encode(map[string]any{"status": 200, "heights": []any{}})
	})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := c.Heights(context.Background(), start, 16)
	require.NoError(t, err)

	require.Len(t, requests, 3, "16 days should fetch as 7+7+2")
	assert.Equal(t, 7, requests[0].days)
	assert.Equal(t, "2025-06-01", requests[0].date)
	assert.Equal(t, 7, requests[1].days)
	assert.Equal(t, "2025-06-08", requests[1].date)
	assert.Equal(t, 2, requests[2].days)
	assert.Equal(t, "2025-06-15", requests[2].date)
}

func TestExtremesDecodeTypes(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 4, 12, 0, 0, time.UTC)

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasExtremes := r.URL.Query()["extremes"]
		assert.True(t, hasExtremes)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": 200,
			"extremes": []map[string]any{
				{"dt": base.Unix(), "height": 7.2, "type": "High"},
				{"dt": base.Add(6 * time.Hour).Unix(), "height": 0.8, "type": "Low"},
			},
		})
	})

	extremes, err := c.Extremes(context.Background(), base, 1)
	require.NoError(t, err)
	require.Len(t, extremes, 2)

	assert.Equal(t, models.TideTypeHigh, extremes[0].Type)
	assert.Equal(t, base, extremes[0].Timestamp)
	assert.Equal(t, models.TideTypeLow, extremes[1].Type)
}

func TestExtremesRejectsUnknownType(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   200,
			"extremes": []map[string]any{{"dt": 1748750000, "height": 7.2, "type": "Slack"}},
		})
	})

	_, err := c.Extremes(context.Background(), time.Now(), 1)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "Slack")
}

func TestAPIErrorBodySurfaced(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": 400, "error": "invalid API key"})
	})

	_, err := c.Heights(context.Background(), time.Now(), 1)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid API key", apiErr.Message)
}

func TestUpstreamStatusErrorWrapped(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := c.Heights(context.Background(), time.Now(), 1)
	require.Error(t, err)

	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestHeightsRejectsInvalidTimestamp(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":200,"heights":[{"dt":0,"height":3.0}]}`)
	})

	_, err := c.Heights(context.Background(), time.Now(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timestamp")
}
