// Package worldtides fetches tide forecasts for the gate location from the
// WorldTides v3 API and converts them into the strict internal shapes before
// anything downstream sees them.
package worldtides

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/morlais/tidegate/internal/models"
	"github.com/morlais/tidegate/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://www.worldtides.info/api"

	// WorldTides meters requests by the day; one call covers at most a week.
	maxChunkDays = 7

	// Heights are requested against chart datum, the reference the gate
	// threshold is configured in.
	heightDatum = "CD"
)

type Client struct {
	httpClient *client.Client
	key        string
	lat        float64
	lon        float64
}

func NewClient(httpClient *client.Client, key string, lat, lon float64) *Client {
	return &Client{
		httpClient: httpClient,
		key:        key,
		lat:        lat,
		lon:        lon,
	}
}

// Raw WorldTides response shapes.
type apiExtreme struct {
	DT     int64   `json:"dt"`
	Height float64 `json:"height"`
	Type   string  `json:"type"`
}

type apiHeight struct {
	DT     int64   `json:"dt"`
	Height float64 `json:"height"`
}

type apiResponse struct {
	Status   int          `json:"status"`
	Error    string       `json:"error,omitempty"`
	Extremes []apiExtreme `json:"extremes,omitempty"`
	Heights  []apiHeight  `json:"heights,omitempty"`
}

// Extremes fetches predicted high/low waters for days starting at start,
// chunked to respect the per-call window.
func (c *Client) Extremes(ctx context.Context, start time.Time, days int) ([]models.TideExtreme, error) {
	var extremes []models.TideExtreme

	current := start
	remaining := days
	for remaining > 0 {
		chunkDays := remaining
		if chunkDays > maxChunkDays {
			chunkDays = maxChunkDays
		}

		resp, err := c.fetch(ctx, "extremes", current, chunkDays, nil)
		if err != nil {
			return nil, err
		}

		for _, e := range resp.Extremes {
			extreme, err := convertExtreme(e)
			if err != nil {
				return nil, err
			}
			extremes = append(extremes, extreme)
		}

		current = current.AddDate(0, 0, chunkDays)
		remaining -= chunkDays
	}

	sortChronological(extremes, func(e models.TideExtreme) time.Time { return e.Timestamp })
	log.Debug().Int("count", len(extremes)).Int("days", days).Msg("fetched tide extremes")
	return extremes, nil
}

// Heights fetches the half-hour tide height series for days starting at
// start, measured against chart datum.
func (c *Client) Heights(ctx context.Context, start time.Time, days int) ([]models.TideSample, error) {
	var samples []models.TideSample

	current := start
	remaining := days
	for remaining > 0 {
		chunkDays := remaining
		if chunkDays > maxChunkDays {
			chunkDays = maxChunkDays
		}

		resp, err := c.fetch(ctx, "heights", current, chunkDays, url.Values{"datum": {heightDatum}})
		if err != nil {
			return nil, err
		}

		for _, h := range resp.Heights {
			if h.DT <= 0 {
				return nil, NewAPIError(fmt.Sprintf("height sample has invalid timestamp %d", h.DT), nil)
			}
			samples = append(samples, models.TideSample{
				Timestamp: time.Unix(h.DT, 0).UTC(),
				Height:    h.Height,
			})
		}

		current = current.AddDate(0, 0, chunkDays)
		remaining -= chunkDays
	}

	sortChronological(samples, func(s models.TideSample) time.Time { return s.Timestamp })
	log.Debug().Int("count", len(samples)).Int("days", days).Msg("fetched tide heights")
	return samples, nil
}

func (c *Client) fetch(ctx context.Context, product string, start time.Time, days int, extra url.Values) (*apiResponse, error) {
	query := url.Values{}
	query.Set(product, "")
	query.Set("lat", strconv.FormatFloat(c.lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(c.lon, 'f', -1, 64))
	query.Set("date", start.UTC().Format("2006-01-02"))
	query.Set("days", strconv.Itoa(days))
	query.Set("key", c.key)
	for k, vs := range extra {
		for _, v := range vs {
			query.Set(k, v)
		}
	}

	var resp apiResponse
	if err := c.httpClient.GetJSON(ctx, "/v3", query, &resp); err != nil {
		return nil, NewAPIError(fmt.Sprintf("fetching %s", product), err)
	}
	if resp.Error != "" {
		return nil, NewAPIError(resp.Error, nil)
	}
	return &resp, nil
}

func convertExtreme(e apiExtreme) (models.TideExtreme, error) {
	var tideType models.TideType
	switch e.Type {
	case "High":
		tideType = models.TideTypeHigh
	case "Low":
		tideType = models.TideTypeLow
	default:
		return models.TideExtreme{}, NewAPIError(fmt.Sprintf("unknown extreme type %q", e.Type), nil)
	}

	return models.TideExtreme{
		Type:      tideType,
		Timestamp: time.Unix(e.DT, 0).UTC(),
		Height:    e.Height,
	}, nil
}

// sortChronological keeps the series ordered even if chunk boundaries
// overlap upstream.
func sortChronological[T any](items []T, at func(T) time.Time) {
	sort.Slice(items, func(i, j int) bool {
		return at(items[i]).Before(at(items[j]))
	})
}
