// Package astro fetches sunrise/sunset times and moon phases for the
// boundary layer's astronomy endpoints.
package astro

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/morlais/tidegate/internal/models"
	"github.com/morlais/tidegate/pkg/http/client"
)

const DefaultSunriseBaseURL = "https://api.sunrise-sunset.org"

type SunClient struct {
	httpClient *client.Client
	tzid       string
}

// NewSunClient returns a client for the sunrise-sunset API. tzid is attached
// to every result so consumers know which civil timezone to render in.
func NewSunClient(httpClient *client.Client, tzid string) *SunClient {
	return &SunClient{httpClient: httpClient, tzid: tzid}
}

type sunResponse struct {
	Results models.SunTimes `json:"results"`
	Status  string          `json:"status"`
}

// Times fetches sunrise/sunset times for one date (YYYY-MM-DD) and location,
// with upstream formatting disabled so times come back as ISO-8601 UTC.
func (c *SunClient) Times(ctx context.Context, date string, lat, lng float64) (models.SunTimes, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("date", date)
	query.Set("formatted", "0")

	var resp sunResponse
	if err := c.httpClient.GetJSON(ctx, "/json", query, &resp); err != nil {
		return models.SunTimes{}, fmt.Errorf("fetching sunrise/sunset: %w", err)
	}
	if resp.Status != "OK" {
		return models.SunTimes{}, fmt.Errorf("sunrise/sunset API returned status %q", resp.Status)
	}

	times := resp.Results
	times.TZID = c.tzid
	return times, nil
}
