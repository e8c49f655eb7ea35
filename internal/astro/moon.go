package astro

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/morlais/tidegate/internal/models"
	"github.com/morlais/tidegate/pkg/http/client"
)

const DefaultMoonBaseURL = "https://api.farmsense.net"

type MoonClient struct {
	httpClient *client.Client
}

func NewMoonClient(httpClient *client.Client) *MoonClient {
	return &MoonClient{httpClient: httpClient}
}

// Phase fetches the moon phase for the UTC timestamp ts. The upstream
// answers with a list; the first record is the requested day.
func (c *MoonClient) Phase(ctx context.Context, ts int64) (models.MoonPhase, error) {
	query := url.Values{}
	query.Set("d", strconv.FormatInt(ts, 10))

	var resp []models.MoonPhase
	if err := c.httpClient.GetJSON(ctx, "/v1/moonphases/", query, &resp); err != nil {
		return models.MoonPhase{}, fmt.Errorf("fetching moon phase: %w", err)
	}
	if len(resp) == 0 {
		return models.MoonPhase{}, fmt.Errorf("moon phase API returned no records for %d", ts)
	}
	return resp[0], nil
}
