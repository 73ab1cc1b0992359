package clients

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const userIDHeader = "X-User-ID"

// ParkingClient proxies calls to parking-service.
type ParkingClient struct {
	base *BaseClient
}

// NewParkingClient returns client.
func NewParkingClient(baseURL string, httpClient HTTPDoer) *ParkingClient {
	return &ParkingClient{base: NewBaseClient(baseURL, httpClient)}
}

// BaseURL returns the parking-service root.
func (c *ParkingClient) BaseURL() string {
	return c.base.BaseURL()
}

// Zones fetches the tariff.
func (c *ParkingClient) Zones(ctx context.Context) (*Response, error) {
	return c.base.Do(ctx, http.MethodGet, "/zones", nil, nil, nil)
}

// Forward sends a user request to path on behalf of userID.
func (c *ParkingClient) Forward(ctx context.Context, userID int64, method, path string, query url.Values, body []byte) (*Response, error) {
	headers := map[string]string{
		userIDHeader: strconv.FormatInt(userID, 10),
	}
	return c.base.Do(ctx, method, path, query, body, headers)
}
