package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/i474232898/weather-lookup/internal/metrics"
	"github.com/i474232898/weather-lookup/internal/weather"
)

const defaultIPLookupURL = "http://ip-api.com/json"

// IPProvider approximates the device position from its public IP address.
type IPProvider struct {
	client  *http.Client
	baseURL string
}

func NewIPProvider(client *http.Client) *IPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &IPProvider{client: client, baseURL: defaultIPLookupURL}
}

// WithBaseURL overrides the lookup endpoint.
func (p *IPProvider) WithBaseURL(u string) *IPProvider {
	p.baseURL = u
	return p
}

type ipAPIResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (p *IPProvider) CurrentFix(ctx context.Context) (fix Fix, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProviderRequest("ip-api", "json", start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return Fix{}, fmt.Errorf("%w: build request: %v", weather.ErrLocation, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Fix{}, fmt.Errorf("%w: ip lookup: %v", weather.ErrLocation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Fix{}, fmt.Errorf("%w: ip lookup status %d", weather.ErrLocation, resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Fix{}, fmt.Errorf("%w: decode ip lookup: %v", weather.ErrLocation, err)
	}
	if body.Status != "success" {
		return Fix{}, fmt.Errorf("%w: %s", ErrUnavailable, body.Message)
	}
	if body.Lat == nil || body.Lon == nil {
		return Fix{}, ErrUnavailable
	}

	return Fix{Latitude: *body.Lat, Longitude: *body.Lon}, nil
}
