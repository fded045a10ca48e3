package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/metrics"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// HTTPClientConfig bundles the HTTP client used for provider calls.
type HTTPClientConfig struct {
	Client *http.Client
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 512

// newCircuitBreaker returns the breaker shared by all calls of one provider.
// Unknown locations are the caller's problem and do not count as failures.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, weather.ErrNotFound)
		},
	})
}

// doRequest executes exactly one HTTP request through the circuit breaker
// and classifies every failure as weather.ErrNetwork or weather.ErrNotFound.
// The caller owns the returned body.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	endpoint string,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrNetwork, errNoHTTPClient)
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	start := time.Now()
	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %v", weather.ErrNetwork, execErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %s", weather.ErrNotFound, providerMessage(body, resp.Status))
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, fmt.Errorf("%w: %v", weather.ErrNetwork, errRateLimited)
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: %v: %d", weather.ErrNetwork, errServerError, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: %v: %d %s", weather.ErrNetwork, errUnexpected, resp.StatusCode, providerMessage(body, ""))
		}
	})
	metrics.ObserveProviderRequest(cb.Name(), endpoint, start, err)

	if err != nil {
		// If circuit is open, fail fast as a network failure.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v: %v", weather.ErrNetwork, errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from circuit breaker", weather.ErrNetwork)
	}
	return resp, nil
}

// decodeJSON decodes the response body into target and closes it.
func decodeJSON(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: %v", weather.ErrParse, err)
	}
	return nil
}

// providerMessage extracts the "message" field most weather APIs put in
// error bodies, falling back to def.
func providerMessage(body []byte, def string) string {
	var payload struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Error.Message != "":
			return payload.Error.Message
		case payload.Reason != "":
			return payload.Reason
		}
	}
	if def == "" {
		return string(body)
	}
	return def
}
