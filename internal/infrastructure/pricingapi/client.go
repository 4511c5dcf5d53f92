// Package pricingapi is an HTTP client for the price prediction API
package pricingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
)

const maxAttempts = 3

// Client calls the /predict endpoint of a running pricing server
type Client struct {
	httpClient  *http.Client
	apiURL      string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
}

// NewClient creates a client for the predict endpoint at apiURL, paced to
// requestsPerSecond with a burst of 5
func NewClient(apiURL string, requestsPerSecond float64) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiURL:      apiURL,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 5),
		backoff:     exponentialBackoff,
	}
}

// exponentialBackoff returns 500ms, 1s, 2s for attempts 1, 2, 3
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500<<(attempt-1)) * time.Millisecond
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Predict asks the server for the price of one catalog text. Transport
// errors and 502/503/504 are retried; any other failure is returned at once.
func (c *Client) Predict(ctx context.Context, text string) (*domain.PricePrediction, error) {
	body, err := json.Marshal(domain.PredictRequest{CatalogContent: text})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		result, retry, err := c.do(ctx, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}

		log.Warn().
			Err(err).
			Str("component", "pricingapi").
			Int("attempt", attempt).
			Msg("predict request failed")

		if attempt < maxAttempts {
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

// do performs one request and reports whether a failure is worth retrying
func (c *Client) do(ctx context.Context, body []byte) (*domain.PricePrediction, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pricectl/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("%w: %v", domain.ErrRemoteAPIFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %v", domain.ErrRemoteAPIFailure, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var prediction domain.PricePrediction
		if err := json.Unmarshal(data, &prediction); err != nil {
			return nil, false, fmt.Errorf("failed to decode response: %w", err)
		}
		return &prediction, false, nil
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, true, fmt.Errorf("%w: status %d", domain.ErrRemoteAPIFailure, resp.StatusCode)
	default:
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return nil, false, fmt.Errorf("%w: status %d: %s", domain.ErrRemoteAPIFailure, resp.StatusCode, e.Error)
		}
		return nil, false, fmt.Errorf("%w: status %d", domain.ErrRemoteAPIFailure, resp.StatusCode)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
