package pricingapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
)

func newTestClient(url string) *Client {
	c := NewClient(url, 1000)
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8000/api/v1/predict", 0)

	assert.Equal(t, "http://localhost:8000/api/v1/predict", client.apiURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
	}
}

func TestPredict_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req domain.PredictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Nike Pack of 12", req.CatalogContent)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.PricePrediction{
			PredictedPrice: 42.5,
			Currency:       "USD",
			Status:         "success",
			ModelVersion:   "01J0000000000000000000000",
		})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Predict(context.Background(), "Nike Pack of 12")
	require.NoError(t, err)
	assert.Equal(t, 42.5, result.PredictedPrice)
	assert.Equal(t, "USD", result.Currency)
	assert.Equal(t, "success", result.Status)
}

func TestPredict_RetriesUnavailable(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(domain.PricePrediction{PredictedPrice: 1, Currency: "USD", Status: "success"})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Predict(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.PredictedPrice)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPredict_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Predict(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrRemoteAPIFailure)
	assert.ErrorContains(t, err, "status 502")
	assert.Equal(t, int32(maxAttempts), atomic.LoadInt32(&calls))
}

func TestPredict_DoesNotRetryServerErrors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"prediction failure", http.StatusInternalServerError, `{"status":"error","error":"price prediction failed"}`, "price prediction failed"},
		{"bad request", http.StatusBadRequest, `{"status":"error","error":"invalid request parameters"}`, "status 400"},
		{"rate limited", http.StatusTooManyRequests, `not json`, "status 429"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Predict(context.Background(), "x")
			assert.ErrorIs(t, err, domain.ErrRemoteAPIFailure)
			assert.ErrorContains(t, err, tc.want)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestPredict_RetriesTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Predict(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrRemoteAPIFailure)
}

func TestPredict_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).Predict(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredict_InvalidJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{broken"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Predict(context.Background(), "x")
	assert.ErrorContains(t, err, "failed to decode response")
}
