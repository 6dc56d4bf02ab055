package proofrequest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credmint/internal/platform/logger"
)

func newTestFetcher(url string, retries uint64) *Fetcher {
	return NewFetcher(FetcherConfig{
		BaseURL: url,
		Retries: retries,
		Timeout: time.Second,
		BackOff: func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) },
		Logger:  logger.Discard(),
	})
}

func TestFetch(t *testing.T) {
	t.Run("returns the serialized config", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/verification-config/coinbase", r.URL.Path)
			_, _ = w.Write([]byte(`{"success":true,"proofRequest":"{\"sessionId\":\"s1\"}"}`))
		}))
		defer srv.Close()

		raw, err := newTestFetcher(srv.URL, 0).Fetch(context.Background(), "coinbase")
		require.NoError(t, err)
		assert.Equal(t, `{"sessionId":"s1"}`, raw)
	})

	t.Run("unsuccessful response carries the server message", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"no config"}`))
		}))
		defer srv.Close()

		_, err := newTestFetcher(srv.URL, 3).Fetch(context.Background(), "binance")
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, ErrorNotConfigured, fe.Category)
		assert.Equal(t, "no config", fe.Message)
		assert.False(t, fe.Retryable)
		assert.Equal(t, int32(1), calls.Load(), "permanent failures are not retried")
	})

	t.Run("missing proof request uses the default message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"success":true}`))
		}))
		defer srv.Close()

		_, err := newTestFetcher(srv.URL, 0).Fetch(context.Background(), "x")
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "Failed to fetch verification config", fe.Message)
	})

	t.Run("retries outages", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"success":true,"proofRequest":"cfg"}`))
		}))
		defer srv.Close()

		raw, err := newTestFetcher(srv.URL, 2).Fetch(context.Background(), "example")
		require.NoError(t, err)
		assert.Equal(t, "cfg", raw)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newTestFetcher(srv.URL, 1).Fetch(context.Background(), "example")
		require.Error(t, err)
		assert.True(t, IsRetryable(err))
	})

	t.Run("malformed body is bad data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := newTestFetcher(srv.URL, 0).Fetch(context.Background(), "example")
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, ErrorBadData, fe.Category)
	})
}
