package proofrequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"credmint/internal/platform/tracer"
)

const maxResponseBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ConfigResponse is the body of GET /verification-config/{provider}.
type ConfigResponse struct {
	Success      bool   `json:"success"`
	ProofRequest string `json:"proofRequest,omitempty"`
	Error        string `json:"error,omitempty"`
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	BaseURL    string
	HTTPClient HTTPDoer
	Timeout    time.Duration
	Retries    uint64
	// BackOff builds the retry schedule for one Fetch. Defaults to exponential.
	BackOff func() backoff.BackOff
	Logger  *slog.Logger
	Tracer  tracer.Tracer
}

// Fetcher loads serialized proof-request configs from the config endpoint.
type Fetcher struct {
	baseURL    string
	client     HTTPDoer
	timeout    time.Duration
	retries    uint64
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
	tracer     tracer.Tracer
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.BackOff == nil {
		cfg.BackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracer.NewNoop()
	}
	return &Fetcher{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		client:     cfg.HTTPClient,
		timeout:    cfg.Timeout,
		retries:    cfg.Retries,
		newBackOff: cfg.BackOff,
		logger:     cfg.Logger,
		tracer:     cfg.Tracer,
	}
}

// Fetch returns the serialized proof-request config for provider. Transient
// failures are retried; a response without success is returned as a
// non-retryable FetchError carrying the server's message.
func (f *Fetcher) Fetch(ctx context.Context, provider string) (raw string, err error) {
	ctx, span := f.tracer.Start(ctx, tracer.SpanConfigFetch, tracer.String(tracer.AttrProvider, provider))
	defer func() { span.End(err) }()

	attempts := 0
	op := func() error {
		attempts++
		cfg, opErr := f.fetchOnce(ctx, provider)
		if opErr != nil {
			if ctx.Err() != nil || !IsRetryable(opErr) {
				return backoff.Permanent(opErr)
			}
			return opErr
		}
		raw = cfg
		return nil
	}
	notify := func(err error, wait time.Duration) {
		f.logger.WarnContext(ctx, "verification config fetch failed, retrying",
			"provider", provider,
			"error", err,
			"wait", wait,
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(f.newBackOff(), f.retries), ctx)
	err = backoff.RetryNotify(op, policy, notify)
	span.SetAttributes(tracer.Int64(tracer.AttrRetryCount, int64(attempts-1)))
	if err != nil {
		return "", err
	}
	return raw, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, provider string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/verification-config/%s", f.baseURL, url.PathEscape(provider))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", NewFetchError(ErrorInternal, provider, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", NewFetchError(ErrorTimeout, provider, "request timeout", err)
		}
		return "", NewFetchError(ErrorOutage, provider, "failed to execute request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", NewFetchError(ErrorBadData, provider, "failed to read response", err)
	}

	var data ConfigResponse
	decodeErr := json.Unmarshal(body, &data)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", NewFetchError(ErrorRateLimited, provider, "rate limit exceeded", nil)
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", NewFetchError(ErrorOutage, provider, fmt.Sprintf("config endpoint unavailable: %d", resp.StatusCode), nil)
	case decodeErr != nil:
		return "", NewFetchError(ErrorBadData, provider, "failed to parse response", decodeErr)
	case !data.Success || data.ProofRequest == "":
		msg := data.Error
		if msg == "" {
			msg = "Failed to fetch verification config"
		}
		return "", NewFetchError(ErrorNotConfigured, provider, msg, nil)
	}
	return data.ProofRequest, nil
}
