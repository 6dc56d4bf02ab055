package proofrequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"credmint/internal/platform/tracer"
)

// maxPollFailures is how many consecutive transient status failures end a session.
const maxPollFailures = 5

// Callbacks receive the outcome of a session. Exactly one of them is called,
// from a background goroutine, unless ctx is cancelled first.
type Callbacks struct {
	OnSuccess func(proofs json.RawMessage)
	OnError   func(err error)
}

// StartSession begins resolving the request in the background. It returns
// once resolution is under way; the outcome arrives through cb.
func (r *Request) StartSession(ctx context.Context, cb Callbacks) error {
	if cb.OnSuccess == nil || cb.OnError == nil {
		return ErrMissingCallbacks
	}
	if r.cfg.StatusURL == "" && r.f.inbox == nil {
		return ErrNoResolution
	}
	if !r.started.CompareAndSwap(false, true) {
		return ErrSessionStarted
	}

	once := &onceCallbacks{cb: cb}
	if r.cfg.StatusURL != "" {
		ticker := r.f.clock.Ticker(r.f.pollInterval)
		go func() {
			defer ticker.Stop()
			r.poll(ctx, ticker.C, once)
		}()
		return nil
	}

	deliveries, release, err := r.f.inbox.Subscribe(r.cfg.SessionID)
	if err != nil {
		r.started.Store(false)
		return err
	}
	go func() {
		defer release()
		r.await(ctx, deliveries, once)
	}()
	return nil
}

func (r *Request) poll(ctx context.Context, ticks <-chan time.Time, cb *onceCallbacks) {
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
		}

		status, err := r.checkStatus(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			failures++
			r.f.logger.WarnContext(ctx, "proof session status check failed",
				"session_id", r.cfg.SessionID,
				"error", err,
				"consecutive_failures", failures,
			)
			if !IsRetryable(err) || failures >= maxPollFailures {
				cb.error(ctx, err)
				return
			}
			continue
		}
		failures = 0

		switch status.Get("status").String() {
		case "verified":
			proofs := status.Get("proofs")
			raw := json.RawMessage("null")
			if proofs.Exists() {
				raw = json.RawMessage(proofs.Raw)
			}
			cb.success(ctx, raw)
			return
		case "failed":
			cb.error(ctx, &SessionError{
				SessionID: r.cfg.SessionID,
				Message:   status.Get("message").String(),
			})
			return
		case "pending", "":
		default:
			r.f.logger.DebugContext(ctx, "unknown proof session status",
				"session_id", r.cfg.SessionID,
				"status", status.Get("status").String(),
			)
		}
	}
}

func (r *Request) checkStatus(ctx context.Context) (res gjson.Result, err error) {
	ctx, span := r.f.tracer.Start(ctx, tracer.SpanStatusPoll,
		tracer.String(tracer.AttrProvider, r.cfg.Provider),
	)
	defer func() { span.End(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.StatusURL, nil)
	if err != nil {
		return gjson.Result{}, NewFetchError(ErrorInternal, r.cfg.Provider, "failed to create status request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.f.client.Do(req)
	if err != nil {
		return gjson.Result{}, NewFetchError(ErrorOutage, r.cfg.Provider, "status request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return gjson.Result{}, NewFetchError(ErrorBadData, r.cfg.Provider, "failed to read status", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return gjson.Result{}, NewFetchError(ErrorRateLimited, r.cfg.Provider, "rate limit exceeded", nil)
	case resp.StatusCode >= http.StatusInternalServerError:
		return gjson.Result{}, NewFetchError(ErrorOutage, r.cfg.Provider, fmt.Sprintf("status endpoint unavailable: %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return gjson.Result{}, NewFetchError(ErrorRejected, r.cfg.Provider, fmt.Sprintf("status endpoint returned %d", resp.StatusCode), nil)
	case !gjson.ValidBytes(body):
		return gjson.Result{}, NewFetchError(ErrorBadData, r.cfg.Provider, "status response is not JSON", nil)
	}

	res = gjson.ParseBytes(body)
	span.SetAttributes(tracer.String(tracer.AttrStatus, res.Get("status").String()))
	return res, nil
}

func (r *Request) await(ctx context.Context, deliveries <-chan Delivery, cb *onceCallbacks) {
	select {
	case <-ctx.Done():
	case d := <-deliveries:
		if d.Error != "" {
			cb.error(ctx, &SessionError{SessionID: r.cfg.SessionID, Message: d.Error})
			return
		}
		cb.success(ctx, d.Proofs)
	}
}

// onceCallbacks drops outcomes after the first one and after cancellation.
type onceCallbacks struct {
	cb   Callbacks
	done bool
}

func (o *onceCallbacks) success(ctx context.Context, proofs json.RawMessage) {
	if o.done || ctx.Err() != nil {
		return
	}
	o.done = true
	o.cb.OnSuccess(proofs)
}

func (o *onceCallbacks) error(ctx context.Context, err error) {
	if o.done || ctx.Err() != nil {
		return
	}
	o.done = true
	if errors.Is(err, context.Canceled) {
		return
	}
	o.cb.OnError(err)
}
