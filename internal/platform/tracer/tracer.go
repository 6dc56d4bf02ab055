// Package tracer provides a lightweight tracing abstraction so verification,
// config fetching and minting can emit spans without importing OpenTelemetry
// everywhere.
//
// Implementations:
//   - NoopTracer: for tests
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"strings"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span; the returned context carries it.
	//
	// Example:
	//   ctx, span := t.Start(ctx, tracer.SpanMint,
	//       tracer.String(tracer.AttrCollection, "coinbase-kyc"),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// ShortAddress keeps the first and last four hex digits of a wallet address
// so traces can be correlated without carrying full addresses.
func ShortAddress(address string) string {
	a := strings.TrimPrefix(strings.ToLower(address), "0x")
	if len(a) <= 8 {
		return a
	}
	return a[:4] + ".." + a[len(a)-4:]
}

// Span names.
const (
	SpanConfigFetch   = "verification.config_fetch"
	SpanTriggerFlow   = "verification.trigger_flow"
	SpanStatusPoll    = "verification.status_poll"
	SpanMint          = "credential.mint"
	SpanReconcile     = "credential.reconcile"
	SpanConfigBuild   = "verification.config_build"
	SpanCallbackInbox = "verification.callback"
)

// Attribute keys.
const (
	AttrProvider   = "provider"
	AttrCollection = "collection"
	AttrAddress    = "wallet.address"
	AttrAttempt    = "attempt"
	AttrTxHash     = "tx.hash"
	AttrRetryCount = "retry.count"
	AttrStatus     = "status"
	AttrTokens     = "tokens"
)
