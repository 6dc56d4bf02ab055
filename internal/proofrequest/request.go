// Package proofrequest is the client side of the external proof service: it
// fetches and parses proof-request configs, hands the request off to the
// user's companion device and resolves the session with a proof or an error.
package proofrequest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"credmint/internal/platform/tracer"
)

// Config is the serialized proof-request configuration issued by the
// config endpoint.
type Config struct {
	ApplicationID string `json:"applicationId"`
	ProviderID    string `json:"providerId"`
	Provider      string `json:"provider,omitempty"`
	SessionID     string `json:"sessionId"`
	RequestURL    string `json:"requestUrl"`
	StatusURL     string `json:"statusUrl,omitempty"`
	CallbackURL   string `json:"callbackUrl,omitempty"`
	Timestamp     string `json:"timestamp"`
	Signature     string `json:"signature,omitempty"`
}

// ParseConfig decodes and checks the fields a session cannot run without.
func ParseConfig(raw string) (Config, error) {
	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch {
	case cfg.SessionID == "":
		return Config{}, fmt.Errorf("%w: missing sessionId", ErrInvalidConfig)
	case cfg.RequestURL == "":
		return Config{}, fmt.Errorf("%w: missing requestUrl", ErrInvalidConfig)
	case cfg.ProviderID == "":
		return Config{}, fmt.Errorf("%w: missing providerId", ErrInvalidConfig)
	}
	return cfg, nil
}

// Option configures a Factory.
type Option func(*Factory)

func WithHTTPClient(c HTTPDoer) Option {
	return func(f *Factory) { f.client = c }
}

func WithClock(c clock.Clock) Option {
	return func(f *Factory) { f.clock = c }
}

// WithPollInterval sets how often the status URL is polled.
func WithPollInterval(d time.Duration) Option {
	return func(f *Factory) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// WithInbox resolves sessions without a status URL through callback delivery.
func WithInbox(in *Inbox) Option {
	return func(f *Factory) { f.inbox = in }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

func WithTracer(t tracer.Tracer) Option {
	return func(f *Factory) { f.tracer = t }
}

// WithQRSize sets the side length of the hand-off QR code in pixels.
func WithQRSize(px int) Option {
	return func(f *Factory) {
		if px > 0 {
			f.qrSize = px
		}
	}
}

// Factory builds Requests that share transport, timing and inbox settings.
type Factory struct {
	client       HTTPDoer
	clock        clock.Clock
	pollInterval time.Duration
	inbox        *Inbox
	logger       *slog.Logger
	tracer       tracer.Tracer
	qrSize       int
}

func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		client:       &http.Client{Timeout: 10 * time.Second},
		clock:        clock.New(),
		pollInterval: 3 * time.Second,
		logger:       slog.Default(),
		tracer:       tracer.NewNoop(),
		qrSize:       256,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FromJSONString builds a Request from a serialized config.
func (f *Factory) FromJSONString(raw string) (*Request, error) {
	cfg, err := ParseConfig(raw)
	if err != nil {
		return nil, err
	}
	return &Request{cfg: cfg, f: f}, nil
}

// Request is one proof request. TriggerFlow may be called any number of
// times; StartSession only once.
type Request struct {
	cfg     Config
	f       *Factory
	started atomic.Bool
}

func (r *Request) Config() Config { return r.cfg }

func (r *Request) SessionID() string { return r.cfg.SessionID }
