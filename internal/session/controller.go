// Package session drives one wallet's verification attempts against the proof
// service: fetch config, hand off to the companion device, wait for the proof,
// validate it and report the outcome.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"credmint/internal/audit"
	"credmint/internal/platform/metrics"
	"credmint/internal/proof"
	"credmint/internal/proofrequest"
)

// ConfigFetcher loads the serialized proof-request config for a provider.
type ConfigFetcher interface {
	Fetch(ctx context.Context, provider string) (string, error)
}

// ProofRequest is one request built from a serialized config.
type ProofRequest interface {
	TriggerFlow(ctx context.Context) (*proofrequest.Handoff, error)
	StartSession(ctx context.Context, cb proofrequest.Callbacks) error
}

// RequestFactory builds a ProofRequest from a serialized config.
type RequestFactory interface {
	New(raw string) (ProofRequest, error)
}

// RequestFactoryFunc adapts a function to RequestFactory.
type RequestFactoryFunc func(raw string) (ProofRequest, error)

func (f RequestFactoryFunc) New(raw string) (ProofRequest, error) { return f(raw) }

// Status is the externally visible state of a controller.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusRequesting     Status = "requesting"
	StatusAwaitingMobile Status = "awaiting_mobile"
	StatusVerified       Status = "verified"
	StatusFailed         Status = "failed"
)

// InFlight reports whether an attempt is still waiting on the proof service.
func (s Status) InFlight() bool {
	return s == StatusRequesting || s == StatusAwaitingMobile
}

// Snapshot is the view of a controller handed to the dashboard.
type Snapshot struct {
	Status     Status                `json:"status"`
	Provider   string                `json:"provider,omitempty"`
	Error      string                `json:"error,omitempty"`
	ErrorKind  ErrorKind             `json:"error_kind,omitempty"`
	Proof      json.RawMessage       `json:"proof,omitempty"`
	IsVerified bool                  `json:"isVerified"`
	Handoff    *proofrequest.Handoff `json:"handoff,omitempty"`
	AttemptID  string                `json:"attempt_id,omitempty"`
}

// Verified is passed to the verified hook once per successful attempt.
type Verified struct {
	Address   string
	Provider  string
	AttemptID string
	Proof     proof.Accepted
}

// attempt owns everything one Start call allocates. It is only touched
// under Controller.mu.
type attempt struct {
	gen      uint64
	id       string
	provider string
	ctx      context.Context
	cancel   context.CancelFunc
	request  ProofRequest
	grace    *clock.Timer
	deadline *clock.Timer
	display  *clock.Timer
	released bool
}

// Controller is the verification state machine for one wallet address.
// All methods are safe for concurrent use.
type Controller struct {
	address   string
	fetcher   ConfigFetcher
	factory   RequestFactory
	validator *proof.Validator

	clock        clock.Clock
	graceDelay   time.Duration
	displayDelay time.Duration
	awaitTimeout time.Duration
	onVerified   func(Verified)

	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor *audit.Publisher

	mu      sync.Mutex
	gen     uint64
	current *attempt
	closed  bool
	snap    Snapshot
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock drives the grace, display and await timers; tests pass a mock.
func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithGraceDelay sets how long Requesting lasts after a successful hand-off.
func WithGraceDelay(d time.Duration) Option {
	return func(ctl *Controller) { ctl.graceDelay = d }
}

// WithDisplayDelay sets how long Verified is shown before returning to Idle.
func WithDisplayDelay(d time.Duration) Option {
	return func(ctl *Controller) { ctl.displayDelay = d }
}

// WithAwaitTimeout bounds the wait for the proof; zero waits forever.
func WithAwaitTimeout(d time.Duration) Option {
	return func(ctl *Controller) { ctl.awaitTimeout = d }
}

// WithOnVerified registers a hook called once per verified attempt, outside
// the controller lock.
func WithOnVerified(fn func(Verified)) Option {
	return func(ctl *Controller) { ctl.onVerified = fn }
}

// WithValidator replaces the validator that gates proofs before Verified.
func WithValidator(v *proof.Validator) Option {
	return func(ctl *Controller) { ctl.validator = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

// WithMetrics records session outcomes; nil disables them.
func WithMetrics(m *metrics.Metrics) Option {
	return func(ctl *Controller) { ctl.metrics = m }
}

// WithAuditor records started, verified, failed and cancelled events.
func WithAuditor(p *audit.Publisher) Option {
	return func(ctl *Controller) { ctl.auditor = p }
}

func NewController(address string, fetcher ConfigFetcher, factory RequestFactory, opts ...Option) *Controller {
	ctl := &Controller{
		address:      address,
		fetcher:      fetcher,
		factory:      factory,
		clock:        clock.New(),
		graceDelay:   time.Second,
		displayDelay: 2 * time.Second,
		awaitTimeout: 5 * time.Minute,
		logger:       slog.Default(),
		snap:         Snapshot{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(ctl)
	}
	if ctl.validator == nil {
		ctl.validator = proof.NewValidator(ctl.logger)
	}
	return ctl
}

func (c *Controller) Address() string { return c.address }

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	s.IsVerified = s.Status == StatusVerified
	return s
}

// Start cancels any previous attempt and runs a new one for provider up to
// the point where the proof service is waiting on the companion device. The
// outcome of the session itself arrives asynchronously and shows up in
// Snapshot. Start returns a *Error when the attempt failed and ErrSuperseded
// when Cancel or another Start overtook it.
func (c *Controller) Start(ctx context.Context, provider string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	prev := c.resetLocked()
	c.gen++
	a := &attempt{gen: c.gen, id: uuid.NewString(), provider: provider}
	a.ctx, a.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.current = a
	c.snap = Snapshot{Status: StatusRequesting, Provider: provider, AttemptID: a.id}
	c.mu.Unlock()

	if prev != nil {
		c.record(ctx, prev, audit.ActionVerificationCancelled, "superseded")
	}
	c.metrics.IncSessionStarted(provider)
	c.record(ctx, a, audit.ActionVerificationStarted, "")
	c.logger.InfoContext(ctx, "verification started",
		"address", c.address,
		"provider", provider,
		"attempt_id", a.id,
	)

	raw, err := c.fetcher.Fetch(a.ctx, provider)
	if err != nil {
		return c.fail(a, KindConfigFetch, humanMessage(err, msgConfigFetch), err)
	}
	if !c.isCurrent(a) {
		return ErrSuperseded
	}

	req, err := c.factory.New(raw)
	if err != nil {
		return c.fail(a, KindProofRequest, humanMessage(err, msgFlow), err)
	}

	handoff, err := req.TriggerFlow(a.ctx)
	if err != nil {
		return c.fail(a, KindProofRequest, humanMessage(err, msgFlow), err)
	}

	c.mu.Lock()
	if !c.isCurrentLocked(a) {
		c.mu.Unlock()
		return ErrSuperseded
	}
	a.request = req
	c.snap.Handoff = handoff
	a.grace = c.clock.AfterFunc(c.graceDelay, func() { c.onGrace(a) })
	if c.awaitTimeout > 0 {
		a.deadline = c.clock.AfterFunc(c.awaitTimeout, func() { c.onDeadline(a) })
	}
	c.mu.Unlock()

	err = req.StartSession(a.ctx, proofrequest.Callbacks{
		OnSuccess: func(proofs json.RawMessage) { c.onProof(a, proofs) },
		OnError:   func(err error) { c.onProviderError(a, err) },
	})
	if err != nil {
		return c.fail(a, KindProofRequest, humanMessage(err, msgFlow), err)
	}
	return nil
}

// Cancel abandons any attempt and returns to Idle. Calling it again, or from
// Idle, changes nothing.
func (c *Controller) Cancel() {
	c.mu.Lock()
	prev := c.resetLocked()
	c.snap = Snapshot{Status: StatusIdle}
	c.mu.Unlock()

	if prev != nil {
		c.metrics.IncSessionCancelled()
		c.record(context.Background(), prev, audit.ActionVerificationCancelled, "")
		c.logger.Info("verification cancelled", "address", c.address, "attempt_id", prev.id)
	}
}

// Close cancels the current attempt and makes later Starts fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	prev := c.resetLocked()
	c.snap = Snapshot{Status: StatusIdle}
	c.mu.Unlock()

	if prev != nil {
		c.metrics.IncSessionCancelled()
		c.record(context.Background(), prev, audit.ActionVerificationCancelled, "controller closed")
		c.logger.Info("verification cancelled on close", "address", c.address, "attempt_id", prev.id)
	}
}

// resetLocked tears down the current attempt and returns it if it was still
// waiting on the proof service.
func (c *Controller) resetLocked() *attempt {
	a := c.current
	if a == nil {
		return nil
	}
	inFlight := c.snap.Status.InFlight()
	c.releaseLocked(a)
	if a.display != nil {
		a.display.Stop()
	}
	c.current = nil
	if inFlight {
		return a
	}
	return nil
}

// releaseLocked stops the attempt's session-bound timers, cancels its
// context and drops the proof-request handle.
func (c *Controller) releaseLocked(a *attempt) {
	if a.grace != nil {
		a.grace.Stop()
	}
	if a.deadline != nil {
		a.deadline.Stop()
	}
	a.cancel()
	a.request = nil
	if !a.released {
		a.released = true
		c.metrics.IncSessionEnded()
	}
}

func (c *Controller) isCurrent(a *attempt) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCurrentLocked(a)
}

func (c *Controller) isCurrentLocked(a *attempt) bool {
	return c.current != nil && c.current.gen == a.gen
}

// fail moves a still-current attempt to Failed.
func (c *Controller) fail(a *attempt, kind ErrorKind, msg string, cause error) error {
	c.mu.Lock()
	if !c.isCurrentLocked(a) || !c.snap.Status.InFlight() {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.releaseLocked(a)
	c.current = nil
	c.snap.Status = StatusFailed
	c.snap.Error = msg
	c.snap.ErrorKind = kind
	c.snap.Proof = nil
	c.snap.Handoff = nil
	c.mu.Unlock()

	c.metrics.IncSessionFailed(a.provider, string(kind))
	if kind == KindValidation {
		c.metrics.IncProofRejected()
		c.record(context.Background(), a, audit.ActionProofRejected, msg)
	}
	c.record(context.Background(), a, audit.ActionVerificationFailed, string(kind)+": "+msg)
	c.logger.Warn("verification failed",
		"address", c.address,
		"provider", a.provider,
		"attempt_id", a.id,
		"kind", kind,
		"error", cause,
	)
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func (c *Controller) onGrace(a *attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isCurrentLocked(a) && c.snap.Status == StatusRequesting {
		c.snap.Status = StatusAwaitingMobile
	}
}

func (c *Controller) onDeadline(a *attempt) {
	_ = c.fail(a, KindTimeout, msgTimeout, context.DeadlineExceeded)
}

func (c *Controller) onProviderError(a *attempt, err error) {
	_ = c.fail(a, KindProvider, humanMessage(err, msgProvider), err)
}

func (c *Controller) onProof(a *attempt, raw json.RawMessage) {
	accepted, ok := c.validator.Accept(raw)
	if !ok {
		_ = c.fail(a, KindValidation, msgValidation, nil)
		return
	}

	c.mu.Lock()
	if !c.isCurrentLocked(a) || !c.snap.Status.InFlight() {
		c.mu.Unlock()
		return
	}
	c.releaseLocked(a)
	c.snap.Status = StatusVerified
	c.snap.Proof = json.RawMessage(accepted.String())
	c.snap.Handoff = nil
	a.display = c.clock.AfterFunc(c.displayDelay, func() { c.onDisplayed(a) })
	hook := c.onVerified
	c.mu.Unlock()

	c.metrics.IncSessionVerified(a.provider)
	c.record(context.Background(), a, audit.ActionVerificationSucceeded, "")
	c.logger.Info("verification succeeded",
		"address", c.address,
		"provider", a.provider,
		"attempt_id", a.id,
	)
	if hook != nil {
		hook(Verified{
			Address:   c.address,
			Provider:  a.provider,
			AttemptID: a.id,
			Proof:     accepted,
		})
	}
}

func (c *Controller) onDisplayed(a *attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isCurrentLocked(a) && c.snap.Status == StatusVerified {
		c.current = nil
		c.snap = Snapshot{Status: StatusIdle}
	}
}

func (c *Controller) record(ctx context.Context, a *attempt, action audit.Action, reason string) {
	c.auditor.Emit(ctx, audit.Event{
		Address:   c.address,
		Action:    action,
		Provider:  a.provider,
		AttemptID: a.id,
		Reason:    reason,
	})
}
