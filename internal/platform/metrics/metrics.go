package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for verification sessions and minting.
// Every method is safe on a nil receiver so tests and the CLI can skip them.
type Metrics struct {
	SessionsStarted   *prometheus.CounterVec
	SessionsVerified  *prometheus.CounterVec
	SessionsFailed    *prometheus.CounterVec
	SessionsCancelled prometheus.Counter
	ActiveSessions    prometheus.Gauge

	ProofsRejected prometheus.Counter

	MintsSubmitted *prometheus.CounterVec
	MintFailures   *prometheus.CounterVec
	MintLatency    prometheus.Histogram

	ChainReadFailures *prometheus.CounterVec
	ChainFallbacks    prometheus.Counter
}

// New registers collectors with the default Prometheus registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers collectors with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credmint_verification_sessions_started_total",
			Help: "Verification attempts started, by provider",
		}, []string{"provider"}),
		SessionsVerified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credmint_verification_sessions_verified_total",
			Help: "Verification attempts that produced a valid proof, by provider",
		}, []string{"provider"}),
		SessionsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credmint_verification_sessions_failed_total",
			Help: "Verification attempts that failed, by provider and error kind",
		}, []string{"provider", "kind"}),
		SessionsCancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "credmint_verification_sessions_cancelled_total",
			Help: "Verification attempts cancelled by the user",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "credmint_verification_sessions_active",
			Help: "Verification attempts currently holding a proof-service session",
		}),
		ProofsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "credmint_proofs_rejected_total",
			Help: "Proof payloads that failed structural validation",
		}),
		MintsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credmint_mints_submitted_total",
			Help: "Credential mint transactions submitted, by collection",
		}, []string{"collection"}),
		MintFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credmint_mint_failures_total",
			Help: "Credential mints that failed, by collection",
		}, []string{"collection"}),
		MintLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "credmint_mint_duration_seconds",
			Help:    "Time to submit a credential mint transaction",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ChainReadFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credmint_chain_read_failures_total",
			Help: "Failed contract reads, by method",
		}, []string{"method"}),
		ChainFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "credmint_chain_fallbacks_total",
			Help: "Ownership lookups served from the local store because the chain was unavailable",
		}),
	}
}

func (m *Metrics) IncSessionStarted(provider string) {
	if m == nil {
		return
	}
	m.SessionsStarted.WithLabelValues(provider).Inc()
	m.ActiveSessions.Inc()
}

// IncSessionEnded balances IncSessionStarted once the proof-service session is released.
func (m *Metrics) IncSessionEnded() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

func (m *Metrics) IncSessionVerified(provider string) {
	if m == nil {
		return
	}
	m.SessionsVerified.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncSessionFailed(provider, kind string) {
	if m == nil {
		return
	}
	m.SessionsFailed.WithLabelValues(provider, kind).Inc()
}

func (m *Metrics) IncSessionCancelled() {
	if m == nil {
		return
	}
	m.SessionsCancelled.Inc()
}

func (m *Metrics) IncProofRejected() {
	if m == nil {
		return
	}
	m.ProofsRejected.Inc()
}

// ObserveMint records a mint attempt and its duration.
func (m *Metrics) ObserveMint(collection string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.MintLatency.Observe(took.Seconds())
	if err != nil {
		m.MintFailures.WithLabelValues(collection).Inc()
		return
	}
	m.MintsSubmitted.WithLabelValues(collection).Inc()
}

func (m *Metrics) IncChainReadFailure(method string) {
	if m == nil {
		return
	}
	m.ChainReadFailures.WithLabelValues(method).Inc()
}

func (m *Metrics) IncChainFallback() {
	if m == nil {
		return
	}
	m.ChainFallbacks.Inc()
}
