package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for vote and finalize operations.
type Metrics struct {
	VotesCast           *prometheus.CounterVec
	ClaimsFinalized     *prometheus.CounterVec
	ClaimsReaped        prometheus.Counter
	PendingClaims       prometheus.Gauge
	LedgerSize          prometheus.Gauge
	FinalizeLatency     prometheus.Histogram
	VoteLatency         prometheus.Histogram
}

// New registers and returns verification metrics collectors.
func New() *Metrics {
	return &Metrics{
		VotesCast: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verinode_votes_cast_total",
			Help: "Total number of votes cast, labeled by decision and reason",
		}, []string{"decision", "reason"}),
		ClaimsFinalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verinode_claims_finalized_total",
			Help: "Total number of finalize calls, labeled by outcome",
		}, []string{"outcome"}),
		ClaimsReaped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verinode_claims_reaped_total",
			Help: "Total number of staged claims evicted after exceeding their TTL",
		}),
		PendingClaims: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "verinode_pending_claims",
			Help: "Current number of staged claims awaiting a quorum verdict",
		}),
		LedgerSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "verinode_ledger_markers",
			Help: "Number of biometric markers committed to the uniqueness ledger",
		}),
		FinalizeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "verinode_finalize_latency_seconds",
			Help:    "Latency of finalize operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		VoteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "verinode_vote_latency_seconds",
			Help:    "Latency of vote operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncrementVote records one cast vote.
func (m *Metrics) IncrementVote(decision, reason string) {
	if m == nil {
		return
	}
	m.VotesCast.WithLabelValues(decision, reason).Inc()
}

// IncrementFinalized records one finalize call by outcome
// (committed, rejected, not_found, error).
func (m *Metrics) IncrementFinalized(outcome string) {
	if m == nil {
		return
	}
	m.ClaimsFinalized.WithLabelValues(outcome).Inc()
}

// AddReaped records TTL evictions from a reaper sweep.
func (m *Metrics) AddReaped(n int) {
	if m == nil {
		return
	}
	m.ClaimsReaped.Add(float64(n))
}

// SetPending updates the staged claims gauge.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingClaims.Set(float64(n))
}

// SetLedgerSize updates the committed markers gauge.
func (m *Metrics) SetLedgerSize(n int) {
	if m == nil {
		return
	}
	m.LedgerSize.Set(float64(n))
}
