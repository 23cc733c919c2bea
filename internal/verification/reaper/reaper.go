package reaper

import (
	"context"
	"log/slog"
	"time"

	"verinode/internal/audit"
	"verinode/internal/verification/metrics"
	"verinode/internal/verification/models"
	"verinode/internal/verification/store"
)

type Option func(*Reaper)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reaper) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(r *Reaper) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(r *Reaper) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reaper) {
		r.metrics = m
	}
}

func WithAuditor(auditor *audit.Publisher) Option {
	return func(r *Reaper) {
		r.auditor = auditor
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reaper) {
		if now != nil {
			r.now = now
		}
	}
}

// Reaper periodically evicts staged claims that outlived their TTL. It shares
// the pending store's exclusion discipline with finalize, so a claim racing
// between the two gets exactly one outcome: either finalized or reaped.
type Reaper struct {
	pending  store.PendingStore
	logger   *slog.Logger
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
}

func New(pending store.PendingStore, opts ...Option) *Reaper {
	r := &Reaper{
		pending:  pending,
		logger:   slog.Default(),
		interval: time.Minute,
		ttl:      10 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start runs the sweep loop until ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			removed, err := r.RunOnce(ctx)
			duration := time.Since(start)

			if err != nil {
				r.logger.Error("claim_reap_failed",
					"error", err,
					"duration_ms", duration.Milliseconds(),
				)
				continue
			}
			if len(removed) > 0 {
				r.logger.Info("claim_reap_completed",
					"claims_reaped", len(removed),
					"duration_ms", duration.Milliseconds(),
				)
			}

		case <-ctx.Done():
			r.logger.Info("claim reaper stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single sweep and returns the evicted claim ids.
func (r *Reaper) RunOnce(ctx context.Context) ([]string, error) {
	cutoff := r.now().Add(-r.ttl)
	removed, err := r.pending.DeleteExpired(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.AddReaped(len(removed))
	}
	if r.auditor != nil {
		for _, claimID := range removed {
			if err := r.auditor.Emit(ctx, audit.Event{
				ClaimID: claimID,
				Action:  models.AuditActionClaimReaped,
			}); err != nil {
				r.logger.Warn("failed to emit audit event", "error", err, "claim_id", claimID)
			}
		}
	}
	return removed, nil
}
