package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"verinode/internal/audit"
	"verinode/internal/identity"
	"verinode/internal/ledger"
	"verinode/internal/platform/config"
	"verinode/internal/sentinel"
	"verinode/internal/verification/metrics"
	"verinode/internal/verification/models"
	"verinode/internal/verification/store"
	pkgerrors "verinode/pkg/domain-errors"
)

// Finalize outcome labels for metrics.
const (
	outcomeCommitted = "committed"
	outcomeRejected  = "rejected"
	outcomeNotFound  = "not_found"
	outcomeError     = "error"
)

type Option func(*Service)

// Service owns the per-node vote-and-finalize state machine. Every mutable
// piece of node state (identity, ledger, pending claims) is an explicit field
// so multiple nodes can run inside one process for tests.
type Service struct {
	identity *identity.Service
	ledger   ledger.Store
	pending  store.PendingStore
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger

	restagePolicy config.RestagePolicy
	now           func() time.Time
}

func NewService(ident *identity.Service, ldg ledger.Store, pending store.PendingStore, opts ...Option) *Service {
	svc := &Service{
		identity:      ident,
		ledger:        ldg,
		pending:       pending,
		logger:        slog.Default(),
		restagePolicy: config.RestageAllow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditor sets the audit publisher for the service.
func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRestagePolicy configures how a vote for an already-staged claim id is
// handled: allow overwrites the staged record, reject denies the vote.
func WithRestagePolicy(policy config.RestagePolicy) Option {
	return func(s *Service) {
		if policy == config.RestageAllow || policy == config.RestageReject {
			s.restagePolicy = policy
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Vote evaluates a claim and, on approval, stages it for a later finalize.
// It always returns a well-formed vote: validation failures, duplicates, and
// unexpected internal failures all surface as DENY with a reason, never as an
// error or a panic. A node that crashed here would look like an offline voter
// to the orchestrator, which is strictly worse than a DENY.
func (s *Service) Vote(ctx context.Context, req *models.VoteRequest) (vote *models.Vote) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "panic during vote evaluation", "panic", r)
			vote = s.deny(ctx, req, models.ReasonInternalError)
		}
	}()

	if !req.Complete() {
		return s.deny(ctx, req, models.ReasonMissingFields)
	}

	seen, err := s.ledger.Contains(ctx, req.BiometricMarker)
	if err != nil {
		s.logger.ErrorContext(ctx, "ledger lookup failed", "error", err, "claim_id", req.ClaimID)
		return s.deny(ctx, req, models.ReasonInternalError)
	}
	if seen {
		return s.deny(ctx, req, models.ReasonDuplicateMarker)
	}

	if _, err := identity.ParsePublicKey(req.RequesterPublicKey); err != nil {
		return s.deny(ctx, req, models.ReasonInvalidPublicKey)
	}

	record := &models.ClaimRecord{
		ClaimID:            req.ClaimID,
		RequesterPublicKey: req.RequesterPublicKey,
		BiometricMarker:    req.BiometricMarker,
		StagedAt:           s.now(),
	}
	if err := s.stage(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return s.deny(ctx, req, models.ReasonAlreadyStaged)
		}
		s.logger.ErrorContext(ctx, "failed to stage claim", "error", err, "claim_id", req.ClaimID)
		return s.deny(ctx, req, models.ReasonInternalError)
	}

	s.metrics.IncrementVote(string(models.DecisionApprove), "")
	s.audit(ctx, audit.Event{
		ClaimID:  req.ClaimID,
		Action:   models.AuditActionVoteApproved,
		Decision: string(models.DecisionApprove),
		Marker:   req.BiometricMarker,
	})
	s.logger.InfoContext(ctx, "vote cast",
		"claim_id", req.ClaimID,
		"decision", models.DecisionApprove,
	)
	return &models.Vote{NodeName: s.identity.NodeName(), Decision: models.DecisionApprove}
}

func (s *Service) stage(ctx context.Context, record *models.ClaimRecord) error {
	if s.restagePolicy == config.RestageReject {
		return s.pending.StageIfAbsent(ctx, record)
	}
	return s.pending.Stage(ctx, record)
}

func (s *Service) deny(ctx context.Context, req *models.VoteRequest, reason string) *models.Vote {
	s.metrics.IncrementVote(string(models.DecisionDeny), reason)
	event := audit.Event{
		Action:   models.AuditActionVoteDenied,
		Decision: string(models.DecisionDeny),
		Reason:   reason,
	}
	if req != nil {
		event.ClaimID = req.ClaimID
	}
	s.audit(ctx, event)
	s.logger.InfoContext(ctx, "vote cast",
		"claim_id", event.ClaimID,
		"decision", models.DecisionDeny,
		"reason", reason,
	)
	return &models.Vote{NodeName: s.identity.NodeName(), Decision: models.DecisionDeny, Reason: reason}
}

// Finalize consumes the orchestrator's quorum verdict for a staged claim.
// The staged record is removed before the verdict is applied, so a claim id
// gets exactly one finalize outcome; a second call returns CodeNotFound.
// Only a positive verdict commits the marker and issues a fragment. The
// quorumReached flag is taken on trust from the orchestrator; this node does
// not re-verify the individual peer votes.
func (s *Service) Finalize(ctx context.Context, req *models.FinalizeRequest) (*models.FinalizeResult, error) {
	record, err := s.pending.Consume(ctx, req.ClaimID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementFinalized(outcomeNotFound)
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pending claim with this id")
		}
		s.metrics.IncrementFinalized(outcomeError)
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to look up pending claim")
	}

	if !req.QuorumReached {
		s.metrics.IncrementFinalized(outcomeRejected)
		s.audit(ctx, audit.Event{
			ClaimID: req.ClaimID,
			Action:  models.AuditActionClaimRejected,
			Reason:  models.ReasonQuorumNotReached,
			Marker:  record.BiometricMarker,
		})
		s.logger.InfoContext(ctx, "claim rejected", "claim_id", req.ClaimID)
		return &models.FinalizeResult{Success: false, Reason: models.ReasonQuorumNotReached}, nil
	}

	signature := s.identity.Sign([]byte(record.RequesterPublicKey))

	if err := s.ledger.Commit(ctx, record.BiometricMarker); err != nil {
		// The staged record is already consumed; the orchestrator must
		// restart the claim from the vote step.
		s.metrics.IncrementFinalized(outcomeError)
		s.logger.ErrorContext(ctx, "ledger commit failed", "error", err, "claim_id", req.ClaimID)
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to commit uniqueness marker")
	}

	if size, err := s.ledger.Size(ctx); err == nil {
		s.metrics.SetLedgerSize(size)
	}
	s.metrics.IncrementFinalized(outcomeCommitted)
	s.audit(ctx, audit.Event{
		ClaimID: req.ClaimID,
		Action:  models.AuditActionClaimFinalized,
		Marker:  record.BiometricMarker,
	})
	s.audit(ctx, audit.Event{
		ClaimID: req.ClaimID,
		Action:  models.AuditActionCredentialIssued,
	})
	s.logger.InfoContext(ctx, "claim finalized", "claim_id", req.ClaimID)

	return &models.FinalizeResult{
		Success: true,
		Fragment: &models.CredentialFragment{
			NodeName:        s.identity.NodeName(),
			Signature:       identity.EncodeKey(signature),
			IssuerPublicKey: s.identity.PublicKeyEncoded(),
		},
	}, nil
}

// Identity reports the node's public identity.
func (s *Service) Identity() *models.IdentityResponse {
	return &models.IdentityResponse{
		NodeName:  s.identity.NodeName(),
		PublicKey: s.identity.PublicKeyEncoded(),
	}
}

// Status reports how many identities this node has credentialed and how many
// claims are currently in flight.
func (s *Service) Status(ctx context.Context) (*models.StatusResponse, error) {
	size, err := s.ledger.Size(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to read ledger size")
	}
	pending, err := s.pending.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to count pending claims")
	}
	s.metrics.SetLedgerSize(size)
	s.metrics.SetPending(pending)
	return &models.StatusResponse{
		NodeName:      s.identity.NodeName(),
		VerifiedCount: size,
		PendingCount:  pending,
	}, nil
}

func (s *Service) audit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.NodeName = s.identity.NodeName()
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "error", err, "action", event.Action)
	}
}
