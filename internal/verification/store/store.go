package store

import (
	"context"
	"time"

	"verinode/internal/verification/models"
)

// PendingStore holds in-flight claims between a local APPROVE vote and the
// orchestrator's quorum verdict. Entries are never durable: a restart drops
// all in-flight claims and the orchestrator retries from the requester side.
//
// Error Contract:
// - StageIfAbsent returns sentinel.ErrConflict when the claim id is already staged
// - Consume returns sentinel.ErrNotFound when the claim id is absent
// - Other methods return nil on success or wrapped errors on infrastructure failure
type PendingStore interface {
	// Stage records a claim, replacing any prior record for the same id.
	Stage(ctx context.Context, record *models.ClaimRecord) error

	// StageIfAbsent records a claim only when the id is not currently staged.
	StageIfAbsent(ctx context.Context, record *models.ClaimRecord) error

	// Consume atomically fetches and removes a staged claim. A claim id can
	// be consumed exactly once; concurrent callers racing on the same id see
	// one success and the rest ErrNotFound.
	Consume(ctx context.Context, claimID string) (*models.ClaimRecord, error)

	// DeleteExpired removes every record staged at or before cutoff and
	// returns the ids it removed. Stores with native expiry may implement
	// this as a no-op.
	DeleteExpired(ctx context.Context, cutoff time.Time) ([]string, error)

	// Count reports how many claims are currently staged.
	Count(ctx context.Context) (int, error)
}
