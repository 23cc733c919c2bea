// Package ledger holds this node's durable record of biometric markers that
// have already been credentialed. A marker enters the ledger only through a
// quorum-approved finalize, and once present it is never removed.
package ledger

import "context"

// Store is the uniqueness ledger contract.
//
// Commit is idempotent and must durably persist the marker before returning
// success: a restart after a successful Commit must still observe the marker.
// Contains must observe the effect of every Commit that completed before it
// was invoked.
type Store interface {
	Contains(ctx context.Context, marker string) (bool, error)
	Commit(ctx context.Context, marker string) error
	Size(ctx context.Context) (int, error)
}
