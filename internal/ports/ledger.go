package ports

import (
	"context"
	"time"
)

// LedgerStats is a diagnostic snapshot of the nonce ledger.
type LedgerStats struct {
	Count   int64
	Backend string
}

// NonceLedger stores consumed-proof markers with expiry. Implementations must
// make TryMarkUsed a single atomic test-and-set; a separate read followed by
// a write would let two concurrent verifications of the same proof both pass.
type NonceLedger interface {
	// TryMarkUsed records key as consumed with the given expiry. It returns
	// false when the key is already present and not expired. First writer
	// wins: an existing record is never overwritten with a new expiry.
	TryMarkUsed(ctx context.Context, key string, expiresAt time.Time) (bool, error)
	// IsUsed is a read-only check for diagnostics and tests. It is never the
	// authoritative decision on the verify path.
	IsUsed(ctx context.Context, key string) (bool, error)
	// SweepExpired removes records whose expiry has passed and reports how
	// many were removed. Safe to run concurrently with TryMarkUsed.
	SweepExpired(ctx context.Context) (int, error)
	Stats(ctx context.Context) (LedgerStats, error)
}
