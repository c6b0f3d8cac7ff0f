package cache

import (
	"context"
	"sync"
	"time"

	"github.com/gatepass/proof-service/internal/ports"
)

// MemoryNonceLedger is the in-process fallback when Redis is unreachable at
// startup. Replay markers do not survive a restart, which is acceptable
// because the proof validity window bounds the blast radius.
type MemoryNonceLedger struct {
	mu      sync.Mutex
	records map[string]time.Time
	nowFn   func() time.Time
}

// NewMemoryNonceLedger creates an empty in-process ledger.
func NewMemoryNonceLedger() *MemoryNonceLedger {
	return &MemoryNonceLedger{
		records: make(map[string]time.Time),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

func (l *MemoryNonceLedger) TryMarkUsed(_ context.Context, key string, expiresAt time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.records[key]; ok && existing.After(l.nowFn()) {
		return false, nil
	}
	l.records[key] = expiresAt
	return true, nil
}

func (l *MemoryNonceLedger) IsUsed(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.records[key]
	return ok && existing.After(l.nowFn()), nil
}

func (l *MemoryNonceLedger) SweepExpired(_ context.Context) (int, error) {
	cutoff := l.nowFn()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, expiresAt := range l.records {
		// Only records expired at the cutoff are eligible; anything written
		// after the cutoff has a future expiry and survives this pass.
		if !expiresAt.After(cutoff) {
			delete(l.records, key)
			removed++
		}
	}
	return removed, nil
}

func (l *MemoryNonceLedger) Stats(_ context.Context) (ports.LedgerStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return ports.LedgerStats{Count: int64(len(l.records)), Backend: "memory"}, nil
}
