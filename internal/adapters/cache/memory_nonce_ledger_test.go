package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newFrozenLedger(now time.Time) *MemoryNonceLedger {
	ledger := NewMemoryNonceLedger()
	ledger.nowFn = func() time.Time { return now }
	return ledger
}

func TestMemoryLedgerFirstWriterWins(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	ledger := newFrozenLedger(now)

	ok, err := ledger.TryMarkUsed(context.Background(), "key-1", now.Add(5*time.Minute))
	if err != nil || !ok {
		t.Fatalf("expected first mark to succeed, got ok=%v err=%v", ok, err)
	}

	// The second writer must not extend the existing record's expiry.
	ok, err = ledger.TryMarkUsed(context.Background(), "key-1", now.Add(time.Hour))
	if err != nil || ok {
		t.Fatalf("expected second mark to fail, got ok=%v err=%v", ok, err)
	}

	used, err := ledger.IsUsed(context.Background(), "key-1")
	if err != nil || !used {
		t.Fatalf("expected key to be used, got used=%v err=%v", used, err)
	}
}

func TestMemoryLedgerExpiredRecordIsReclaimable(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	ledger := newFrozenLedger(now)

	if ok, _ := ledger.TryMarkUsed(context.Background(), "key-1", now.Add(time.Minute)); !ok {
		t.Fatal("expected first mark to succeed")
	}

	ledger.nowFn = func() time.Time { return now.Add(2 * time.Minute) }

	used, err := ledger.IsUsed(context.Background(), "key-1")
	if err != nil || used {
		t.Fatalf("expected expired key to read as unused, got used=%v err=%v", used, err)
	}
	if ok, _ := ledger.TryMarkUsed(context.Background(), "key-1", now.Add(10*time.Minute)); !ok {
		t.Fatal("expected expired key to be reclaimable")
	}
}

func TestMemoryLedgerSweepRemovesOnlyExpired(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	ledger := newFrozenLedger(now)

	ctx := context.Background()
	if ok, _ := ledger.TryMarkUsed(ctx, "expired-1", now.Add(-time.Minute)); !ok {
		t.Fatal("seed expired-1")
	}
	if ok, _ := ledger.TryMarkUsed(ctx, "expired-2", now.Add(-time.Second)); !ok {
		t.Fatal("seed expired-2")
	}
	if ok, _ := ledger.TryMarkUsed(ctx, "live-1", now.Add(time.Hour)); !ok {
		t.Fatal("seed live-1")
	}

	removed, err := ledger.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed records, got %d", removed)
	}

	stats, err := ledger.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Count != 1 || stats.Backend != "memory" {
		t.Fatalf("expected 1 surviving record on memory backend, got %+v", stats)
	}
	if used, _ := ledger.IsUsed(ctx, "live-1"); !used {
		t.Fatal("expected live record to survive the sweep")
	}
}

func TestMemoryLedgerConcurrentMarkSingleWinner(t *testing.T) {
	t.Parallel()

	ledger := NewMemoryNonceLedger()
	expiresAt := time.Now().UTC().Add(5 * time.Minute)

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ledger.TryMarkUsed(context.Background(), "contended", expiresAt)
			if err != nil {
				t.Errorf("mark: %v", err)
				return
			}
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for ok := range wins {
		if ok {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestMemoryLedgerStatsCountsDistinctKeys(t *testing.T) {
	t.Parallel()

	ledger := NewMemoryNonceLedger()
	expiresAt := time.Now().UTC().Add(time.Minute)
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("key-%d", i)
		if ok, err := ledger.TryMarkUsed(context.Background(), key, expiresAt); err != nil || !ok {
			t.Fatalf("mark %s: ok=%v err=%v", key, ok, err)
		}
	}

	stats, err := ledger.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Count != 5 {
		t.Fatalf("expected 5 records, got %d", stats.Count)
	}
}
