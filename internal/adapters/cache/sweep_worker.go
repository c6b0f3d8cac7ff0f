package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/gatepass/proof-service/internal/ports"
)

// SweepWorker removes expired nonce records on a fixed interval, independent
// of request traffic.
type SweepWorker struct {
	logger   *slog.Logger
	ledger   ports.NonceLedger
	interval time.Duration
}

// NewSweepWorker constructs the periodic ledger sweep loop.
func NewSweepWorker(logger *slog.Logger, ledger ports.NonceLedger, interval time.Duration) *SweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweepWorker{logger: logger, ledger: ledger, interval: interval}
}

// Run executes the sweep loop until context cancellation.
func (w *SweepWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		removed, err := w.ledger.SweepExpired(ctx)
		if err != nil {
			w.logger.WarnContext(ctx, "nonce ledger sweep failed",
				"module", "cache.sweep_worker",
				"layer", "adapter",
				"operation", "sweep_expired",
				"outcome", "failure",
				"error", err,
			)
			continue
		}
		if removed > 0 {
			w.logger.InfoContext(ctx, "nonce ledger sweep completed",
				"module", "cache.sweep_worker",
				"layer", "adapter",
				"operation", "sweep_expired",
				"outcome", "success",
				"removed_count", removed,
			)
		}
	}
}
