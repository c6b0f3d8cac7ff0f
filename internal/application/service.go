package application

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/gatepass/proof-service/internal/ports"
)

// Config carries the proof lifecycle windows.
type Config struct {
	// ProofTTL is the validity window of an issued proof.
	ProofTTL time.Duration
	// NonceRetention is how long a consumed nonce stays in the ledger. It
	// always exceeds ProofTTL so a re-submission cannot reuse the nonce
	// until long after the proof itself expired.
	NonceRetention time.Duration
	// ClockSkewTolerance is how far in the future an issuedAt may sit
	// before the proof is rejected as not yet valid.
	ClockSkewTolerance time.Duration
	// SessionTTL is the wallet session token lifetime.
	SessionTTL time.Duration
}

// Service orchestrates proof issuance and verification. The oracle is nil in
// unverified mode; check-in audit and outbox are nil when Postgres is not
// configured.
type Service struct {
	cfg      Config
	signer   ports.ProofSigner
	ledger   ports.NonceLedger
	oracle   ports.TicketOracle
	sessions ports.SessionTokenSigner
	checkIns ports.CheckInRepository
	outbox   ports.OutboxRepository
	nowFn    func() time.Time
}

type Dependencies struct {
	Config   Config
	Signer   ports.ProofSigner
	Ledger   ports.NonceLedger
	Oracle   ports.TicketOracle
	Sessions ports.SessionTokenSigner
	CheckIns ports.CheckInRepository
	Outbox   ports.OutboxRepository
	// Now overrides the clock; tests use it to simulate expiry windows.
	Now func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ProofTTL <= 0 {
		cfg.ProofTTL = 60 * time.Second
	}
	if cfg.NonceRetention <= 0 {
		cfg.NonceRetention = 300 * time.Second
	}
	if cfg.NonceRetention < cfg.ProofTTL {
		cfg.NonceRetention = cfg.ProofTTL
	}
	if cfg.ClockSkewTolerance <= 0 {
		cfg.ClockSkewTolerance = 5 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		cfg:      cfg,
		signer:   deps.Signer,
		ledger:   deps.Ledger,
		oracle:   deps.Oracle,
		sessions: deps.Sessions,
		checkIns: deps.CheckIns,
		outbox:   deps.Outbox,
		nowFn:    nowFn,
	}
}

// SignerAddress exposes the service signing address for client-side display.
// It is never an authorization check by itself.
func (s *Service) SignerAddress() common.Address {
	return s.signer.Address()
}

// LedgerStats reports the nonce ledger's diagnostic snapshot.
func (s *Service) LedgerStats(ctx context.Context) (ports.LedgerStats, error) {
	return s.ledger.Stats(ctx)
}

// drawNonce returns 32 bytes of cryptographically secure randomness as a
// uint256. Collision probability at this width is negligible, which is what
// anchors the replay guarantee.
func drawNonce() (*big.Int, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(buf), nil
}

func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey string, payload any) {
	if s.outbox == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	event := ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		OccurredAt:   s.nowFn(),
	}
	if err := s.outbox.Enqueue(ctx, event); err != nil {
		appLogger().WarnContext(ctx, "outbox enqueue failed",
			"operation", "enqueue_event",
			"outcome", "failure",
			"event_type", eventType,
			"error", err,
		)
	}
}

func appLogger() *slog.Logger {
	return slog.Default().With(
		"service", "proof-service",
		"module", "application",
		"layer", "application",
	)
}
