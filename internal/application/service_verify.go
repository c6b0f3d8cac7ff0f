package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/gatepass/proof-service/internal/domain"
	"github.com/gatepass/proof-service/internal/ports"
)

// Verify consumes a signed proof exactly once. Signature and expiry checks
// are side-effect free; only after both pass does the nonce get marked, in a
// single atomic test-and-set, so concurrent verifications of the same proof
// yield exactly one success.
func (s *Service) Verify(ctx context.Context, payload domain.ProofPayload, signature []byte) (domain.VerifiedProof, error) {
	if payload.TicketID == nil || payload.Nonce == nil {
		return domain.VerifiedProof{}, fmt.Errorf("%w: payload missing ticket id or nonce", domain.ErrMalformedInput)
	}

	recovered, err := s.signer.RecoverSigner(payload, signature)
	if err != nil {
		return domain.VerifiedProof{}, err
	}
	if recovered != s.signer.Address() {
		return domain.VerifiedProof{}, fmt.Errorf("%w: unrecognized signer", domain.ErrInvalidSignature)
	}

	now := s.nowFn()
	age := now.Unix() - int64(payload.IssuedAt)
	switch {
	case age > int64(s.cfg.ProofTTL.Seconds()):
		return domain.VerifiedProof{}, fmt.Errorf("%w: issued %ds ago", domain.ErrProofExpired, age)
	case age < -int64(s.cfg.ClockSkewTolerance.Seconds()):
		return domain.VerifiedProof{}, fmt.Errorf("%w: issued %ds in the future", domain.ErrProofNotYetValid, -age)
	}

	key := payload.LedgerKey()
	retainUntil := time.Unix(int64(payload.IssuedAt), 0).UTC().Add(s.cfg.NonceRetention)
	ok, err := s.ledger.TryMarkUsed(ctx, key, retainUntil)
	if err != nil {
		return domain.VerifiedProof{}, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if !ok {
		return domain.VerifiedProof{}, domain.ErrProofReplayed
	}

	s.recordCheckIn(ctx, payload, recovered, key, now)

	return domain.VerifiedProof{
		Valid:    true,
		Signer:   recovered,
		Owner:    payload.Owner,
		TicketID: payload.TicketID,
	}, nil
}

// recordCheckIn appends the audit record and outbox event for a consumed
// proof. Both are best-effort: the nonce ledger already holds the
// authoritative marker, so an audit failure must not fail the verification.
func (s *Service) recordCheckIn(ctx context.Context, payload domain.ProofPayload, signer common.Address, key string, at time.Time) {
	if s.checkIns != nil {
		event := ports.CheckInEvent{
			EventID:    uuid.New(),
			TicketID:   payload.TicketID.String(),
			Owner:      payload.Owner.Hex(),
			Signer:     signer.Hex(),
			LedgerKey:  key,
			VerifiedAt: at,
		}
		if err := s.checkIns.Insert(ctx, event); err != nil {
			appLogger().WarnContext(ctx, "check-in audit write failed",
				"operation", "record_check_in",
				"outcome", "failure",
				"ticket_id", payload.TicketID.String(),
				"error", err,
			)
		}
	}
	s.enqueueEvent(ctx, eventTypeProofVerified, payload.TicketID.String(), map[string]any{
		"ticket_id":   payload.TicketID.String(),
		"owner":       payload.Owner.Hex(),
		"signer":      signer.Hex(),
		"verified_at": at.Unix(),
	})
}
