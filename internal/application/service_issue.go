package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gatepass/proof-service/internal/domain"
)

const (
	// eventTypeProofIssued is emitted when a proof is minted.
	eventTypeProofIssued = "proof.issued"
	// eventTypeProofVerified is emitted when a proof is consumed.
	eventTypeProofVerified = "proof.verified"
)

// Issue mints a signed ticket proof for the claimed owner. With an oracle
// configured the on-chain holder and used flag are confirmed first; the
// service never signs a proof it cannot justify. Issuance writes nothing to
// the nonce ledger, so callers may retry or discard the result freely.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (IssueResponse, error) {
	if req.TicketID == nil || req.TicketID.Sign() < 0 {
		return IssueResponse{}, fmt.Errorf("%w: ticket id is required", domain.ErrMalformedInput)
	}
	if req.Owner == (common.Address{}) {
		return IssueResponse{}, fmt.Errorf("%w: owner address is required", domain.ErrMalformedInput)
	}

	unverified := s.oracle == nil
	if unverified {
		appLogger().WarnContext(ctx, "issuing proof in unverified mode",
			"operation", "issue_proof",
			"outcome", "degraded",
			"ticket_id", req.TicketID.String(),
		)
	} else {
		check, err := s.oracle.CheckOwnership(ctx, req.TicketID, req.Owner)
		if err != nil {
			return IssueResponse{}, err
		}
		if !check.Valid {
			if errors.Is(check.Reason, domain.ErrNotOwner) {
				return IssueResponse{}, fmt.Errorf("%w: held by %s", domain.ErrNotOwner, check.ActualOwner.Hex())
			}
			return IssueResponse{}, check.Reason
		}
	}

	nonce, err := drawNonce()
	if err != nil {
		return IssueResponse{}, fmt.Errorf("draw nonce: %w", err)
	}

	payload := domain.ProofPayload{
		TicketID: req.TicketID,
		Owner:    req.Owner,
		IssuedAt: uint64(s.nowFn().Unix()),
		Nonce:    nonce,
	}
	signature, err := s.signer.Sign(payload)
	if err != nil {
		return IssueResponse{}, fmt.Errorf("sign proof: %w", err)
	}

	res := IssueResponse{
		Payload:    payload,
		Signature:  signature,
		ExpiresAt:  payload.IssuedAt + uint64(s.cfg.ProofTTL.Seconds()),
		Unverified: unverified,
	}
	s.enqueueEvent(ctx, eventTypeProofIssued, req.TicketID.String(), map[string]any{
		"ticket_id":  req.TicketID.String(),
		"owner":      req.Owner.Hex(),
		"issued_at":  payload.IssuedAt,
		"expires_at": res.ExpiresAt,
		"unverified": unverified,
	})
	return res, nil
}
