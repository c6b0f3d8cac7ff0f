package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// ProofPayload is the signed body of a ticket proof. Field order and types
// mirror the EIP-712 schema; any mutation after signing changes the recovered
// signer.
type ProofPayload struct {
	TicketID *big.Int
	Owner    common.Address
	IssuedAt uint64
	Nonce    *big.Int
}

// proofPayloadWire is the JSON form of ProofPayload. Ticket ids are decimal
// strings because uint256 does not survive JSON numbers.
type proofPayloadWire struct {
	TicketID string `json:"ticket_id"`
	Owner    string `json:"owner"`
	IssuedAt uint64 `json:"issued_at"`
	Nonce    string `json:"nonce"`
}

func (p ProofPayload) MarshalJSON() ([]byte, error) {
	if p.TicketID == nil || p.Nonce == nil {
		return nil, fmt.Errorf("%w: payload missing ticket id or nonce", ErrMalformedInput)
	}
	return json.Marshal(proofPayloadWire{
		TicketID: p.TicketID.String(),
		Owner:    p.Owner.Hex(),
		IssuedAt: p.IssuedAt,
		Nonce:    hexutil.EncodeBig(p.Nonce),
	})
}

func (p *ProofPayload) UnmarshalJSON(raw []byte) error {
	var wire proofPayloadWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	ticketID, ok := new(big.Int).SetString(wire.TicketID, 10)
	if !ok || ticketID.Sign() < 0 {
		return fmt.Errorf("%w: ticket_id must be a non-negative decimal string", ErrMalformedInput)
	}
	if !common.IsHexAddress(wire.Owner) {
		return fmt.Errorf("%w: owner must be a hex address", ErrMalformedInput)
	}
	nonce, err := hexutil.DecodeBig(wire.Nonce)
	if err != nil {
		return fmt.Errorf("%w: nonce must be a 0x hex quantity", ErrMalformedInput)
	}
	p.TicketID = ticketID
	p.Owner = common.HexToAddress(wire.Owner)
	p.IssuedAt = wire.IssuedAt
	p.Nonce = nonce
	return nil
}

// LedgerKey derives the replay-ledger key for this payload. The key is
// scoped by ticket id so a nonce collision across tickets cannot shadow a
// legitimate first use.
func (p ProofPayload) LedgerKey() string {
	h := sha3.NewLegacyKeccak256()
	h.Write(common.BigToHash(p.TicketID).Bytes())
	h.Write(common.BigToHash(p.Nonce).Bytes())
	return hex.EncodeToString(h.Sum(nil))
}

// SignedProof is the issued artifact handed back to the caller. It is never
// persisted; the nonce ledger is only touched at verification time.
type SignedProof struct {
	Payload   ProofPayload `json:"payload"`
	Signature []byte       `json:"signature"`
	ExpiresAt uint64       `json:"expires_at"`
}

// OwnershipCheck is the transient outcome of an oracle lookup. Reason holds
// ErrNotOwner or ErrTicketAlreadyUsed when Valid is false.
type OwnershipCheck struct {
	Valid       bool
	Unverified  bool
	ActualOwner common.Address
	Reason      error
}

// VerifiedProof is the successful verification result.
type VerifiedProof struct {
	Valid    bool
	Signer   common.Address
	Owner    common.Address
	TicketID *big.Int
}
