package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/gatepass/proof-service/internal/domain"
)

// DomainParams pins a signature to one deployment. Issuance and verification
// must use the identical tuple; a mismatch changes the recovered signer and
// therefore surfaces as an invalid signature, not a distinct error.
type DomainParams struct {
	Name              string
	Version           string
	ChainID           int64
	VerifyingContract common.Address
}

const proofPrimaryType = "TicketProof"

// ProofCodec holds the canonical EIP-712 schema for ticket proofs,
// independent of transport. It is immutable after construction and safe for
// concurrent use.
type ProofCodec struct {
	domain apitypes.TypedDataDomain
	types  apitypes.Types
}

// NewProofCodec builds the codec for one deployment's domain parameters.
func NewProofCodec(params DomainParams) *ProofCodec {
	return &ProofCodec{
		domain: apitypes.TypedDataDomain{
			Name:              params.Name,
			Version:           params.Version,
			ChainId:           math.NewHexOrDecimal256(params.ChainID),
			VerifyingContract: params.VerifyingContract.Hex(),
		},
		types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			proofPrimaryType: {
				{Name: "ticketId", Type: "uint256"},
				{Name: "owner", Type: "address"},
				{Name: "issuedAt", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
			},
		},
	}
}

// Hash returns the EIP-712 digest of payload under this codec's domain.
func (c *ProofCodec) Hash(payload domain.ProofPayload) ([]byte, error) {
	if payload.TicketID == nil || payload.Nonce == nil {
		return nil, fmt.Errorf("%w: payload missing ticket id or nonce", domain.ErrMalformedInput)
	}

	typed := apitypes.TypedData{
		Types:       c.types,
		PrimaryType: proofPrimaryType,
		Domain:      c.domain,
		Message: apitypes.TypedDataMessage{
			"ticketId": (*math.HexOrDecimal256)(payload.TicketID),
			"owner":    payload.Owner.Hex(),
			"issuedAt": math.NewHexOrDecimal256(int64(payload.IssuedAt)),
			"nonce":    (*math.HexOrDecimal256)(payload.Nonce),
		},
	}
	hash, _, err := apitypes.TypedDataAndHash(typed)
	if err != nil {
		return nil, fmt.Errorf("encode typed data: %w", err)
	}
	return hash, nil
}
