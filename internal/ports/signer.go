package ports

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gatepass/proof-service/internal/domain"
)

// ProofSigner is the process signing identity over the typed proof schema.
// Sign and RecoverSigner are stateless and safe for unlimited parallel use;
// RecoverSigner in particular has no side effects so the verify path can call
// it before deciding whether to touch the nonce ledger.
type ProofSigner interface {
	// Address is the signer's own address, derived once at construction.
	Address() common.Address
	Sign(payload domain.ProofPayload) ([]byte, error)
	// RecoverSigner returns the address that produced the signature over the
	// typed encoding of payload. Malformed signatures yield
	// domain.ErrInvalidSignature.
	RecoverSigner(payload domain.ProofPayload, signature []byte) (common.Address, error)
	// RecoverPersonal recovers the signer of a plain personal-sign message.
	// Used for wallet session authentication, independent of the proof flow.
	RecoverPersonal(message string, signature []byte) (common.Address, error)
}

// SessionClaims is the wallet session token body.
type SessionClaims struct {
	Wallet    common.Address
	IssuedAt  time.Time
	ExpiresAt time.Time
	KeyID     string
}

// SessionTokenSigner issues and validates wallet session tokens.
type SessionTokenSigner interface {
	Sign(claims SessionClaims) (string, error)
	ParseAndValidate(raw string) (SessionClaims, error)
}
