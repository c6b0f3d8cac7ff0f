package application

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gatepass/proof-service/internal/domain"
)

// IssueRequest asks for a proof that Owner currently holds TicketID.
type IssueRequest struct {
	TicketID *big.Int
	Owner    common.Address
}

// IssueResponse is the signed proof handed back to the caller. Unverified is
// set when no verifying contract is configured and the ownership check was
// skipped; callers must be able to tell this apart from a real pass.
type IssueResponse struct {
	Payload    domain.ProofPayload
	Signature  []byte
	ExpiresAt  uint64
	Unverified bool
}

// WalletLoginRequest carries a plain personal-sign authentication attempt.
type WalletLoginRequest struct {
	Address   common.Address
	Message   string
	Signature []byte
}

// WalletLoginResponse returns the session token minted for a valid signature.
type WalletLoginResponse struct {
	Valid     bool
	Token     string
	ExpiresAt time.Time
}
