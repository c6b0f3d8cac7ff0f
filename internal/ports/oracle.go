package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gatepass/proof-service/internal/domain"
)

// TicketOracle resolves current on-chain holder and consumption status of a
// ticket. Calls block on RPC I/O and must honor context deadlines; a timeout
// surfaces as domain.ErrOracleUnavailable, never a hang.
type TicketOracle interface {
	// CheckOwnership compares the claimed owner against the on-chain holder
	// (case-insensitively) and checks the ticket's used flag. A ticket that
	// does not exist on the ledger yields domain.ErrTicketNotFound; transport
	// failures yield domain.ErrOracleUnavailable.
	CheckOwnership(ctx context.Context, ticketID *big.Int, claimedOwner common.Address) (domain.OwnershipCheck, error)
}
