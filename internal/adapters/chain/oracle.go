package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/gatepass/proof-service/internal/domain"
)

// ticketLedgerABI covers the two read-only calls the oracle needs from the
// ticket contract.
const ticketLedgerABI = `[
	{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"isUsed","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

// Oracle resolves ticket holder and consumption status against an
// Ethereum-compatible node. Every call carries a bounded timeout so a slow
// node surfaces as a retryable failure instead of a hung request.
type Oracle struct {
	contract *bind.BoundContract
	timeout  time.Duration
}

// NewOracle binds the ticket contract at contractAddr over the given caller,
// typically an ethclient.Client.
func NewOracle(caller bind.ContractCaller, contractAddr common.Address, timeout time.Duration) (*Oracle, error) {
	parsed, err := abi.JSON(strings.NewReader(ticketLedgerABI))
	if err != nil {
		return nil, fmt.Errorf("parse ticket ledger abi: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Oracle{
		contract: bind.NewBoundContract(contractAddr, parsed, caller, nil, nil),
		timeout:  timeout,
	}, nil
}

func (o *Oracle) CheckOwnership(ctx context.Context, ticketID *big.Int, claimedOwner common.Address) (domain.OwnershipCheck, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	opts := &bind.CallOpts{Context: ctx}

	var out []any
	if err := o.contract.Call(opts, &out, "ownerOf", ticketID); err != nil {
		return domain.OwnershipCheck{}, classifyCallError(err)
	}
	holder := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	if holder != claimedOwner {
		return domain.OwnershipCheck{
			Valid:       false,
			ActualOwner: holder,
			Reason:      domain.ErrNotOwner,
		}, nil
	}

	out = out[:0]
	if err := o.contract.Call(opts, &out, "isUsed", ticketID); err != nil {
		return domain.OwnershipCheck{}, classifyCallError(err)
	}
	used := *abi.ConvertType(out[0], new(bool)).(*bool)
	if used {
		return domain.OwnershipCheck{
			Valid:       false,
			ActualOwner: holder,
			Reason:      domain.ErrTicketAlreadyUsed,
		}, nil
	}

	return domain.OwnershipCheck{Valid: true, ActualOwner: holder}, nil
}

// classifyCallError separates "the ticket does not exist" reverts, which are
// terminal, from transient RPC failures, which are retryable.
func classifyCallError(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "nonexistent") {
		return fmt.Errorf("%w: %v", domain.ErrTicketNotFound, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
}
