package domain

import "errors"

var (
	// ErrMalformedInput is returned when a request cannot be decoded into
	// the expected payload shape. It maps to a plain validation failure.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidSignature covers every signature failure: wrong key, tampered
	// payload, garbage bytes, or mismatched domain parameters. Collapsing
	// these into one error avoids leaking which part of the check failed.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrProofExpired signals the proof's validity window has passed.
	ErrProofExpired = errors.New("proof expired")
	// ErrProofNotYetValid signals an issuedAt in the future beyond the
	// allowed clock-skew tolerance.
	ErrProofNotYetValid = errors.New("proof not yet valid")
	// ErrProofReplayed signals the nonce was already consumed by a previous
	// successful verification.
	ErrProofReplayed = errors.New("proof already used")
	// ErrNotOwner signals the claimed owner does not hold the ticket on chain.
	ErrNotOwner = errors.New("claimed owner does not hold ticket")
	// ErrTicketAlreadyUsed signals the ticket itself is marked consumed on
	// chain, independent of any proof.
	ErrTicketAlreadyUsed = errors.New("ticket already used")
	// ErrTicketNotFound signals the ticket does not exist on the ledger.
	// Unlike ErrOracleUnavailable this is terminal, not retryable.
	ErrTicketNotFound = errors.New("ticket not found on ledger")
	// ErrOracleUnavailable signals a transient RPC failure talking to the
	// ledger node. Callers may retry.
	ErrOracleUnavailable = errors.New("ledger oracle unavailable")
	// ErrStorageUnavailable signals the nonce ledger backend could not
	// answer. Verification must fail closed rather than skip replay checks.
	ErrStorageUnavailable = errors.New("replay ledger unavailable")
	// ErrUnauthorized covers missing or invalid session tokens.
	ErrUnauthorized = errors.New("unauthorized")
)
