package application

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gatepass/proof-service/internal/domain"
	"github.com/gatepass/proof-service/internal/ports"
)

// VerifyWalletSignature reports whether signature is a valid personal-sign
// signature over message recoverable to address. Address comparison is
// case-insensitive because parsing canonicalizes the bytes.
func (s *Service) VerifyWalletSignature(address common.Address, message string, signature []byte) bool {
	recovered, err := s.signer.RecoverPersonal(message, signature)
	return err == nil && recovered == address
}

// WalletLogin authenticates a wallet by personal-sign signature and mints a
// short-lived session token bound to the address.
func (s *Service) WalletLogin(req WalletLoginRequest) (WalletLoginResponse, error) {
	if req.Message == "" {
		return WalletLoginResponse{}, fmt.Errorf("%w: message is required", domain.ErrMalformedInput)
	}
	if !s.VerifyWalletSignature(req.Address, req.Message, req.Signature) {
		return WalletLoginResponse{}, fmt.Errorf("%w: message signature does not recover to address", domain.ErrInvalidSignature)
	}

	now := s.nowFn()
	expiresAt := now.Add(s.cfg.SessionTTL)
	token, err := s.sessions.Sign(ports.SessionClaims{
		Wallet:    req.Address,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return WalletLoginResponse{}, fmt.Errorf("sign session token: %w", err)
	}
	return WalletLoginResponse{Valid: true, Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateSession parses and validates a wallet session token.
func (s *Service) ValidateSession(raw string) (ports.SessionClaims, error) {
	claims, err := s.sessions.ParseAndValidate(raw)
	if err != nil {
		return ports.SessionClaims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return claims, nil
}
