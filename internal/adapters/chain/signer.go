package chain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/gatepass/proof-service/internal/domain"
)

// Signer holds the service's secp256k1 signing key over the proof codec.
// The address is derived once at construction and immutable for the process
// lifetime. All methods are stateless and safe for parallel use.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	codec   *ProofCodec
}

// NewSigner builds the signing identity from a hex-encoded private key.
func NewSigner(privateKeyHex string, codec *ProofCodec) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		codec:   codec,
	}, nil
}

// NewEphemeralSigner creates an in-memory keypair for local/dev use.
// This exists to unblock runtime startup when a static key is intentionally
// absent; proofs it signs are worthless outside the process lifetime.
func NewEphemeralSigner(codec *ProofCodec) (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		codec:   codec,
	}, nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

func (s *Signer) Sign(payload domain.ProofPayload) ([]byte, error) {
	hash, err := s.codec.Hash(payload)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, fmt.Errorf("sign proof digest: %w", err)
	}
	// Ethereum convention: recovery id shifted to 27/28 on the wire.
	sig[64] += 27
	return sig, nil
}

func (s *Signer) RecoverSigner(payload domain.ProofPayload, signature []byte) (common.Address, error) {
	hash, err := s.codec.Hash(payload)
	if err != nil {
		return common.Address{}, err
	}
	return recoverAddress(hash, signature)
}

func (s *Signer) RecoverPersonal(message string, signature []byte) (common.Address, error) {
	return recoverAddress(accounts.TextHash([]byte(message)), signature)
}

func recoverAddress(hash, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: signature must be %d bytes", domain.ErrInvalidSignature, crypto.SignatureLength)
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return common.Address{}, fmt.Errorf("%w: invalid recovery id", domain.ErrInvalidSignature)
	}
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
