package security

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gatepass/proof-service/internal/ports"
)

func TestJWTSignerRoundtrip(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralJWTSigner("test-key-1")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	wallet := common.HexToAddress("0x00000000000000000000000000000000000000B2")
	now := time.Now().UTC().Truncate(time.Second)
	token, err := signer.Sign(ports.SessionClaims{
		Wallet:    wallet,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := signer.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Wallet != wallet {
		t.Fatalf("expected wallet %s, got %s", wallet.Hex(), claims.Wallet.Hex())
	}
	if claims.KeyID != "test-key-1" {
		t.Fatalf("expected kid test-key-1, got %s", claims.KeyID)
	}
}

func TestJWTSignerRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralJWTSigner("test-key-1")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	past := time.Now().UTC().Add(-2 * time.Hour)
	token, err := signer.Sign(ports.SessionClaims{
		Wallet:    common.HexToAddress("0x00000000000000000000000000000000000000B2"),
		IssuedAt:  past,
		ExpiresAt: past.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := signer.ParseAndValidate(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestJWTSignerRejectsForeignKey(t *testing.T) {
	t.Parallel()

	a, err := NewEphemeralJWTSigner("key-a")
	if err != nil {
		t.Fatalf("new signer a: %v", err)
	}
	b, err := NewEphemeralJWTSigner("key-b")
	if err != nil {
		t.Fatalf("new signer b: %v", err)
	}

	now := time.Now().UTC()
	token, err := a.Sign(ports.SessionClaims{
		Wallet:    common.HexToAddress("0x00000000000000000000000000000000000000B2"),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := b.ParseAndValidate(token); err == nil {
		t.Fatal("expected token signed by a different key to be rejected")
	}
}
