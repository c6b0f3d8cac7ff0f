package chain

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/gatepass/proof-service/internal/domain"
)

func testCodec() *ProofCodec {
	return NewProofCodec(DomainParams{
		Name:              "GatePass",
		Version:           "1",
		ChainID:           31337,
		VerifyingContract: common.HexToAddress("0x00000000000000000000000000000000000000A1"),
	})
}

func testPayload() domain.ProofPayload {
	return domain.ProofPayload{
		TicketID: big.NewInt(42),
		Owner:    common.HexToAddress("0x00000000000000000000000000000000000000B2"),
		IssuedAt: 1_700_000_000,
		Nonce:    big.NewInt(981273),
	}
}

func TestSignRecoverRoundtrip(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner(testCodec())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	payload := testPayload()
	signature, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(signature) != crypto.SignatureLength {
		t.Fatalf("expected %d byte signature, got %d", crypto.SignatureLength, len(signature))
	}
	if signature[64] != 27 && signature[64] != 28 {
		t.Fatalf("expected wire recovery id 27 or 28, got %d", signature[64])
	}

	recovered, err := signer.RecoverSigner(payload, signature)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if recovered != signer.Address() {
		t.Fatalf("expected recovered %s, got %s", signer.Address().Hex(), recovered.Hex())
	}
}

func TestRecoverDivergesOnTamperedField(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner(testCodec())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	payload := testPayload()
	signature, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	mutations := map[string]domain.ProofPayload{
		"ticket id": {TicketID: big.NewInt(43), Owner: payload.Owner, IssuedAt: payload.IssuedAt, Nonce: payload.Nonce},
		"owner":     {TicketID: payload.TicketID, Owner: common.HexToAddress("0xC3"), IssuedAt: payload.IssuedAt, Nonce: payload.Nonce},
		"issued at": {TicketID: payload.TicketID, Owner: payload.Owner, IssuedAt: payload.IssuedAt + 1, Nonce: payload.Nonce},
		"nonce":     {TicketID: payload.TicketID, Owner: payload.Owner, IssuedAt: payload.IssuedAt, Nonce: big.NewInt(981274)},
	}
	for name, mutated := range mutations {
		recovered, err := signer.RecoverSigner(mutated, signature)
		if err == nil && recovered == signer.Address() {
			t.Fatalf("tampered %s still recovered the service signer", name)
		}
	}
}

func TestRecoverDivergesAcrossDomains(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	keyHex := common.Bytes2Hex(crypto.FromECDSA(key))

	signerA, err := NewSigner(keyHex, testCodec())
	if err != nil {
		t.Fatalf("signer a: %v", err)
	}
	signerB, err := NewSigner(keyHex, NewProofCodec(DomainParams{
		Name:              "GatePass",
		Version:           "2",
		ChainID:           31337,
		VerifyingContract: common.HexToAddress("0x00000000000000000000000000000000000000A1"),
	}))
	if err != nil {
		t.Fatalf("signer b: %v", err)
	}

	payload := testPayload()
	signature, err := signerA.Sign(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	recovered, err := signerB.RecoverSigner(payload, signature)
	if err == nil && recovered == signerB.Address() {
		t.Fatal("signature verified under a different domain separator")
	}
}

func TestRecoverRejectsMalformedSignatures(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner(testCodec())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	payload := testPayload()
	signature, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := signer.RecoverSigner(payload, signature[:64]); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for short bytes, got %v", err)
	}
	if _, err := signer.RecoverSigner(payload, nil); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for nil bytes, got %v", err)
	}

	badV := make([]byte, len(signature))
	copy(badV, signature)
	badV[64] = 9
	if _, err := signer.RecoverSigner(payload, badV); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for bad recovery id, got %v", err)
	}
}

func TestSignDoesNotMutateV(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner(testCodec())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	payload := testPayload()
	signature, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	keep := signature[64]

	if _, err := signer.RecoverSigner(payload, signature); err != nil {
		t.Fatalf("recover: %v", err)
	}
	// Recovery normalizes a copy; the caller's bytes stay on the 27/28 wire form.
	if signature[64] != keep {
		t.Fatalf("recover mutated caller signature: %d -> %d", keep, signature[64])
	}
}

func TestRecoverPersonal(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner(testCodec())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	walletKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate wallet key: %v", err)
	}
	wallet := crypto.PubkeyToAddress(walletKey.PublicKey)

	message := "login challenge"
	signature, err := crypto.Sign(accounts.TextHash([]byte(message)), walletKey)
	if err != nil {
		t.Fatalf("sign message: %v", err)
	}
	signature[64] += 27

	recovered, err := signer.RecoverPersonal(message, signature)
	if err != nil {
		t.Fatalf("recover personal: %v", err)
	}
	if recovered != wallet {
		t.Fatalf("expected %s, got %s", wallet.Hex(), recovered.Hex())
	}

	other, err := signer.RecoverPersonal("different message", signature)
	if err == nil && other == wallet {
		t.Fatal("signature over a different message recovered the same wallet")
	}
}

func TestNewSignerRejectsBadKey(t *testing.T) {
	t.Parallel()

	if _, err := NewSigner("", testCodec()); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := NewSigner("zz", testCodec()); err == nil {
		t.Fatal("expected error for non-hex key")
	}
}

func TestCodecHashRequiresTicketAndNonce(t *testing.T) {
	t.Parallel()

	codec := testCodec()
	if _, err := codec.Hash(domain.ProofPayload{Nonce: big.NewInt(1)}); !errors.Is(err, domain.ErrMalformedInput) {
		t.Fatalf("expected malformed input without ticket id, got %v", err)
	}
	if _, err := codec.Hash(domain.ProofPayload{TicketID: big.NewInt(1)}); !errors.Is(err, domain.ErrMalformedInput) {
		t.Fatalf("expected malformed input without nonce, got %v", err)
	}
}
