package domain

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestLedgerKeyScopedByTicket(t *testing.T) {
	t.Parallel()

	nonce := big.NewInt(9_812_730)
	a := ProofPayload{TicketID: big.NewInt(1), Nonce: nonce}
	b := ProofPayload{TicketID: big.NewInt(2), Nonce: nonce}

	if a.LedgerKey() == b.LedgerKey() {
		t.Fatal("identical nonce on different tickets must map to different ledger keys")
	}
	if a.LedgerKey() != a.LedgerKey() {
		t.Fatal("ledger key must be deterministic")
	}
}

func TestProofPayloadJSONRoundtrip(t *testing.T) {
	t.Parallel()

	payload := ProofPayload{
		TicketID: new(big.Int).Lsh(big.NewInt(1), 200),
		Owner:    common.HexToAddress("0x00000000000000000000000000000000000000B2"),
		IssuedAt: 1_700_000_000,
		Nonce:    new(big.Int).Lsh(big.NewInt(7), 180),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded ProofPayload
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// Values beyond 64 bits must survive the wire form intact.
	if decoded.TicketID.Cmp(payload.TicketID) != 0 || decoded.Nonce.Cmp(payload.Nonce) != 0 {
		t.Fatalf("uint256 fields did not survive roundtrip: %+v", decoded)
	}
	if decoded.Owner != payload.Owner || decoded.IssuedAt != payload.IssuedAt {
		t.Fatalf("payload fields did not survive roundtrip: %+v", decoded)
	}
}

func TestProofPayloadUnmarshalRejectsBadFields(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"negative ticket": `{"ticket_id":"-1","owner":"0x00000000000000000000000000000000000000B2","issued_at":1,"nonce":"0x1"}`,
		"hex ticket":      `{"ticket_id":"0x2a","owner":"0x00000000000000000000000000000000000000B2","issued_at":1,"nonce":"0x1"}`,
		"bad owner":       `{"ticket_id":"42","owner":"not-an-address","issued_at":1,"nonce":"0x1"}`,
		"decimal nonce":   `{"ticket_id":"42","owner":"0x00000000000000000000000000000000000000B2","issued_at":1,"nonce":"42"}`,
	}
	for name, raw := range cases {
		var decoded ProofPayload
		if err := json.Unmarshal([]byte(raw), &decoded); !errors.Is(err, ErrMalformedInput) {
			t.Fatalf("%s: expected malformed input, got %v", name, err)
		}
	}
}
