package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	cacheadapter "github.com/gatepass/proof-service/internal/adapters/cache"
	"github.com/gatepass/proof-service/internal/adapters/chain"
	httpadapter "github.com/gatepass/proof-service/internal/adapters/http"
	"github.com/gatepass/proof-service/internal/adapters/security"
	"github.com/gatepass/proof-service/internal/application"
)

const testOwner = "0x00000000000000000000000000000000000000B2"

func newTestRouter(t *testing.T) (http.Handler, *application.Service) {
	t.Helper()

	codec := chain.NewProofCodec(chain.DomainParams{
		Name:    "GatePass",
		Version: "1",
		ChainID: 31337,
	})
	signer, err := chain.NewEphemeralSigner(codec)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	sessions, err := security.NewEphemeralJWTSigner("test-key-1")
	if err != nil {
		t.Fatalf("new jwt signer: %v", err)
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ProofTTL:           60 * time.Second,
			NonceRetention:     300 * time.Second,
			ClockSkewTolerance: 5 * time.Second,
			SessionTTL:         time.Hour,
		},
		Signer:   signer,
		Ledger:   cacheadapter.NewMemoryNonceLedger(),
		Sessions: sessions,
	})
	return httpadapter.NewRouter(httpadapter.NewHandler(svc)), svc
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func decodeData(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response envelope: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("expected success envelope, got %s: %s", envelope.Status, res.Body.String())
	}
	return envelope.Data
}

func decodeErrorCode(t *testing.T, res *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Status string `json:"status"`
		Code   string `json:"code"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Status != "error" {
		t.Fatalf("expected error envelope, got %s: %s", envelope.Status, res.Body.String())
	}
	return envelope.Code
}

func TestIssueVerifyReplayFlow(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	issueRes := postJSON(t, router, "/proof/v1/issue", map[string]any{
		"ticket_id": "42",
		"owner":     testOwner,
	})
	if issueRes.Code != http.StatusCreated {
		t.Fatalf("expected 201 issue response, got %d: %s", issueRes.Code, issueRes.Body.String())
	}
	issued := decodeData(t, issueRes)
	if issued["unverified"] != true {
		t.Fatal("expected unverified issuance without an oracle")
	}

	verifyBody := map[string]any{
		"payload":   issued["payload"],
		"signature": issued["signature"],
	}
	verifyRes := postJSON(t, router, "/proof/v1/verify", verifyBody)
	if verifyRes.Code != http.StatusOK {
		t.Fatalf("expected 200 verify response, got %d: %s", verifyRes.Code, verifyRes.Body.String())
	}
	verified := decodeData(t, verifyRes)
	if verified["valid"] != true {
		t.Fatalf("expected valid verification, got %v", verified)
	}
	if verified["ticket_id"] != "42" {
		t.Fatalf("expected ticket id 42, got %v", verified["ticket_id"])
	}

	replayRes := postJSON(t, router, "/proof/v1/verify", verifyBody)
	if replayRes.Code != http.StatusConflict {
		t.Fatalf("expected 409 replay response, got %d: %s", replayRes.Code, replayRes.Body.String())
	}
	if code := decodeErrorCode(t, replayRes); code != "PROOF_REPLAYED" {
		t.Fatalf("expected PROOF_REPLAYED code, got %s", code)
	}
}

func TestIssueRejectsMalformedRequests(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"non numeric ticket", map[string]any{"ticket_id": "abc", "owner": testOwner}},
		{"missing owner", map[string]any{"ticket_id": "42", "owner": ""}},
		{"unknown field", map[string]any{"ticket_id": "42", "owner": testOwner, "extra": 1}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := postJSON(t, router, "/proof/v1/issue", tc.body)
			if res.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", res.Code, res.Body.String())
			}
		})
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	issueRes := postJSON(t, router, "/proof/v1/issue", map[string]any{
		"ticket_id": "42",
		"owner":     testOwner,
	})
	issued := decodeData(t, issueRes)

	signature, err := hexutil.Decode(issued["signature"].(string))
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	signature[10] ^= 0xFF

	res := postJSON(t, router, "/proof/v1/verify", map[string]any{
		"payload":   issued["payload"],
		"signature": hexutil.Encode(signature),
	})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered signature, got %d: %s", res.Code, res.Body.String())
	}
	if code := decodeErrorCode(t, res); code != "INVALID_SIGNATURE" {
		t.Fatalf("expected INVALID_SIGNATURE code, got %s", code)
	}
}

func TestSignerAndStatsEndpoints(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/proof/v1/signer", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 signer response, got %d", res.Code)
	}
	if data := decodeData(t, res); data["signer"] != svc.SignerAddress().Hex() {
		t.Fatalf("expected signer %s, got %v", svc.SignerAddress().Hex(), data["signer"])
	}

	req = httptest.NewRequest(http.MethodGet, "/proof/v1/ledger/stats", nil)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 stats response, got %d", res.Code)
	}
	if data := decodeData(t, res); data["backend"] != "memory" {
		t.Fatalf("expected memory backend, got %v", data["backend"])
	}
}

func TestWalletSessionFlow(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	walletKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate wallet key: %v", err)
	}
	wallet := crypto.PubkeyToAddress(walletKey.PublicKey)

	message := "gatepass login challenge"
	signature, err := crypto.Sign(accounts.TextHash([]byte(message)), walletKey)
	if err != nil {
		t.Fatalf("sign challenge: %v", err)
	}
	signature[64] += 27

	loginRes := postJSON(t, router, "/auth/v1/wallet-verify", map[string]any{
		"address":   wallet.Hex(),
		"message":   message,
		"signature": hexutil.Encode(signature),
	})
	if loginRes.Code != http.StatusOK {
		t.Fatalf("expected 200 wallet-verify response, got %d: %s", loginRes.Code, loginRes.Body.String())
	}
	token, _ := decodeData(t, loginRes)["token"].(string)
	if token == "" {
		t.Fatal("expected a session token")
	}

	sessionReq := httptest.NewRequest(http.MethodGet, "/auth/v1/session", nil)
	sessionReq.Header.Set("Authorization", "Bearer "+token)
	sessionRes := httptest.NewRecorder()
	router.ServeHTTP(sessionRes, sessionReq)
	if sessionRes.Code != http.StatusOK {
		t.Fatalf("expected 200 session response, got %d: %s", sessionRes.Code, sessionRes.Body.String())
	}
	if data := decodeData(t, sessionRes); data["wallet"] != wallet.Hex() {
		t.Fatalf("expected session wallet %s, got %v", wallet.Hex(), data["wallet"])
	}

	bareReq := httptest.NewRequest(http.MethodGet, "/auth/v1/session", nil)
	bareRes := httptest.NewRecorder()
	router.ServeHTTP(bareRes, bareReq)
	if bareRes.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", bareRes.Code)
	}
}

func TestWalletVerifyRejectsWrongSigner(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	walletKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate wallet key: %v", err)
	}

	message := "gatepass login challenge"
	signature, err := crypto.Sign(accounts.TextHash([]byte(message)), walletKey)
	if err != nil {
		t.Fatalf("sign challenge: %v", err)
	}
	signature[64] += 27

	res := postJSON(t, router, "/auth/v1/wallet-verify", map[string]any{
		"address":   testOwner,
		"message":   message,
		"signature": hexutil.Encode(signature),
	})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for mismatched wallet, got %d: %s", res.Code, res.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("expected 200 from %s, got %d", path, res.Code)
		}
	}
}
