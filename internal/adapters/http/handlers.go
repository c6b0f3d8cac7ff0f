package http

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/gatepass/proof-service/internal/application"
	"github.com/gatepass/proof-service/internal/domain"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeMissingBearerError(r.Context(), w, "auth_middleware")
			return
		}

		claims, err := h.service.ValidateSession(raw)
		if err != nil {
			writeMappedError(r.Context(), w, "auth_middleware", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
	})
}

type issueProofRequest struct {
	TicketID string `json:"ticket_id"`
	Owner    string `json:"owner"`
}

func (h *Handler) issueProof(w http.ResponseWriter, r *http.Request) {
	var req issueProofRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "issue_proof", err)
		return
	}
	ticketID, ok := new(big.Int).SetString(req.TicketID, 10)
	if !ok {
		writeMappedError(r.Context(), w, "issue_proof", domain.ErrMalformedInput)
		return
	}
	if !common.IsHexAddress(req.Owner) {
		writeMappedError(r.Context(), w, "issue_proof", domain.ErrMalformedInput)
		return
	}

	res, err := h.service.Issue(r.Context(), application.IssueRequest{
		TicketID: ticketID,
		Owner:    common.HexToAddress(req.Owner),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "issue_proof", err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"payload":    res.Payload,
		"signature":  hexutil.Encode(res.Signature),
		"expires_at": res.ExpiresAt,
		"unverified": res.Unverified,
	})
}

type verifyProofRequest struct {
	Payload   domain.ProofPayload `json:"payload"`
	Signature string              `json:"signature"`
}

func (h *Handler) verifyProof(w http.ResponseWriter, r *http.Request) {
	var req verifyProofRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "verify_proof", err)
		return
	}
	signature, err := hexutil.Decode(req.Signature)
	if err != nil {
		writeMappedError(r.Context(), w, "verify_proof", domain.ErrInvalidSignature)
		return
	}

	res, err := h.service.Verify(r.Context(), req.Payload, signature)
	if err != nil {
		writeMappedError(r.Context(), w, "verify_proof", err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"valid":     res.Valid,
		"signer":    res.Signer.Hex(),
		"owner":     res.Owner.Hex(),
		"ticket_id": res.TicketID.String(),
	})
}

func (h *Handler) signerAddress(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"signer": h.service.SignerAddress().Hex(),
	})
}

func (h *Handler) ledgerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.LedgerStats(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "ledger_stats", domain.ErrStorageUnavailable)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"count":   stats.Count,
		"backend": stats.Backend,
	})
}

type walletVerifyRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

func (h *Handler) walletVerify(w http.ResponseWriter, r *http.Request) {
	var req walletVerifyRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "wallet_verify", err)
		return
	}
	if !common.IsHexAddress(req.Address) {
		writeMappedError(r.Context(), w, "wallet_verify", domain.ErrMalformedInput)
		return
	}
	signature, err := hexutil.Decode(req.Signature)
	if err != nil {
		writeMappedError(r.Context(), w, "wallet_verify", domain.ErrInvalidSignature)
		return
	}

	res, err := h.service.WalletLogin(application.WalletLoginRequest{
		Address:   common.HexToAddress(req.Address),
		Message:   req.Message,
		Signature: signature,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "wallet_verify", err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"valid":      res.Valid,
		"token":      res.Token,
		"expires_at": res.ExpiresAt.Unix(),
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMissingBearerError(r.Context(), w, "session")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"wallet":     claims.Wallet.Hex(),
		"issued_at":  claims.IssuedAt.Unix(),
		"expires_at": claims.ExpiresAt.Unix(),
	})
}
