package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatepass/proof-service/internal/application"
)

// Handler is the HTTP adapter entrypoint for proof use-cases.
// Keeping only application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers the proof service routes and middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/proof/v1", func(r chi.Router) {
		r.Post("/issue", handler.issueProof)
		r.Post("/verify", handler.verifyProof)
		r.Get("/signer", handler.signerAddress)
		r.Get("/ledger/stats", handler.ledgerStats)
	})

	r.Route("/auth/v1", func(r chi.Router) {
		r.Post("/wallet-verify", handler.walletVerify)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Get("/session", handler.session)
		})
	})

	return r
}
