package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"verinode/internal/peers"
	"verinode/internal/platform/health"
	"verinode/internal/platform/middleware"
	verificationhandler "verinode/internal/verification/handler"
)

// NewRouter wires all public endpoints with middleware. The transport layer
// stays thin: every handler delegates to a domain service.
func NewRouter(
	verification *verificationhandler.Handler,
	peerHandler *peers.Handler,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	// Vote, finalize, identity, status.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		verification.Register(r)
	})

	peerHandler.Register(r)
	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
