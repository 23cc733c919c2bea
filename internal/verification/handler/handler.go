package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"verinode/internal/platform/middleware"
	"verinode/internal/verification/metrics"
	"verinode/internal/verification/models"
	"verinode/pkg/platform/httputil"
)

// Service defines the interface for claim verification operations.
type Service interface {
	Vote(ctx context.Context, req *models.VoteRequest) *models.Vote
	Finalize(ctx context.Context, req *models.FinalizeRequest) (*models.FinalizeResult, error)
	Identity() *models.IdentityResponse
	Status(ctx context.Context) (*models.StatusResponse, error)
}

// Handler handles claim verification endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	metrics *metrics.Metrics
}

// New creates a new verification Handler.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		metrics: metrics,
	}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/vote", h.handleVote)
	r.Post("/finalize", h.handleFinalize)
	r.Get("/identity", h.handleIdentity)
	r.Get("/status", h.handleStatus)
}

// handleVote casts this node's vote on a claim. The response is always a
// well-formed vote with HTTP 200: a request this handler cannot even decode
// still produces a DENY, because to the orchestrator a transport error from a
// voter is indistinguishable from an offline node.
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.VoteLatency.Observe(time.Since(start).Seconds())
		}
	}()

	requestID := middleware.GetRequestID(ctx)

	var req models.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode vote request",
			"request_id", requestID,
			"error", err,
		)
		// An undecodable body votes DENY like any other malformed claim.
		vote := h.service.Vote(ctx, &models.VoteRequest{})
		httputil.WriteJSON(w, http.StatusOK, vote)
		return
	}
	req.Normalize()

	vote := h.service.Vote(ctx, &req)
	httputil.WriteJSON(w, http.StatusOK, vote)
}

// handleFinalize applies the orchestrator's quorum verdict to a staged claim.
// Unlike vote, finalize distinguishes caller protocol errors: an unknown or
// already-consumed claim id is a 404, a malformed request is a 4xx.
func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.FinalizeLatency.Observe(time.Since(start).Seconds())
		}
	}()

	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.FinalizeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Finalize(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "finalize failed",
			"request_id", requestID,
			"claim_id", req.ClaimID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleIdentity(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Identity())
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.service.Status(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read node status",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}
