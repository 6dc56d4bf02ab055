package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"credmint/internal/audit"
	"credmint/internal/chain"
	"credmint/internal/collections"
	"credmint/internal/dashboard"
	"credmint/internal/platform/middleware"
	dErrors "credmint/pkg/domain-errors"
	"credmint/pkg/platform/httputil"
)

// Service defines the dashboard operations the handler exposes.
type Service interface {
	Collections() []collections.Collection
	View(ctx context.Context, address string) (*dashboard.View, error)
	Status(address string) dashboard.Verification
	Verify(ctx context.Context, address, collectionID string) (dashboard.Verification, error)
	Cancel(ctx context.Context, address string) (dashboard.Verification, error)
	HasValidKYC(ctx context.Context, address string) (bool, error)
	History(ctx context.Context, address string) ([]audit.Event, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/collections", h.HandleCollections)
	r.Get("/dashboard/{address}", h.HandleView)
	r.Post("/dashboard/{address}/verifications", h.HandleStartVerification)
	r.Get("/dashboard/{address}/verifications", h.HandleVerificationStatus)
	r.Delete("/dashboard/{address}/verifications", h.HandleCancelVerification)
	r.Get("/dashboard/{address}/kyc", h.HandleKYC)
	r.Get("/dashboard/{address}/history", h.HandleHistory)
}

// StartVerificationRequest is the body of POST /dashboard/{address}/verifications.
type StartVerificationRequest struct {
	CollectionID string `json:"collection_id"`
}

func (r *StartVerificationRequest) Normalize() {
	r.CollectionID = strings.ToLower(strings.TrimSpace(r.CollectionID))
}

func (r *StartVerificationRequest) Validate() error {
	if r.CollectionID == "" {
		return dErrors.New(dErrors.CodeValidation, "collection_id is required")
	}
	return nil
}

type CollectionsResponse struct {
	Collections []collections.Collection `json:"collections"`
}

type HistoryResponse struct {
	Events []audit.Event `json:"events"`
}

type KYCResponse struct {
	Address     string `json:"address"`
	HasValidKYC bool   `json:"has_valid_kyc"`
}

func (h *Handler) HandleCollections(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, CollectionsResponse{Collections: h.service.Collections()})
}

// HandleView returns owned and available collections with the session state.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	address := chi.URLParam(r, "address")

	view, err := h.service.View(ctx, address)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard view failed", "error", err, "request_id", requestID, "address", address)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleStartVerification starts verifying a collection. An attempt that
// fails to start still answers 202; the failure is in the returned state.
func (h *Handler) HandleStartVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	address := chi.URLParam(r, "address")

	req, ok := httputil.DecodeAndPrepare[StartVerificationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	status, err := h.service.Verify(ctx, address, req.CollectionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "start verification failed",
			"error", err,
			"request_id", requestID,
			"address", address,
			"collection", req.CollectionID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, status)
}

func (h *Handler) HandleVerificationStatus(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if _, err := chain.ParseAddress(address); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid wallet address"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.Status(address))
}

func (h *Handler) HandleCancelVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := chi.URLParam(r, "address")

	status, err := h.service.Cancel(ctx, address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// HandleKYC reports whether the vault accepts the wallet's KYC credential.
func (h *Handler) HandleKYC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	address := chi.URLParam(r, "address")

	ok, err := h.service.HasValidKYC(ctx, address)
	if err != nil {
		h.logger.ErrorContext(ctx, "kyc check failed", "error", err, "request_id", requestID, "address", address)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, KYCResponse{Address: strings.ToLower(address), HasValidKYC: ok})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	address := chi.URLParam(r, "address")

	events, err := h.service.History(ctx, address)
	if err != nil {
		h.logger.ErrorContext(ctx, "history lookup failed", "error", err, "request_id", requestID, "address", address)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{Events: events})
}
