package verifyconfig

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	jwttoken "credmint/internal/jwt_token"
	"credmint/internal/platform/middleware"
	"credmint/internal/proofrequest"
	dErrors "credmint/pkg/domain-errors"
	"credmint/pkg/platform/httputil"
)

const maxCallbackBytes = 1 << 20

const msgMissingProvider = "Please specify a provider. Example: /verification-config/coinbase"

// ConfigBuilder issues proof-request configs.
type ConfigBuilder interface {
	Build(ctx context.Context, provider string) (proofrequest.Config, error)
}

type Handler struct {
	builder ConfigBuilder
	inbox   *proofrequest.Inbox
	tokens  *jwttoken.CallbackService
	logger  *slog.Logger
}

// New wires the config endpoint. With a nil inbox or token service the
// callback endpoint is not registered.
func New(builder ConfigBuilder, inbox *proofrequest.Inbox, tokens *jwttoken.CallbackService, logger *slog.Logger) *Handler {
	return &Handler{builder: builder, inbox: inbox, tokens: tokens, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/verification-config", h.HandleMissingProvider)
	r.Get("/verification-config/{provider}", h.HandleConfig)
	if h.inbox != nil && h.tokens != nil {
		r.Get("/verify-callback", h.HandleCallback)
		r.Post("/verify-callback", h.HandleCallback)
	}
}

func (h *Handler) HandleMissingProvider(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusBadRequest, proofrequest.ConfigResponse{Error: msgMissingProvider})
}

// HandleConfig returns a freshly signed proof-request config serialized as a
// string, the form the client side hands to its request factory.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	provider := chi.URLParam(r, "provider")

	cfg, err := h.builder.Build(ctx, provider)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to generate verification config"
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) && domainErr.Code == dErrors.CodeUnknownProvider {
			status = http.StatusNotFound
			message = domainErr.Message
		} else {
			h.logger.ErrorContext(ctx, "build verification config failed",
				"error", err,
				"provider", provider,
				"request_id", requestID,
			)
		}
		httputil.WriteJSON(w, status, proofrequest.ConfigResponse{Error: message})
		return
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		h.logger.ErrorContext(ctx, "encode verification config failed", "error", err, "request_id", requestID)
		httputil.WriteJSON(w, http.StatusInternalServerError, proofrequest.ConfigResponse{Error: "Failed to generate verification config"})
		return
	}

	h.logger.InfoContext(ctx, "verification config issued",
		"provider", cfg.Provider,
		"session_id", cfg.SessionID,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, proofrequest.ConfigResponse{Success: true, ProofRequest: string(raw)})
}

type callbackResponse struct {
	Success bool `json:"success"`
}

// HandleCallback accepts the proof service's outcome for a session. A body
// carrying proofs resolves the session with them; an "error" query parameter
// or an {"error": "..."} body resolves it with a provider error.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	query := r.URL.Query()
	sessionID := query.Get("sessionId")

	if _, err := h.tokens.Validate(query.Get("token"), sessionID); err != nil {
		h.logger.WarnContext(ctx, "callback rejected", "error", err, "session_id", sessionID, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	delivery, err := readDelivery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.inbox.Deliver(sessionID, delivery); err != nil {
		switch {
		case errors.Is(err, proofrequest.ErrUnknownSession):
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no verification is waiting for this session"))
		case errors.Is(err, proofrequest.ErrAlreadyDelivered):
			httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "session already resolved"))
		default:
			h.logger.ErrorContext(ctx, "callback delivery failed", "error", err, "request_id", requestID)
			httputil.WriteError(w, err)
		}
		return
	}

	h.logger.InfoContext(ctx, "callback delivered",
		"session_id", sessionID,
		"failed", delivery.Error != "",
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, callbackResponse{Success: true})
}

func readDelivery(r *http.Request) (proofrequest.Delivery, error) {
	if msg := r.URL.Query().Get("error"); msg != "" {
		return proofrequest.Delivery{Error: msg}, nil
	}
	if r.Method != http.MethodPost {
		return proofrequest.Delivery{}, dErrors.New(dErrors.CodeBadRequest, "callback carries neither proofs nor an error")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBytes))
	if err != nil {
		return proofrequest.Delivery{}, dErrors.New(dErrors.CodeBadRequest, "unreadable callback body")
	}
	body = []byte(strings.TrimSpace(string(body)))
	if !json.Valid(body) {
		// some clients post the proof URL-encoded
		decoded, err := url.QueryUnescape(string(body))
		if err != nil || !json.Valid([]byte(decoded)) {
			return proofrequest.Delivery{}, dErrors.New(dErrors.CodeBadRequest, "callback body is not JSON")
		}
		body = []byte(decoded)
	}

	if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String && !gjson.GetBytes(body, "proofs").Exists() {
		return proofrequest.Delivery{Error: msg.String()}, nil
	}
	if proofs := gjson.GetBytes(body, "proofs"); proofs.IsArray() || proofs.IsObject() {
		return proofrequest.Delivery{Proofs: json.RawMessage(proofs.Raw)}, nil
	}
	return proofrequest.Delivery{Proofs: json.RawMessage(body)}, nil
}
