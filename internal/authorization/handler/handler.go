package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardauth/internal/authorization"
	"cardauth/pkg/platform/httputil"
	"cardauth/pkg/requestcontext"
)

// Service performs manual provider actions.
type Service interface {
	Approve(ctx context.Context, authorizationID, account string, amount *int64) error
	Decline(ctx context.Context, authorizationID, account, reason string) error
}

// PolicyStore exposes the active policy and its reload trigger.
type PolicyStore interface {
	Current() *authorization.PolicyConfig
	Reload(ctx context.Context) (*authorization.PolicyConfig, error)
	Reloads() int64
}

// Handler serves the admin authorization and policy endpoints.
type Handler struct {
	service  Service
	policies PolicyStore
	logger   *slog.Logger
}

// New constructs the admin handler.
func New(service Service, policies PolicyStore, logger *slog.Logger) *Handler {
	return &Handler{service: service, policies: policies, logger: logger}
}

// RegisterAdmin mounts the admin endpoints. Callers wrap r with admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/policy", h.HandleGetPolicy)
	r.Post("/admin/policy/reload", h.HandleReloadPolicy)
	r.Post("/admin/authorizations/{id}/approve", h.HandleApprove)
	r.Post("/admin/authorizations/{id}/decline", h.HandleDecline)
}

// HandleGetPolicy handles GET /admin/policy.
func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toPolicyResponse(h.policies.Current(), h.policies.Reloads()))
}

// HandleReloadPolicy handles POST /admin/policy/reload.
func (h *Handler) HandleReloadPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg, err := h.policies.Reload(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "policy reload rejected",
			"request_id", requestcontext.RequestID(ctx),
			"admin", requestcontext.AdminSubject(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "policy reloaded by admin",
		"request_id", requestcontext.RequestID(ctx),
		"admin", requestcontext.AdminSubject(ctx),
		"version", cfg.Version,
	)
	httputil.WriteJSON(w, http.StatusOK, toPolicyResponse(cfg, h.policies.Reloads()))
}

// HandleApprove handles POST /admin/authorizations/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req ApproveRequest
	if !decodeOptional(w, r, h.logger, &req) {
		return
	}
	if err := h.service.Approve(ctx, id, req.Account, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ActionResponse{Success: true, AuthorizationID: id, Action: "approve"})
}

// HandleDecline handles POST /admin/authorizations/{id}/decline.
func (h *Handler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req DeclineRequest
	if !decodeOptional(w, r, h.logger, &req) {
		return
	}
	if err := h.service.Decline(ctx, id, req.Account, req.Reason); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ActionResponse{Success: true, AuthorizationID: id, Action: "decline"})
}

// decodeOptional decodes and validates a body when one is present. Manual
// actions accept an empty body.
func decodeOptional(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst httputil.Validatable) bool {
	ctx := r.Context()
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, dst); err != nil {
			logger.WarnContext(ctx, "failed to decode request",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, err)
			return false
		}
	}
	if err := dst.Validate(); err != nil {
		httputil.WriteError(w, err)
		return false
	}
	return true
}
