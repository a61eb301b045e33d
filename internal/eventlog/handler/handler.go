package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cardauth/internal/eventlog"
	dErrors "cardauth/pkg/domain-errors"
	"cardauth/pkg/platform/httputil"
	"cardauth/pkg/requestcontext"
)

// Handler exposes the event log over HTTP.
type Handler struct {
	store  eventlog.Store
	logger *slog.Logger
}

// New constructs an event log handler.
func New(store eventlog.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the public event log endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/webhooks/events", h.HandleList)
	r.Post("/webhooks/events", h.HandleAppend)
	r.Post("/webhooks/test", h.HandleMock)
}

// RegisterAdmin mounts the destructive endpoints. Callers wrap r with admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Delete("/webhooks/events", h.HandleClear)
}

// HandleList handles GET /webhooks/events?limit=n.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	events, err := h.store.List(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []eventlog.Event{}
	}
	count, err := h.store.Count(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Success: true, Events: events, Count: count})
}

// HandleAppend handles POST /webhooks/events.
func (h *Handler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AppendRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	now := requestcontext.Now(ctx)
	event := eventlog.Event{
		ID:        req.ID,
		Type:      req.Type,
		Created:   req.Created,
		Timestamp: now,
		Account:   req.Account,
		Source:    eventlog.SourceManual,
		Data:      req.Data,
	}
	if event.Created == 0 {
		event.Created = now.Unix()
	}
	if err := h.store.Append(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "failed to store event",
			"request_id", requestID,
			"event_id", event.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.respondCount(w, r, "Event stored successfully")
}

// HandleClear handles DELETE /webhooks/events.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cleared, err := h.store.Clear(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to clear events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "event log cleared",
		"request_id", requestcontext.RequestID(ctx),
		"admin", requestcontext.AdminSubject(ctx),
		"cleared", cleared,
	)
	httputil.WriteJSON(w, http.StatusOK, CountResponse{
		Success: true,
		Message: fmt.Sprintf("All %d events cleared", cleared),
		Count:   0,
	})
}

// HandleMock handles POST /webhooks/test: it stores a generated event of the
// requested type without running it through the receiver.
func (h *Handler) HandleMock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[MockRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	now := requestcontext.Now(ctx)
	event := eventlog.Event{
		ID:        "evt_test_" + uuid.NewString(),
		Type:      req.EventType,
		Created:   now.Unix(),
		Timestamp: now,
		Account:   mockAccount,
		Source:    eventlog.SourceMock,
		Data:      mockData(req.EventType, now),
	}
	if err := h.store.Append(ctx, event); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "mock event created",
		"request_id", requestID,
		"event_id", event.ID,
		"event_type", event.Type,
	)
	httputil.WriteJSON(w, http.StatusOK, MockResponse{
		Success: true,
		Message: fmt.Sprintf("Mock %s event created successfully", event.Type),
		Event:   event,
	})
}

func (h *Handler) respondCount(w http.ResponseWriter, r *http.Request, msg string) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountResponse{Success: true, Message: msg, Count: count})
}
