// Package webhook receives provider events, dispatches authorization requests
// to the authorization service and records every event.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cardauth/internal/authorization"
	"cardauth/internal/authorization/service"
	"cardauth/internal/eventlog"
	"cardauth/internal/provider/issuing"
	"cardauth/internal/webhook/metrics"
	dErrors "cardauth/pkg/domain-errors"
	"cardauth/pkg/platform/httputil"
	"cardauth/pkg/requestcontext"
)

const (
	// DefaultResponseBudget is the provider's window for answering an
	// authorization request.
	DefaultResponseBudget = 2000 * time.Millisecond

	defaultMaxBodyBytes int64 = 256 << 10
)

// Authorizer decides and delivers an authorization request.
type Authorizer interface {
	Authorize(ctx context.Context, req authorization.Request) (*service.Result, error)
}

// Verifier checks a payload against its signature header.
type Verifier interface {
	Verify(payload []byte, signature string) error
}

// Recorder accepts events for the event log without blocking the response.
type Recorder interface {
	Record(ctx context.Context, event eventlog.Event) error
}

// Handler is the provider webhook endpoint.
type Handler struct {
	authorizer Authorizer
	recorder   Recorder
	verifier   Verifier
	logger     *slog.Logger
	metrics    *metrics.Metrics
	budget     time.Duration
	maxBody    int64
}

// Option configures the Handler.
type Option func(*Handler)

// WithVerifier enables signature verification. Without one the handler runs
// in development mode and parses payloads unverified.
func WithVerifier(v Verifier) Option {
	return func(h *Handler) {
		h.verifier = v
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithResponseBudget bounds the time spent on an authorization request.
func WithResponseBudget(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.budget = d
		}
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// New constructs the webhook handler.
func New(authorizer Authorizer, recorder Recorder, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		authorizer: authorizer,
		recorder:   recorder,
		logger:     logger,
		budget:     DefaultResponseBudget,
		maxBody:    defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.verifier == nil {
		h.logger.Warn("no webhook secret configured, events are parsed without verification (development only)")
	}
	return h
}

// Register mounts the webhook endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks", h.HandleReceive)
	r.Get("/webhooks", h.HandleInfo)
}

// HandleReceive handles POST /webhooks.
func (h *Handler) HandleReceive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	payload, err := io.ReadAll(io.LimitReader(r.Body, h.maxBody+1))
	if err != nil {
		h.reject(ctx, w, "read", dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read webhook payload"))
		return
	}
	if int64(len(payload)) > h.maxBody {
		h.reject(ctx, w, "too_large", dErrors.New(dErrors.CodeBadRequest, "webhook payload too large"))
		return
	}

	signature := r.Header.Get(issuing.SignatureHeader)
	if signature == "" {
		h.reject(ctx, w, "signature", dErrors.New(dErrors.CodeBadRequest, "no signature"))
		return
	}
	if h.verifier != nil {
		if err := h.verifier.Verify(payload, signature); err != nil {
			h.logger.WarnContext(ctx, "webhook signature verification failed",
				"request_id", requestID,
				"client_ip", requestcontext.ClientIP(ctx),
				"user_agent", requestcontext.UserAgent(ctx),
				"body_length", len(payload),
				"error", err,
			)
			h.reject(ctx, w, "signature", err)
			return
		}
	}

	env, err := ParseEnvelope(payload)
	if err != nil {
		h.reject(ctx, w, "payload", err)
		return
	}
	h.metrics.IncReceived(env.Type)

	resp := ReceiveResponse{
		Received:  true,
		EventType: env.Type,
		EventID:   env.ID,
		Relevant:  IsRelevant(env.Type),
	}
	event := eventlog.Event{
		ID:       env.ID,
		Type:     env.Type,
		Created:  env.Created,
		Account:  env.Account,
		Source:   eventlog.SourceWebhook,
		Relevant: resp.Relevant,
		Data:     env.Object,
	}

	if env.Type == TypeAuthorizationRequest {
		record, err := h.authorize(ctx, env)
		h.metrics.ObserveResponse(time.Since(start), h.budget)
		if err != nil {
			h.logger.ErrorContext(ctx, "authorization request failed",
				"request_id", requestID,
				"event_id", env.ID,
				"error", err,
			)
			h.record(ctx, event)
			httputil.WriteError(w, err)
			return
		}
		event.Decision = record
		resp.Decision = record
		resp.DeliveryError = record.DeliveryError
	} else {
		h.logger.InfoContext(ctx, "webhook event received",
			"request_id", requestID,
			"event_id", env.ID,
			"event_type", env.Type,
			"account", env.Account,
			"relevant", resp.Relevant,
		)
	}

	h.record(ctx, event)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) authorize(ctx context.Context, env Envelope) (*eventlog.DecisionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, h.budget)
	defer cancel()

	req := env.AuthorizationRequest()
	res, err := h.authorizer.Authorize(ctx, req)
	if err != nil {
		return nil, err
	}

	record := eventlog.NewDecisionRecord(res.Request, res.Decision, res.DeliveryErr)
	record.Replayed = res.Replayed
	h.logger.InfoContext(ctx, "authorization decided",
		"request_id", requestcontext.RequestID(ctx),
		"event_id", env.ID,
		"authorization_id", req.ID,
		"amount", req.Amount,
		"currency", req.Currency,
		"merchant_category_code", req.MerchantCategoryCode,
		"outcome", res.Decision.Outcome,
		"reason_code", res.Decision.ReasonCode,
		"approved_amount", res.Decision.ApprovedAmount,
		"unknown_category", res.Decision.UnknownCategory,
		"replayed", res.Replayed,
		"delivered", res.DeliveryErr == nil,
	)
	return record, nil
}

// record hands the event to the recorder detached from the request context
// so the write outlives the response.
func (h *Handler) record(ctx context.Context, event eventlog.Event) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(context.WithoutCancel(ctx), event); err != nil {
		h.metrics.IncRecordFailures()
		level := slog.LevelError
		if errors.Is(err, eventlog.ErrBufferFull) {
			level = slog.LevelWarn
		}
		h.logger.Log(ctx, level, "failed to record webhook event",
			"request_id", requestcontext.RequestID(ctx),
			"event_id", event.ID,
			"error", err,
		)
	}
}

func (h *Handler) reject(ctx context.Context, w http.ResponseWriter, reason string, err error) {
	h.metrics.IncRejected(reason)
	h.logger.WarnContext(ctx, "webhook rejected",
		"request_id", requestcontext.RequestID(ctx),
		"client_ip", requestcontext.ClientIP(ctx),
		"reason", reason,
		"error", err,
	)
	httputil.WriteError(w, err)
}

// HandleInfo handles GET /webhooks.
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, InfoResponse{
		Message:            "Card authorization webhook endpoint",
		SupportedEvents:    RelevantEvents,
		Status:             "active",
		Endpoint:           "/webhooks",
		EventsEndpoint:     "/webhooks/events",
		AuthorizationLogic: "real-time",
		ResponseWindow:     fmt.Sprintf("%dms", h.budget.Milliseconds()),
		SignatureVerified:  h.verifier != nil,
	})
}
