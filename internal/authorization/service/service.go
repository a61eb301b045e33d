package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cardauth/internal/authorization"
	"cardauth/internal/authorization/metrics"
	"cardauth/internal/provider"
	dErrors "cardauth/pkg/domain-errors"
	"cardauth/pkg/platform/sentinel"
	"cardauth/pkg/requestcontext"
)

var tracer = otel.Tracer("cardauth/internal/authorization")

const (
	defaultCacheSize = 4096
	defaultCacheTTL  = 24 * time.Hour
)

// PolicySource returns the active policy snapshot.
type PolicySource interface {
	Current() *authorization.PolicyConfig
}

// Result is the outcome of Authorize.
type Result struct {
	Request  authorization.Request
	Decision authorization.Decision

	// DeliveryErr is set when the decision could not be delivered. The
	// decision stays valid.
	DeliveryErr error
	// ValidationErr is set when the request was declined fail-closed
	// because it could not be evaluated.
	ValidationErr error
	// Replayed marks a redelivery answered from the cache without calling
	// the provider again.
	Replayed bool
}

// Service evaluates authorization requests against the active policy and
// delivers decisions to the provider.
type Service struct {
	policies PolicySource
	notifier provider.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	// delivered holds decisions the provider acknowledged, keyed by
	// authorization ID.
	delivered *expirable.LRU[string, authorization.Decision]
	cacheSize int
	cacheTTL  time.Duration
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithReplayCache sizes the delivered-decision cache.
func WithReplayCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size > 0 {
			s.cacheSize = size
		}
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// New constructs the service.
func New(policies PolicySource, notifier provider.Notifier, opts ...Option) (*Service, error) {
	if policies == nil {
		return nil, errors.New("policy source is required")
	}
	if notifier == nil {
		return nil, errors.New("provider notifier is required")
	}
	s := &Service{
		policies:  policies,
		notifier:  notifier,
		logger:    slog.Default(),
		cacheSize: defaultCacheSize,
		cacheTTL:  defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.delivered = expirable.NewLRU[string, authorization.Decision](s.cacheSize, nil, s.cacheTTL)
	return s, nil
}

// Policy returns the active policy snapshot.
func (s *Service) Policy() *authorization.PolicyConfig {
	return s.policies.Current()
}

// Decide evaluates req without contacting the provider.
func (s *Service) Decide(ctx context.Context, req authorization.Request) (authorization.Decision, error) {
	_, span := tracer.Start(ctx, "authorization.evaluate", trace.WithAttributes(
		attribute.String("authorization_id", req.ID),
		attribute.String("merchant_category_code", req.MerchantCategoryCode),
		attribute.Int64("amount", req.Amount),
	))
	defer span.End()

	policy := s.policies.Current()
	start := time.Now()
	d, err := authorization.Evaluate(req, policy, requestcontext.Now(ctx))
	s.metrics.ObserveEvaluateLatency(time.Since(start))
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return authorization.Decision{}, err
	}

	span.SetAttributes(
		attribute.String("outcome", string(d.Outcome)),
		attribute.String("reason_code", string(d.ReasonCode)),
	)
	s.metrics.IncrementOutcome(string(d.Outcome), string(d.ReasonCode))
	if d.UnknownCategory {
		s.metrics.IncUnknownCategory()
		s.logger.WarnContext(ctx, "unknown merchant category passed fail-open",
			"authorization_id", req.ID,
			"merchant_category_code", req.MerchantCategoryCode,
			"policy_version", d.PolicyVersion,
		)
	}
	return d, nil
}

// Authorize decides req and delivers the decision to the provider. A request
// that fails validation is declined fail-closed. A redelivered request whose
// decision was already delivered is answered from the cache.
func (s *Service) Authorize(ctx context.Context, req authorization.Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "authorization.authorize", trace.WithAttributes(
		attribute.String("authorization_id", req.ID),
	))
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveAuthorizeLatency(time.Since(start)) }()

	if req.ID != "" {
		if d, ok := s.delivered.Get(req.ID); ok {
			s.metrics.IncReplays()
			s.logger.InfoContext(ctx, "replaying delivered decision",
				"authorization_id", req.ID,
				"outcome", d.Outcome,
			)
			span.SetAttributes(attribute.Bool("replayed", true))
			return &Result{Request: req, Decision: d, Replayed: true}, nil
		}
	}

	res := &Result{Request: req}
	d, err := s.Decide(ctx, req)
	if err != nil {
		var vErr *authorization.ValidationError
		if !errors.As(err, &vErr) {
			return nil, err
		}
		s.metrics.IncValidationFailures()
		s.logger.WarnContext(ctx, "authorization request failed validation, declining",
			"authorization_id", req.ID,
			"error", err,
		)
		res.ValidationErr = err
		d = authorization.Decline(authorization.ReasonValidationFailed, vErr.Error(), requestcontext.Now(ctx))
		if policy := s.policies.Current(); policy != nil {
			d.PolicyVersion = policy.Version
		}
		s.metrics.IncrementOutcome(string(d.Outcome), string(d.ReasonCode))
	}
	res.Decision = d

	if req.ID == "" {
		res.DeliveryErr = &provider.DeliveryError{
			Op:  opFor(d),
			Err: fmt.Errorf("%w: authorization id is missing", sentinel.ErrNotFound),
		}
		return res, nil
	}

	if err := provider.Deliver(ctx, s.notifier, req, d); err != nil {
		s.metrics.IncDeliveryFailures()
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "decision delivery failed",
			"authorization_id", req.ID,
			"outcome", d.Outcome,
			"error", err,
		)
		res.DeliveryErr = err
		return res, nil
	}
	s.delivered.Add(req.ID, d)
	return res, nil
}

// Approve manually approves a pending authorization. A nil amount approves
// the requested amount.
func (s *Service) Approve(ctx context.Context, authorizationID, account string, amount *int64) error {
	if authorizationID == "" {
		return dErrors.New(dErrors.CodeValidation, "authorization id is required")
	}
	if amount != nil && *amount < 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}
	err := s.notifier.Approve(ctx, provider.ApproveRequest{
		AuthorizationID: authorizationID,
		Account:         account,
		Amount:          amount,
		Manual:          true,
	})
	return s.manualResult(ctx, provider.OpApprove, authorizationID, err)
}

// Decline manually declines a pending authorization.
func (s *Service) Decline(ctx context.Context, authorizationID, account, reason string) error {
	if authorizationID == "" {
		return dErrors.New(dErrors.CodeValidation, "authorization id is required")
	}
	err := s.notifier.Decline(ctx, provider.DeclineRequest{
		AuthorizationID: authorizationID,
		Account:         account,
		Reason:          reason,
		Manual:          true,
	})
	return s.manualResult(ctx, provider.OpDecline, authorizationID, err)
}

func (s *Service) manualResult(ctx context.Context, op provider.Op, authorizationID string, err error) error {
	if err == nil {
		s.logger.InfoContext(ctx, "manual authorization action delivered",
			"op", op,
			"authorization_id", authorizationID,
			"admin", requestcontext.AdminSubject(ctx),
		)
		return nil
	}
	s.logger.ErrorContext(ctx, "manual authorization action failed",
		"op", op,
		"authorization_id", authorizationID,
		"error", err,
	)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "authorization not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "authorization is not pending")
	case errors.Is(err, sentinel.ErrTimeout):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "provider timed out")
	case errors.Is(err, sentinel.ErrCircuitOpen), errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "provider unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "provider call failed")
}

func opFor(d authorization.Decision) provider.Op {
	if d.Approved {
		return provider.OpApprove
	}
	return provider.OpDecline
}
