package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cardauth/internal/provider/metrics"
	"cardauth/pkg/platform/circuit"
	"cardauth/pkg/platform/sentinel"
)

const DefaultCallTimeout = 1500 * time.Millisecond

var tracer = otel.Tracer("cardauth/internal/provider")

// Guarded bounds every call to the wrapped notifier with a timeout and a
// circuit breaker, and converts failures into DeliveryError. It never retries.
type Guarded struct {
	next    Notifier
	timeout time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures Guarded.
type Option func(*Guarded)

func WithTimeout(d time.Duration) Option {
	return func(g *Guarded) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(g *Guarded) {
		g.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guarded) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guarded) {
		g.metrics = m
	}
}

// NewGuarded wraps next.
func NewGuarded(next Notifier, opts ...Option) *Guarded {
	g := &Guarded{
		next:    next,
		timeout: DefaultCallTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.breaker == nil {
		g.breaker = circuit.New("provider")
	}
	return g
}

func (g *Guarded) Approve(ctx context.Context, req ApproveRequest) error {
	attrs := []attribute.KeyValue{attribute.String("authorization_id", req.AuthorizationID)}
	if req.Amount != nil {
		attrs = append(attrs, attribute.Int64("amount", *req.Amount))
	}
	return g.call(ctx, OpApprove, req.AuthorizationID, attrs, func(ctx context.Context) error {
		return g.next.Approve(ctx, req)
	})
}

func (g *Guarded) Decline(ctx context.Context, req DeclineRequest) error {
	attrs := []attribute.KeyValue{
		attribute.String("authorization_id", req.AuthorizationID),
		attribute.String("reason", req.Reason),
	}
	return g.call(ctx, OpDecline, req.AuthorizationID, attrs, func(ctx context.Context) error {
		return g.next.Decline(ctx, req)
	})
}

func (g *Guarded) call(ctx context.Context, op Op, authID string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "provider."+string(op), trace.WithAttributes(attrs...))
	defer span.End()

	if !g.breaker.Allow() {
		g.metrics.IncCircuitRejected(string(op))
		err := &DeliveryError{Op: op, AuthorizationID: authID, Err: sentinel.ErrCircuitOpen}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	elapsed := time.Since(start)

	if err == nil {
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.metrics.SetCircuitOpen(false)
			g.logger.InfoContext(ctx, "provider circuit closed", "breaker", g.breaker.Name())
		}
		g.metrics.ObserveCall(string(op), "ok", elapsed)
		return nil
	}

	timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)
	result := "error"
	if timedOut {
		result = "timeout"
		err = errors.Join(sentinel.ErrTimeout, err)
	}
	g.metrics.ObserveCall(string(op), result, elapsed)

	if _, change := g.breaker.RecordFailure(); change.Opened {
		g.metrics.SetCircuitOpen(true)
		g.logger.WarnContext(ctx, "provider circuit opened", "breaker", g.breaker.Name())
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, result)
	return &DeliveryError{Op: op, AuthorizationID: authID, Timeout: timedOut, Err: err}
}
