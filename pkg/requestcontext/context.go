// Package requestcontext carries request-scoped values (request ID, pinned
// time, client metadata, admin subject) without importing net/http.
//
// Middleware sets them; services and the webhook pipeline read them. Tests
// inject them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	requestIDKey key = iota
	requestTimeKey
	clientIPKey
	userAgentKey
	adminSubjectKey
)

func value[T any](ctx context.Context, k key) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

func stringValue(ctx context.Context, k key) string {
	v, _ := value[string](ctx, k)
	return v
}

func RequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now returns the pinned request time, or the wall clock outside a request
// (background workers, startup).
func Now(ctx context.Context) time.Time {
	if t, ok := value[time.Time](ctx, requestTimeKey); ok {
		return t
	}
	return time.Now()
}

// HasTime reports whether a request time is pinned on ctx.
func HasTime(ctx context.Context) bool {
	_, ok := value[time.Time](ctx, requestTimeKey)
	return ok
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}

func ClientIP(ctx context.Context) string {
	return stringValue(ctx, clientIPKey)
}

func UserAgent(ctx context.Context) string {
	return stringValue(ctx, userAgentKey)
}

// WithClientMetadata records where the request came from.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

// AdminSubject is the authenticated admin behind a manual action, empty on
// public routes.
func AdminSubject(ctx context.Context) string {
	return stringValue(ctx, adminSubjectKey)
}

func WithAdminSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, adminSubjectKey, subject)
}
