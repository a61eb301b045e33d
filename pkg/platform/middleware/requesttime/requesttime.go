// Package requesttime pins one UTC "now" per request, so every limit window
// and log line of a decision agrees on the same instant.
package requesttime

import (
	"net/http"
	"time"

	"cardauth/pkg/requestcontext"
)

// Middleware stamps the request start time. A time already on the context is
// kept, which lets tests drive the router with a fixed clock.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !requestcontext.HasTime(ctx) {
			ctx = requestcontext.WithTime(ctx, time.Now().UTC())
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
