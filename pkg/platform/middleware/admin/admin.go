package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"cardauth/pkg/requestcontext"
)

// TokenHeader carries the static admin token.
const TokenHeader = "X-Admin-Token"

// subjectStaticToken identifies callers that used the static token.
const subjectStaticToken = "admin-token"

// BearerValidator validates an admin bearer token and returns its subject.
type BearerValidator interface {
	ValidateAdmin(tokenString string) (string, error)
}

// RequireAdmin accepts either the static admin token or a bearer token the
// validator accepts. An empty expectedToken disables the static token, a nil
// validator disables bearer tokens.
func RequireAdmin(expectedToken string, validator BearerValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			if token := r.Header.Get(TokenHeader); token != "" && expectedToken != "" {
				// Use constant-time comparison to prevent timing attacks
				if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) == 1 {
					next.ServeHTTP(w, r.WithContext(requestcontext.WithAdminSubject(ctx, subjectStaticToken)))
					return
				}
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestID,
				)
				unauthorized(w, "admin token required")
				return
			}

			if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && validator != nil {
				subject, err := validator.ValidateAdmin(bearer)
				if err != nil {
					logger.WarnContext(ctx, "admin bearer token rejected",
						"request_id", requestID,
						"error", err,
					)
					unauthorized(w, "invalid or expired admin token")
					return
				}
				next.ServeHTTP(w, r.WithContext(requestcontext.WithAdminSubject(ctx, subject)))
				return
			}

			logger.WarnContext(ctx, "unauthorized admin access - missing token",
				"request_id", requestID,
			)
			unauthorized(w, "admin token required")
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
