package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cardauth/pkg/platform/httputil"
	"cardauth/pkg/platform/middleware/metadata"
	"cardauth/pkg/platform/middleware/requestid"
	"cardauth/pkg/platform/middleware/requesttime"
)

const healthCheckTimeout = 2 * time.Second

// PublicRoutes is implemented by handlers with unauthenticated endpoints.
type PublicRoutes interface {
	Register(r chi.Router)
}

// AdminRoutes is implemented by handlers with admin-only endpoints.
type AdminRoutes interface {
	RegisterAdmin(r chi.Router)
}

// HealthCheck probes one dependency for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterDeps collects everything NewRouter mounts.
type RouterDeps struct {
	Logger       *slog.Logger
	Public       []PublicRoutes
	Admin        []AdminRoutes
	AdminAuth    func(http.Handler) http.Handler
	Metrics      http.Handler
	HealthChecks []HealthCheck
}

// NewRouter wires all endpoints behind the shared middleware. Admin routes are
// mounted in a group guarded by AdminAuth.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", healthHandler(deps.HealthChecks, deps.Logger))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	for _, h := range deps.Public {
		h.Register(r)
	}

	r.Group(func(admin chi.Router) {
		if deps.AdminAuth != nil {
			admin.Use(deps.AdminAuth)
		}
		for _, h := range deps.Admin {
			h.RegisterAdmin(admin)
		}
	})
	return r
}

// HealthResponse reports liveness and per-dependency status.
type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func healthHandler(checks []HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := HealthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Dependencies = make(map[string]string, len(checks))
		}
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"dependency", c.Name,
					"error", err,
				)
				resp.Dependencies[c.Name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Dependencies[c.Name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
