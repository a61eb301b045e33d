package simulation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardauth/pkg/platform/httputil"
	"cardauth/pkg/requestcontext"
)

// Handler exposes the simulation endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a simulation handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the simulation endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/simulate/scenarios", h.HandleScenarios)
	r.Post("/simulate/authorize", h.HandleAuthorize)
}

// HandleScenarios handles GET /simulate/scenarios.
func (h *Handler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toScenariosResponse(Scenarios()))
}

// HandleAuthorize handles POST /simulate/authorize.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AuthorizeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	var (
		res *Result
		err error
	)
	if req.Scenario != "" {
		res, err = h.service.RunScenario(ctx, req.Scenario)
	} else {
		res, err = h.service.RunCustom(ctx, req.Custom())
	}
	if err != nil {
		h.logger.WarnContext(ctx, "simulation rejected",
			"request_id", requestID,
			"scenario", req.Scenario,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuthorizeResponse(res))
}
