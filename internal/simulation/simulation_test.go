package simulation

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cardauth/internal/authorization"
	"cardauth/internal/authorization/policy"
	"cardauth/internal/authorization/service"
	"cardauth/internal/eventlog"
	"cardauth/internal/eventlog/store/memory"
	"cardauth/internal/provider/mocks"
	dErrors "cardauth/pkg/domain-errors"
	"cardauth/pkg/requestcontext"
	"cardauth/pkg/testutil"
)

func newDecider(t *testing.T) *service.Service {
	t.Helper()
	// Decide never reaches the provider, so the mock has no expectations.
	svc, err := service.New(policy.NewStaticStore(policy.Default()), mocks.NewMockNotifier(gomock.NewController(t)),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return svc
}

func TestCatalogue(t *testing.T) {
	svc := NewService(newDecider(t), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC))

	for _, sc := range Scenarios() {
		t.Run(sc.Key, func(t *testing.T) {
			res, err := svc.RunScenario(ctx, sc.Key)
			require.NoError(t, err)
			assert.Equal(t, sc.Expected, res.Decision.Outcome, res.Decision.Reason)
			assert.True(t, res.MatchesExpected())
			assert.LessOrEqual(t, res.Decision.ApprovedAmount, sc.Amount)
		})
	}
}

func TestScenarioDetails(t *testing.T) {
	svc := NewService(newDecider(t), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	t.Run("high amount names both amounts", func(t *testing.T) {
		res, err := svc.RunScenario(ctx, "high-amount-declined")
		require.NoError(t, err)
		assert.Equal(t, "Daily limit exceeded (£75.00 > £25.00)", res.Decision.Reason)
	})

	t.Run("partial authorization approves zero", func(t *testing.T) {
		res, err := svc.RunScenario(ctx, "partial-authorization")
		require.NoError(t, err)
		assert.True(t, res.Decision.Approved)
		assert.Zero(t, res.Decision.ApprovedAmount)
	})

	t.Run("unknown category is flagged", func(t *testing.T) {
		res, err := svc.RunScenario(ctx, "unknown-category")
		require.NoError(t, err)
		assert.True(t, res.Decision.UnknownCategory)
	})

	t.Run("unknown scenario", func(t *testing.T) {
		_, err := svc.RunScenario(ctx, "nope")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestRunCustom(t *testing.T) {
	store := memory.New(eventlog.DefaultCapacity)
	svc := NewService(newDecider(t), eventlog.NewRecorder(store), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	t.Run("generates an id and records the result", func(t *testing.T) {
		res, err := svc.RunCustom(ctx, authorization.Request{
			Amount: 800, Currency: "gbp", MerchantName: "Tesco", MerchantCategoryCode: "5411",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Request.ID)
		assert.True(t, res.Decision.Approved)

		events, err := store.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, eventlog.SourceSimulation, events[0].Source)
		assert.Equal(t, EventTypeSimulated, events[0].Type)
		assert.Equal(t, res.Request.ID, events[0].Decision.AuthorizationID)
	})

	t.Run("validation failure is a domain validation error", func(t *testing.T) {
		_, err := svc.RunCustom(ctx, authorization.Request{Amount: 800, MerchantName: "Tesco", MerchantCategoryCode: "54"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Handler Test Suite
// =============================================================================

type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(NewService(newDecider(s.T()), nil, logger), logger)
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) TestScenarios() {
	rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/simulate/scenarios"))
	s.Require().Equal(http.StatusOK, rec.Code)

	resp := testutil.UnmarshalResponse[ScenariosResponse](s.T(), rec)
	s.Require().Len(resp.Scenarios, len(Keys()))
	s.Equal("paul-success", resp.Scenarios[0].Key)
	s.Equal("£12.50", resp.Scenarios[0].DisplayAmount)
}

func (s *HandlerSuite) TestAuthorize_Scenario() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/simulate/authorize", map[string]any{"scenario": "gas-station-blocked"})
	rec := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	resp := testutil.UnmarshalResponse[AuthorizeResponse](s.T(), rec)
	s.Equal("gas-station-blocked", resp.Scenario)
	s.False(resp.Decision.Approved)
	s.Equal(string(authorization.ReasonMerchantBlocked), resp.Decision.ReasonCode)
	s.Equal("declined", resp.ExpectedOutcome)
	s.True(resp.MatchesExpected)
}

func (s *HandlerSuite) TestAuthorize_Custom() {
	s.Run("fuel dispensers default to controllable", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/simulate/authorize", map[string]any{
			"customMerchant": map[string]any{"name": "Pump", "category_code": "5542"},
			"customAmount":   5000,
		})
		rec := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rec.Code)

		resp := testutil.UnmarshalResponse[AuthorizeResponse](s.T(), rec)
		s.True(resp.Authorization.IsAmountControllable)
		s.Equal("partially_approved", resp.Decision.Outcome)
	})

	s.Run("invalid custom request is 422", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/simulate/authorize", map[string]any{
			"customMerchant": map[string]any{"name": "Pump", "category_code": "55"},
			"customAmount":   5000,
		})
		s.Equal(http.StatusUnprocessableEntity, testutil.DoRequest(s.router, req).Code)
	})

	s.Run("neither scenario nor custom is 400", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/simulate/authorize", map[string]any{})
		s.Equal(http.StatusBadRequest, testutil.DoRequest(s.router, req).Code)
	})

	s.Run("unknown scenario is 404", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/simulate/authorize", map[string]any{"scenario": "nope"})
		s.Equal(http.StatusNotFound, testutil.DoRequest(s.router, req).Code)
	})
}
