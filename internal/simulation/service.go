package simulation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"cardauth/internal/authorization"
	"cardauth/internal/eventlog"
	dErrors "cardauth/pkg/domain-errors"
	"cardauth/pkg/requestcontext"
)

// EventTypeSimulated tags simulation results in the event log.
const EventTypeSimulated = "issuing_authorization.simulated"

// Decider evaluates a request without contacting the provider.
type Decider interface {
	Decide(ctx context.Context, req authorization.Request) (authorization.Decision, error)
}

// Recorder accepts events for the event log.
type Recorder interface {
	Record(ctx context.Context, event eventlog.Event) error
}

// Result is one simulated evaluation.
type Result struct {
	Scenario *Scenario
	Request  authorization.Request
	Decision authorization.Decision
}

// MatchesExpected reports whether a scenario produced its documented outcome.
// Custom runs have no expectation and always match.
func (r *Result) MatchesExpected() bool {
	if r.Scenario == nil {
		return true
	}
	return r.Decision.Outcome == r.Scenario.Expected
}

// Service runs simulations.
type Service struct {
	decider  Decider
	recorder Recorder
	logger   *slog.Logger
}

// NewService constructs the simulation service. recorder may be nil.
func NewService(decider Decider, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{decider: decider, recorder: recorder, logger: logger}
}

// RunScenario evaluates the named scenario.
func (s *Service) RunScenario(ctx context.Context, key string) (*Result, error) {
	sc, ok := Lookup(key)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown scenario: "+key)
	}
	res, err := s.run(ctx, sc.Request(newID()))
	if err != nil {
		return nil, err
	}
	res.Scenario = &sc
	if !res.MatchesExpected() {
		s.logger.WarnContext(ctx, "scenario outcome differs from catalogue",
			"request_id", requestcontext.RequestID(ctx),
			"scenario", key,
			"expected", sc.Expected,
			"outcome", res.Decision.Outcome,
			"policy_version", res.Decision.PolicyVersion,
		)
	}
	return res, nil
}

// RunCustom evaluates a caller-supplied request. A missing ID is generated.
func (s *Service) RunCustom(ctx context.Context, req authorization.Request) (*Result, error) {
	if req.ID == "" {
		req.ID = newID()
	}
	return s.run(ctx, req)
}

func (s *Service) run(ctx context.Context, req authorization.Request) (*Result, error) {
	d, err := s.decider.Decide(ctx, req)
	if err != nil {
		var vErr *authorization.ValidationError
		if errors.As(err, &vErr) {
			return nil, vErr.DomainError()
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "simulated authorization",
		"request_id", requestcontext.RequestID(ctx),
		"authorization_id", req.ID,
		"amount", req.Amount,
		"merchant_category_code", req.MerchantCategoryCode,
		"outcome", d.Outcome,
		"reason_code", d.ReasonCode,
	)
	s.record(ctx, req, d)
	return &Result{Request: req, Decision: d}, nil
}

func (s *Service) record(ctx context.Context, req authorization.Request, d authorization.Decision) {
	if s.recorder == nil {
		return
	}
	now := requestcontext.Now(ctx)
	event := eventlog.Event{
		ID:        "evt_sim_" + uuid.NewString(),
		Type:      EventTypeSimulated,
		Created:   now.Unix(),
		Timestamp: now,
		Source:    eventlog.SourceSimulation,
		Decision:  eventlog.NewDecisionRecord(req, d, nil),
	}
	if err := s.recorder.Record(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WarnContext(ctx, "failed to record simulation",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func newID() string {
	return "iauth_sim_" + uuid.NewString()
}
