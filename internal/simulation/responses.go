package simulation

import (
	"time"

	"cardauth/pkg/money"
)

// ScenarioResponse is a catalogue entry.
type ScenarioResponse struct {
	Scenario
	DisplayAmount string `json:"display_amount"`
}

// ScenariosResponse lists the catalogue.
type ScenariosResponse struct {
	Message   string             `json:"message"`
	Scenarios []ScenarioResponse `json:"scenarios"`
}

// AuthorizeResponse reports one simulated decision.
type AuthorizeResponse struct {
	Success         bool             `json:"success"`
	Scenario        string           `json:"scenario,omitempty"`
	Description     string           `json:"description"`
	Authorization   AuthorizationDTO `json:"authorization"`
	Decision        DecisionDTO      `json:"decision"`
	ExpectedOutcome string           `json:"expected_outcome,omitempty"`
	MatchesExpected bool             `json:"matches_expected"`
}

type AuthorizationDTO struct {
	ID                   string `json:"id"`
	Amount               int64  `json:"amount"`
	Currency             string `json:"currency"`
	MerchantName         string `json:"merchant_name"`
	MerchantCategoryCode string `json:"merchant_category_code"`
	IsAmountControllable bool   `json:"is_amount_controllable"`
}

type DecisionDTO struct {
	Approved         bool      `json:"approved"`
	ApprovedAmount   int64     `json:"approved_amount"`
	Outcome          string    `json:"outcome"`
	Reason           string    `json:"reason,omitempty"`
	ReasonCode       string    `json:"reason_code,omitempty"`
	UnknownCategory  bool      `json:"unknown_category,omitempty"`
	CurrencyMismatch bool      `json:"currency_mismatch,omitempty"`
	PolicyVersion    string    `json:"policy_version,omitempty"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
}

func toScenariosResponse(scenarios []Scenario) ScenariosResponse {
	out := ScenariosResponse{
		Message:   "Test Authorization Scenarios",
		Scenarios: make([]ScenarioResponse, 0, len(scenarios)),
	}
	for _, sc := range scenarios {
		out.Scenarios = append(out.Scenarios, ScenarioResponse{
			Scenario:      sc,
			DisplayAmount: money.Format(sc.Amount, sc.Currency),
		})
	}
	return out
}

func toAuthorizeResponse(res *Result) AuthorizeResponse {
	resp := AuthorizeResponse{
		Success:     true,
		Description: "Custom test authorization",
		Authorization: AuthorizationDTO{
			ID:                   res.Request.ID,
			Amount:               res.Request.Amount,
			Currency:             res.Request.Currency,
			MerchantName:         res.Request.MerchantName,
			MerchantCategoryCode: res.Request.MerchantCategoryCode,
			IsAmountControllable: res.Request.IsAmountControllable,
		},
		Decision: DecisionDTO{
			Approved:         res.Decision.Approved,
			ApprovedAmount:   res.Decision.ApprovedAmount,
			Outcome:          string(res.Decision.Outcome),
			Reason:           res.Decision.Reason,
			ReasonCode:       string(res.Decision.ReasonCode),
			UnknownCategory:  res.Decision.UnknownCategory,
			CurrencyMismatch: res.Decision.CurrencyMismatch,
			PolicyVersion:    res.Decision.PolicyVersion,
			EvaluatedAt:      res.Decision.EvaluatedAt,
		},
		MatchesExpected: res.MatchesExpected(),
	}
	if res.Scenario != nil {
		resp.Scenario = res.Scenario.Key
		resp.Description = res.Scenario.Description
		resp.ExpectedOutcome = string(res.Scenario.Expected)
	}
	return resp
}
