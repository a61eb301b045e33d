// Package simulation evaluates named demo scenarios and custom authorizations
// through the same evaluator the webhook path uses, without calling the
// provider.
package simulation

import (
	"cardauth/internal/authorization"
)

// Merchant is the simulated merchant of a scenario.
type Merchant struct {
	Name         string `json:"name"`
	CategoryCode string `json:"category_code"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
}

// Scenario is a named, repeatable authorization.
type Scenario struct {
	Key          string                `json:"key"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Merchant     Merchant              `json:"merchant"`
	Amount       int64                 `json:"amount"`
	Currency     string                `json:"currency"`
	Controllable bool                  `json:"is_amount_controllable"`
	Expected     authorization.Outcome `json:"expected_outcome"`
}

const defaultCurrency = "gbp"

var (
	paul       = Merchant{Name: "Paul", CategoryCode: "5812", City: "London", PostalCode: "EC1A 1BB"}
	uber       = Merchant{Name: "Uber", CategoryCode: "4121", City: "London", PostalCode: "EC1A 1BB"}
	sephora    = Merchant{Name: "Sephora", CategoryCode: "5977", City: "London", PostalCode: "W1B 5AH"}
	gasStation = Merchant{Name: "Gas Station", CategoryCode: "5541", City: "London", PostalCode: "EC1A 1BB"}
	fuelPump   = Merchant{Name: "Gas Station", CategoryCode: "5542", City: "London", PostalCode: "EC1A 1BB"}
	unlisted   = Merchant{Name: "Corner Kiosk", CategoryCode: "9999", City: "London"}
)

var catalogue = []Scenario{
	{
		Key:         "paul-success",
		Name:        "Paul Boulangerie (Success)",
		Description: "Restaurant transaction that should be approved",
		Merchant:    paul,
		Amount:      1250,
		Currency:    defaultCurrency,
		Expected:    authorization.OutcomeApproved,
	},
	{
		Key:         "uber-success",
		Name:        "Uber (Success)",
		Description: "Taxi transaction that should be approved",
		Merchant:    uber,
		Amount:      1850,
		Currency:    defaultCurrency,
		Expected:    authorization.OutcomeApproved,
	},
	{
		Key:         "sephora-success",
		Name:        "Sephora (Success)",
		Description: "Cosmetics transaction that should be approved",
		Merchant:    sephora,
		Amount:      2450,
		Currency:    defaultCurrency,
		Expected:    authorization.OutcomeApproved,
	},
	{
		Key:         "gas-station-blocked",
		Name:        "Gas Station (Blocked)",
		Description: "Gas station transaction blocked by category controls",
		Merchant:    gasStation,
		Amount:      3000,
		Currency:    defaultCurrency,
		Expected:    authorization.OutcomeDeclined,
	},
	{
		Key:         "high-amount-declined",
		Name:        "High Amount (Declined)",
		Description: "Transaction exceeding the daily spending limit",
		Merchant:    paul,
		Amount:      7500,
		Currency:    defaultCurrency,
		Expected:    authorization.OutcomeDeclined,
	},
	{
		Key:          "partial-authorization",
		Name:         "Fuel Dispenser (Partial)",
		Description:  "Fuel dispenser allowing partial authorization",
		Merchant:     fuelPump,
		Amount:       10000,
		Currency:     defaultCurrency,
		Controllable: true,
		Expected:     authorization.OutcomePartiallyApproved,
	},
	{
		Key:         "unknown-category",
		Name:        "Unlisted Category (Fail-open)",
		Description: "Merchant category without a rule is allowed and flagged",
		Merchant:    unlisted,
		Amount:      900,
		Currency:    defaultCurrency,
		Expected:    authorization.OutcomeApproved,
	},
}

// Scenarios returns the catalogue in display order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup finds a scenario by key.
func Lookup(key string) (Scenario, bool) {
	for _, sc := range catalogue {
		if sc.Key == key {
			return sc, true
		}
	}
	return Scenario{}, false
}

// Keys lists the scenario keys in display order.
func Keys() []string {
	keys := make([]string, 0, len(catalogue))
	for _, sc := range catalogue {
		keys = append(keys, sc.Key)
	}
	return keys
}

// Request builds the authorization request for the scenario.
func (sc Scenario) Request(id string) authorization.Request {
	return authorization.Request{
		ID:                   id,
		Amount:               sc.Amount,
		Currency:             sc.Currency,
		MerchantName:         sc.Merchant.Name,
		MerchantCategoryCode: sc.Merchant.CategoryCode,
		IsAmountControllable: sc.Controllable,
	}
}
