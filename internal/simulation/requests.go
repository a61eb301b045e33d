package simulation

import (
	"strings"

	"cardauth/internal/authorization"
	dErrors "cardauth/pkg/domain-errors"
)

// AuthorizeRequest is the body of POST /simulate/authorize: either a scenario
// key or a custom merchant and amount.
type AuthorizeRequest struct {
	Scenario       string    `json:"scenario"`
	CustomMerchant *Merchant `json:"customMerchant"`
	CustomAmount   int64     `json:"customAmount"`
	Currency       string    `json:"currency"`
	Controllable   *bool     `json:"isAmountControllable"`
}

func (r *AuthorizeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Scenario = strings.TrimSpace(r.Scenario)
	r.Currency = strings.ToLower(strings.TrimSpace(r.Currency))
	if r.Scenario != "" {
		return nil
	}
	if r.CustomMerchant == nil || r.CustomAmount == 0 {
		return dErrors.New(dErrors.CodeBadRequest,
			"either scenario or customMerchant+customAmount is required (scenarios: "+strings.Join(Keys(), ", ")+")")
	}
	r.CustomMerchant.Name = strings.TrimSpace(r.CustomMerchant.Name)
	r.CustomMerchant.CategoryCode = strings.TrimSpace(r.CustomMerchant.CategoryCode)
	return nil
}

// Custom builds the authorization request for a custom run. Fuel dispensers
// are amount-controllable unless the caller says otherwise.
func (r *AuthorizeRequest) Custom() authorization.Request {
	currency := r.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	controllable := r.CustomMerchant.CategoryCode == "5542"
	if r.Controllable != nil {
		controllable = *r.Controllable
	}
	return authorization.Request{
		Amount:               r.CustomAmount,
		Currency:             currency,
		MerchantName:         r.CustomMerchant.Name,
		MerchantCategoryCode: r.CustomMerchant.CategoryCode,
		IsAmountControllable: controllable,
	}
}
