package handler

import (
	"strings"

	dErrors "cardauth/pkg/domain-errors"
)

// ApproveRequest is the optional body of POST /admin/authorizations/{id}/approve.
// A nil Amount approves the requested amount.
type ApproveRequest struct {
	Account string `json:"account"`
	Amount  *int64 `json:"amount"`
}

func (r *ApproveRequest) Validate() error {
	if r == nil {
		return nil
	}
	r.Account = strings.TrimSpace(r.Account)
	if r.Amount != nil && *r.Amount < 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}
	return nil
}

// DeclineRequest is the optional body of POST /admin/authorizations/{id}/decline.
type DeclineRequest struct {
	Account string `json:"account"`
	Reason  string `json:"reason"`
}

func (r *DeclineRequest) Validate() error {
	if r == nil {
		return nil
	}
	r.Account = strings.TrimSpace(r.Account)
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.Reason) > 500 {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 500 characters")
	}
	return nil
}
