package handler

import (
	"sort"

	"cardauth/internal/authorization"
)

// ActionResponse acknowledges a manual provider action.
type ActionResponse struct {
	Success         bool   `json:"success"`
	AuthorizationID string `json:"authorization_id"`
	Action          string `json:"action"`
}

// PolicyResponse describes the active policy snapshot.
type PolicyResponse struct {
	Name             string             `json:"name"`
	Version          string             `json:"version"`
	Currency         string             `json:"currency,omitempty"`
	StrictCurrency   bool               `json:"strict_currency"`
	PartialApproval  string             `json:"partial_approval"`
	BlockedMerchants []MerchantResponse `json:"blocked_merchants"`
	AllowedMerchants []MerchantResponse `json:"allowed_merchants"`
	Categories       []CategoryResponse `json:"categories"`
	Limits           []LimitResponse    `json:"limits"`
	Reloads          int64              `json:"reloads"`
}

type MerchantResponse struct {
	NamePattern  string `json:"name_pattern,omitempty"`
	CategoryCode string `json:"category_code,omitempty"`
}

type CategoryResponse struct {
	Code    string `json:"code"`
	Label   string `json:"label,omitempty"`
	Allowed bool   `json:"allowed"`
}

type LimitResponse struct {
	Period    string `json:"period"`
	MaxAmount int64  `json:"max_amount"`
}

func toPolicyResponse(cfg *authorization.PolicyConfig, reloads int64) PolicyResponse {
	if cfg == nil {
		cfg = &authorization.PolicyConfig{}
	}
	resp := PolicyResponse{
		Name:             cfg.Name,
		Version:          cfg.Version,
		Currency:         cfg.Currency,
		StrictCurrency:   cfg.StrictCurrency,
		PartialApproval:  string(cfg.PartialApproval),
		BlockedMerchants: toMerchants(cfg.BlockedMerchants),
		AllowedMerchants: toMerchants(cfg.AllowedMerchants),
		Categories:       make([]CategoryResponse, 0, len(cfg.CategoryRules)),
		Limits:           make([]LimitResponse, 0, len(cfg.Limits)),
		Reloads:          reloads,
	}
	if resp.PartialApproval == "" {
		resp.PartialApproval = string(authorization.PartialApprovalZero)
	}
	for code, rule := range cfg.CategoryRules {
		resp.Categories = append(resp.Categories, CategoryResponse{Code: code, Label: rule.Label, Allowed: rule.Allowed})
	}
	sort.Slice(resp.Categories, func(i, j int) bool { return resp.Categories[i].Code < resp.Categories[j].Code })
	for _, l := range cfg.Limits {
		resp.Limits = append(resp.Limits, LimitResponse{Period: string(l.Period), MaxAmount: l.MaxAmount})
	}
	return resp
}

func toMerchants(rules []authorization.MerchantRule) []MerchantResponse {
	out := make([]MerchantResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, MerchantResponse{NamePattern: r.NamePattern, CategoryCode: r.CategoryCode})
	}
	return out
}
