package authorization

import (
	"fmt"
	"strings"
	"time"

	"cardauth/pkg/money"
)

// Evaluate applies the policy to one request. It is pure: no I/O, no shared
// state, and the same request and policy always yield the same decision apart
// from EvaluatedAt.
//
// Rule priority (first match wins):
//  1. Block list, by name substring or category code
//  2. Allow list, which skips the category rules
//  3. Category rules, unknown codes pass
//  4. Currency, when the policy is strict
//  5. Spending limits, the tightest breached limit is reported
//  6. Partial approval for controllable amounts
func Evaluate(req Request, policy *PolicyConfig, now time.Time) (Decision, error) {
	if err := req.Validate(); err != nil {
		return Decision{}, err
	}
	if policy == nil {
		policy = &PolicyConfig{}
	}

	d := Decision{
		EvaluatedAt:   now,
		PolicyVersion: policy.Version,
	}

	// Block wins over allow when a merchant appears on both lists.
	if matchesAny(req, policy.BlockedMerchants) {
		return decline(d, ReasonMerchantBlocked, ReasonMerchantBlockedText), nil
	}

	if !matchesAny(req, policy.AllowedMerchants) {
		rule, known := policy.CategoryRules[req.MerchantCategoryCode]
		switch {
		case !known:
			d.UnknownCategory = true
		case !rule.Allowed:
			return decline(d, ReasonCategoryNotAllowed, categoryReason(req.MerchantCategoryCode, rule)), nil
		}
	}

	currency := req.Currency
	if policy.Currency != "" {
		if !strings.EqualFold(req.Currency, policy.Currency) {
			d.CurrencyMismatch = true
			if policy.StrictCurrency {
				return decline(d, ReasonCurrencyMismatch,
					fmt.Sprintf("currency %q does not match policy currency %q",
						strings.ToLower(req.Currency), strings.ToLower(policy.Currency))), nil
			}
		}
		currency = policy.Currency
	}

	if limit, breached := tightestBreach(req.Amount, policy.Limits); breached {
		reason := fmt.Sprintf("%s limit exceeded (%s > %s)",
			limit.Period.Title(),
			money.Format(req.Amount, currency),
			money.Format(limit.MaxAmount, currency),
		)
		if !req.IsAmountControllable {
			return decline(d, ReasonSpendingLimitExceeded, reason), nil
		}
		d.Approved = true
		d.Outcome = OutcomePartiallyApproved
		d.ReasonCode = ReasonSpendingLimitExceeded
		d.Reason = reason
		if policy.PartialApproval == PartialApprovalCap {
			d.ApprovedAmount = limit.MaxAmount
		}
		return d, nil
	}

	d.Approved = true
	d.ApprovedAmount = req.Amount
	d.Outcome = OutcomeApproved
	return d, nil
}

func decline(d Decision, code ReasonCode, reason string) Decision {
	d.Approved = false
	d.ApprovedAmount = 0
	d.Outcome = OutcomeDeclined
	d.ReasonCode = code
	d.Reason = reason
	return d
}

// Decline builds a decline for callers that must fail closed without a
// successful evaluation, such as a request that failed validation.
func Decline(code ReasonCode, reason string, now time.Time) Decision {
	return decline(Decision{EvaluatedAt: now}, code, reason)
}

func matchesAny(req Request, rules []MerchantRule) bool {
	for _, rule := range rules {
		if rule.matches(req) {
			return true
		}
	}
	return false
}

func (r MerchantRule) matches(req Request) bool {
	if r.CategoryCode != "" && r.CategoryCode == req.MerchantCategoryCode {
		return true
	}
	pattern := strings.TrimSpace(r.NamePattern)
	if pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(req.MerchantName), strings.ToLower(pattern))
}

func categoryReason(code string, rule CategoryRule) string {
	label := rule.Label
	if label == "" {
		label = code
	}
	return fmt.Sprintf("merchant category %q (%s) is not allowed", label, code)
}

// tightestBreach returns the breached limit with the lowest MaxAmount. Ties
// keep the declared order.
func tightestBreach(amount int64, limits []Limit) (Limit, bool) {
	var (
		found Limit
		ok    bool
	)
	for _, l := range limits {
		if amount <= l.MaxAmount {
			continue
		}
		if !ok || l.MaxAmount < found.MaxAmount {
			found, ok = l, true
		}
	}
	return found, ok
}
