package authorization

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	dErrors "cardauth/pkg/domain-errors"
)

// Request is one authorization request as seen by the evaluator. Amounts are
// integers in the currency's minor unit.
type Request struct {
	ID                   string
	Amount               int64
	Currency             string
	MerchantName         string
	MerchantCategoryCode string
	// MerchantCategory is the provider's category name. A request with a name
	// but no resolvable code is evaluated as an unknown category.
	MerchantCategory     string
	IsAmountControllable bool

	// Account and CardID scope the provider callback and log lines. They never
	// influence the decision.
	Account string
	CardID  string
}

// Period names the window a spending limit applies to.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
)

// Title is the period as it leads a decline reason, e.g. "Daily".
func (p Period) Title() string {
	return cases.Title(language.English).String(string(p))
}

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDaily, PeriodMonthly:
		return p, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unsupported limit period: "+s)
	}
}

// PartialApprovalMode selects the amount approved when a controllable
// request breaches a limit.
type PartialApprovalMode string

const (
	// PartialApprovalZero approves 0 and lets the merchant retry with a
	// smaller amount.
	PartialApprovalZero PartialApprovalMode = "zero"
	// PartialApprovalCap approves up to the breached limit.
	PartialApprovalCap PartialApprovalMode = "cap"
)

// ParsePartialApprovalMode validates a mode name. Empty means zero.
func ParsePartialApprovalMode(s string) (PartialApprovalMode, error) {
	switch m := PartialApprovalMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return PartialApprovalZero, nil
	case PartialApprovalZero, PartialApprovalCap:
		return m, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unsupported partial approval mode: "+s)
	}
}

// MerchantRule matches a merchant when either the name substring or the
// category code matches. An empty NamePattern never matches on name.
type MerchantRule struct {
	NamePattern  string
	CategoryCode string
}

// CategoryRule is the allow-list entry for one merchant category code.
type CategoryRule struct {
	Allowed bool
	Label   string
}

// Limit caps a single authorization amount for a period.
type Limit struct {
	Period    Period
	MaxAmount int64
}

// PolicyConfig is a read-only snapshot of the rules the evaluator applies.
type PolicyConfig struct {
	Name    string
	Version string

	BlockedMerchants []MerchantRule
	AllowedMerchants []MerchantRule
	CategoryRules    map[string]CategoryRule
	Limits           []Limit

	Currency        string
	StrictCurrency  bool
	PartialApproval PartialApprovalMode
}

// Outcome is the coarse result of an evaluation.
type Outcome string

const (
	OutcomeApproved          Outcome = "approved"
	OutcomeDeclined          Outcome = "declined"
	OutcomePartiallyApproved Outcome = "partially_approved"
)

// ReasonCode is the machine-readable counterpart of Decision.Reason.
type ReasonCode string

const (
	ReasonNone                  ReasonCode = ""
	ReasonMerchantBlocked       ReasonCode = "merchant_blocked"
	ReasonCategoryNotAllowed    ReasonCode = "category_not_allowed"
	ReasonSpendingLimitExceeded ReasonCode = "spending_limit_exceeded"
	ReasonCurrencyMismatch      ReasonCode = "currency_mismatch"
	ReasonValidationFailed      ReasonCode = "validation_failed"
)

// ReasonMerchantBlockedText is the reason attached to every block-list decline.
const ReasonMerchantBlockedText = "merchant blocked"

// Decision is produced once per evaluation and never mutated afterwards.
type Decision struct {
	Approved       bool
	ApprovedAmount int64
	Outcome        Outcome
	Reason         string
	ReasonCode     ReasonCode
	EvaluatedAt    time.Time

	// UnknownCategory marks a request that passed the category step only
	// because no rule exists for its code.
	UnknownCategory  bool
	CurrencyMismatch bool
	PolicyVersion    string
}

// Partial reports whether less than the requested amount was approved.
func (d Decision) Partial() bool {
	return d.Outcome == OutcomePartiallyApproved
}
