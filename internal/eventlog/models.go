package eventlog

import (
	"encoding/json"
	"time"

	"cardauth/internal/authorization"
)

// DefaultCapacity bounds every event log backend.
const DefaultCapacity = 50

// Source records where an event entered the system.
type Source string

const (
	SourceWebhook    Source = "webhook"
	SourceMock       Source = "mock"
	SourceManual     Source = "manual"
	SourceSimulation Source = "simulation"
)

// Event is one received provider event plus, for authorization requests, the
// decision taken for it.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Created   int64           `json:"created"`
	Timestamp time.Time       `json:"timestamp"`
	Account   string          `json:"account,omitempty"`
	Source    Source          `json:"source,omitempty"`
	Relevant  bool            `json:"relevant"`
	Data      json.RawMessage `json:"data,omitempty"`
	Decision  *DecisionRecord `json:"authorization_decision,omitempty"`
}

// DecisionRecord is the logged view of an authorization decision.
type DecisionRecord struct {
	AuthorizationID  string    `json:"authorization_id"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency,omitempty"`
	MerchantName     string    `json:"merchant_name,omitempty"`
	CategoryCode     string    `json:"merchant_category_code,omitempty"`
	Approved         bool      `json:"approved"`
	ApprovedAmount   int64     `json:"approved_amount"`
	Outcome          string    `json:"outcome"`
	Reason           string    `json:"reason,omitempty"`
	ReasonCode       string    `json:"reason_code,omitempty"`
	UnknownCategory  bool      `json:"unknown_category,omitempty"`
	CurrencyMismatch bool      `json:"currency_mismatch,omitempty"`
	PolicyVersion    string    `json:"policy_version,omitempty"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
	DeliveryError    string    `json:"delivery_error,omitempty"`
	Replayed         bool      `json:"replayed,omitempty"`
}

// NewDecisionRecord captures a decision and its delivery outcome.
func NewDecisionRecord(req authorization.Request, d authorization.Decision, deliveryErr error) *DecisionRecord {
	rec := &DecisionRecord{
		AuthorizationID:  req.ID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		MerchantName:     req.MerchantName,
		CategoryCode:     req.MerchantCategoryCode,
		Approved:         d.Approved,
		ApprovedAmount:   d.ApprovedAmount,
		Outcome:          string(d.Outcome),
		Reason:           d.Reason,
		ReasonCode:       string(d.ReasonCode),
		UnknownCategory:  d.UnknownCategory,
		CurrencyMismatch: d.CurrencyMismatch,
		PolicyVersion:    d.PolicyVersion,
		EvaluatedAt:      d.EvaluatedAt,
	}
	if deliveryErr != nil {
		rec.DeliveryError = deliveryErr.Error()
	}
	return rec
}

// Key is the partitioning key for streamed events: the authorization ID when
// known so one authorization's lifecycle stays ordered.
func (e Event) Key() string {
	if e.Decision != nil && e.Decision.AuthorizationID != "" {
		return e.Decision.AuthorizationID
	}
	return e.ID
}
