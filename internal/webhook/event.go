package webhook

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"cardauth/internal/authorization"
	dErrors "cardauth/pkg/domain-errors"
)

// Event types the receiver acts on or highlights.
const (
	TypeAuthorizationRequest = "issuing_authorization.request"
	TypeAuthorizationCreated = "issuing_authorization.created"
	TypeAuthorizationUpdated = "issuing_authorization.updated"
)

// RelevantEvents are highlighted in the event log.
var RelevantEvents = []string{
	TypeAuthorizationRequest,
	TypeAuthorizationCreated,
	TypeAuthorizationUpdated,
	"issuing_card.created",
	"issuing_cardholder.created",
	"issuing_transaction.created",
	"account.updated",
	"account.external_account.created",
}

// IsRelevant reports whether eventType is highlighted in the event log.
func IsRelevant(eventType string) bool {
	for _, t := range RelevantEvents {
		if t == eventType {
			return true
		}
	}
	return false
}

// Envelope is the outer provider event. Object holds data.object verbatim.
type Envelope struct {
	ID      string
	Type    string
	Created int64
	Account string
	Object  json.RawMessage
}

// ParseEnvelope extracts the event envelope from a raw payload.
func ParseEnvelope(payload []byte) (Envelope, error) {
	if !gjson.ValidBytes(payload) {
		return Envelope{}, dErrors.New(dErrors.CodeBadRequest, "webhook payload is not valid JSON")
	}
	fields := gjson.GetManyBytes(payload, "id", "type", "created", "account", "data.object")
	env := Envelope{
		ID:      fields[0].String(),
		Type:    fields[1].String(),
		Created: fields[2].Int(),
		Account: fields[3].String(),
	}
	if env.ID == "" || env.Type == "" {
		return Envelope{}, dErrors.New(dErrors.CodeBadRequest, "webhook payload is missing id or type")
	}
	if obj := fields[4]; obj.Exists() && obj.IsObject() {
		env.Object = json.RawMessage(obj.Raw)
	}
	return env, nil
}

// AuthorizationRequest reads the fields the evaluator needs from an
// issuing_authorization object. Missing fields are left zero and surface as
// validation failures.
func (e Envelope) AuthorizationRequest() authorization.Request {
	obj := gjson.ParseBytes(e.Object)
	req := authorization.Request{
		ID:                   obj.Get("id").String(),
		Amount:               obj.Get("amount").Int(),
		Currency:             strings.ToLower(obj.Get("currency").String()),
		MerchantName:         strings.TrimSpace(obj.Get("merchant_data.name").String()),
		MerchantCategoryCode: categoryCodeOf(obj),
		MerchantCategory:     strings.TrimSpace(obj.Get("merchant_data.category").String()),
		IsAmountControllable: obj.Get("pending_request.is_amount_controllable").Bool(),
		Account:              e.Account,
		CardID:               cardIDOf(obj),
	}
	// Request events carry the pending amount separately; amount stays zero
	// until the authorization is created.
	if pending := obj.Get("pending_request.amount"); pending.Exists() && pending.Int() > 0 {
		req.Amount = pending.Int()
		if c := obj.Get("pending_request.currency").String(); c != "" {
			req.Currency = strings.ToLower(c)
		}
	}
	return req
}

func categoryCodeOf(obj gjson.Result) string {
	if code := strings.TrimSpace(obj.Get("merchant_data.category_code").String()); code != "" {
		return code
	}
	if code, ok := CategoryCode(obj.Get("merchant_data.category").String()); ok {
		return code
	}
	return ""
}

// cardIDOf accepts both an expanded card object and a bare card ID.
func cardIDOf(obj gjson.Result) string {
	card := obj.Get("card")
	if card.IsObject() {
		return card.Get("id").String()
	}
	return card.String()
}
