package handler

import (
	"encoding/json"
	"fmt"
	"time"
)

// mockAccount is the connected account attached to generated events.
const mockAccount = "acct_test_123"

// mockData builds a representative payload for eventType.
func mockData(eventType string, now time.Time) json.RawMessage {
	stamp := now.UnixMilli()
	var data map[string]any
	switch eventType {
	case "issuing_authorization.request", "issuing_authorization.created":
		data = map[string]any{
			"id":       fmt.Sprintf("iauth_test_%d", stamp),
			"amount":   2500,
			"currency": "gbp",
			"status":   "pending",
			"merchant_data": map[string]any{
				"name":          "Paul Boulangerie",
				"category":      "eating_places_restaurants",
				"category_code": "5812",
			},
			"card": map[string]any{
				"id":    fmt.Sprintf("ic_test_%d", stamp),
				"last4": "4242",
			},
		}
	case "issuing_authorization.updated":
		data = map[string]any{
			"id":       fmt.Sprintf("iauth_test_%d", stamp),
			"amount":   2500,
			"currency": "gbp",
			"status":   "closed",
			"merchant_data": map[string]any{
				"name":          "Paul Boulangerie",
				"category":      "eating_places_restaurants",
				"category_code": "5812",
			},
		}
	case "issuing_card.created":
		data = map[string]any{
			"id":         fmt.Sprintf("ic_test_%d", stamp),
			"last4":      "4242",
			"type":       "virtual",
			"status":     "active",
			"cardholder": fmt.Sprintf("ich_test_%d", stamp),
		}
	case "issuing_cardholder.created":
		data = map[string]any{
			"id":     fmt.Sprintf("ich_test_%d", stamp),
			"name":   "Olivia Dubois",
			"email":  "olivia.dubois@testlondon.co.uk",
			"status": "active",
			"type":   "individual",
		}
	case "issuing_transaction.created":
		data = map[string]any{
			"id":       fmt.Sprintf("ipi_test_%d", stamp),
			"amount":   2500,
			"currency": "gbp",
			"merchant_data": map[string]any{
				"name":     "Paul Boulangerie",
				"category": "eating_places_restaurants",
			},
		}
	case "account.updated":
		data = map[string]any{
			"id":                mockAccount,
			"charges_enabled":   true,
			"details_submitted": true,
			"business_profile":  map[string]any{"name": "Huel"},
		}
	default:
		data = map[string]any{
			"id":     fmt.Sprintf("test_%d", stamp),
			"status": "active",
		}
	}
	raw, _ := json.Marshal(data)
	return raw
}
