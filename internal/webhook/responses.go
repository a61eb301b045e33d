package webhook

import "cardauth/internal/eventlog"

// ReceiveResponse acknowledges a webhook. Decision is present only for
// authorization requests.
type ReceiveResponse struct {
	Received      bool                     `json:"received"`
	EventType     string                   `json:"event_type"`
	EventID       string                   `json:"event_id"`
	Relevant      bool                     `json:"relevant"`
	Decision      *eventlog.DecisionRecord `json:"decision,omitempty"`
	DeliveryError string                   `json:"delivery_error,omitempty"`
}

// InfoResponse describes the webhook endpoint.
type InfoResponse struct {
	Message            string   `json:"message"`
	SupportedEvents    []string `json:"supported_events"`
	Status             string   `json:"status"`
	Endpoint           string   `json:"endpoint"`
	EventsEndpoint     string   `json:"events_endpoint"`
	AuthorizationLogic string   `json:"authorization_logic"`
	ResponseWindow     string   `json:"response_window"`
	SignatureVerified  bool     `json:"signature_verified"`
}
