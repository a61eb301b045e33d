package handler

import (
	"encoding/json"
	"strings"

	dErrors "cardauth/pkg/domain-errors"
)

// AppendRequest is the body of POST /webhooks/events.
type AppendRequest struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Account string          `json:"account"`
	Data    json.RawMessage `json:"data"`
}

func (r *AppendRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ID = strings.TrimSpace(r.ID)
	r.Type = strings.TrimSpace(r.Type)
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	if len(r.ID) > 255 || len(r.Type) > 255 {
		return dErrors.New(dErrors.CodeValidation, "id and type must be at most 255 characters")
	}
	return nil
}

// MockRequest is the body of POST /webhooks/test.
type MockRequest struct {
	EventType string `json:"eventType"`
}

const defaultMockEventType = "issuing_authorization.created"

func (r *MockRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.EventType = strings.TrimSpace(r.EventType)
	if r.EventType == "" {
		r.EventType = defaultMockEventType
	}
	return nil
}
