package handler

import "cardauth/internal/eventlog"

type ListResponse struct {
	Success bool             `json:"success"`
	Events  []eventlog.Event `json:"events"`
	Count   int              `json:"count"`
}

type CountResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type MockResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Event   eventlog.Event `json:"event"`
}
