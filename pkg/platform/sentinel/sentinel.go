package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, sinks and provider adapters
// return these (optionally wrapped) so services can translate them into domain
// errors or decide whether a failure is retryable.
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrTimeout     = errors.New("timeout")
	ErrCircuitOpen = errors.New("circuit open")
)
