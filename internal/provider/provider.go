// Package provider delivers authorization decisions back to the card issuer.
package provider

import (
	"context"
	"errors"
	"fmt"

	"cardauth/internal/authorization"
)

// Notifier performs the issuer's approve/decline calls for a pending
// authorization.
type Notifier interface {
	Approve(ctx context.Context, req ApproveRequest) error
	Decline(ctx context.Context, req DeclineRequest) error
}

// ApproveRequest approves a pending authorization. A nil Amount approves the
// requested amount. Manual marks an operator action so it is not collapsed
// into the automatic decision for the same authorization.
type ApproveRequest struct {
	AuthorizationID string
	Account         string
	Amount          *int64
	Manual          bool
}

// DeclineRequest declines a pending authorization. Reason is informational
// and may be empty.
type DeclineRequest struct {
	AuthorizationID string
	Account         string
	Reason          string
	Manual          bool
}

// Op names the provider call that failed.
type Op string

const (
	OpApprove Op = "approve"
	OpDecline Op = "decline"
)

// DeliveryError reports that a decision was made but could not be delivered.
// The decision itself stays valid.
type DeliveryError struct {
	Op              Op
	AuthorizationID string
	Timeout         bool
	Err             error
}

func (e *DeliveryError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("provider %s %s timed out: %v", e.Op, e.AuthorizationID, e.Err)
	}
	return fmt.Sprintf("provider %s %s failed: %v", e.Op, e.AuthorizationID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsDeliveryError reports whether err is, or wraps, a DeliveryError.
func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}

// Deliver maps a decision onto the matching provider call. Full approvals
// omit the amount; partial approvals send the approved amount explicitly.
func Deliver(ctx context.Context, n Notifier, req authorization.Request, d authorization.Decision) error {
	if !d.Approved {
		return n.Decline(ctx, DeclineRequest{
			AuthorizationID: req.ID,
			Account:         req.Account,
			Reason:          string(d.ReasonCode),
		})
	}
	approve := ApproveRequest{
		AuthorizationID: req.ID,
		Account:         req.Account,
	}
	if d.Partial() {
		amount := d.ApprovedAmount
		approve.Amount = &amount
	}
	return n.Approve(ctx, approve)
}
