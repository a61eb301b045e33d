// Package issuing implements the provider notifier and webhook verifier on top
// of the Stripe Issuing API.
package issuing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	stripeauth "github.com/stripe/stripe-go/v82/issuing/authorization"

	"cardauth/internal/provider"
	"cardauth/pkg/platform/sentinel"
)

// Config configures the Stripe client.
type Config struct {
	SecretKey string
	// BaseURL overrides the API endpoint, e.g. for a local stub.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client approves and declines pending issuing authorizations.
type Client struct {
	api *stripeauth.Client
}

var _ provider.Notifier = (*Client)(nil)

// New builds a client. Retries are disabled: the issuer redelivers the webhook
// when a decision does not arrive in time.
func New(cfg Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}
	if cfg.Logger != nil {
		backendCfg.LeveledLogger = &leveledLogger{logger: cfg.Logger}
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)
	return &Client{api: &stripeauth.Client{B: backend, Key: cfg.SecretKey}}, nil
}

// Approve approves the authorization, for Amount when set.
func (c *Client) Approve(ctx context.Context, req provider.ApproveRequest) error {
	params := &stripe.IssuingAuthorizationApproveParams{}
	params.Context = ctx
	if req.Amount != nil {
		params.Amount = stripe.Int64(*req.Amount)
	}
	if req.Account != "" {
		params.SetStripeAccount(req.Account)
	}
	params.SetIdempotencyKey(idempotencyKey(provider.OpApprove, req.AuthorizationID, req.Manual))

	if _, err := c.api.Approve(req.AuthorizationID, params); err != nil {
		return classify(err)
	}
	return nil
}

// Decline declines the authorization. The reason is stored as metadata since
// the API has no reason field.
func (c *Client) Decline(ctx context.Context, req provider.DeclineRequest) error {
	params := &stripe.IssuingAuthorizationDeclineParams{}
	params.Context = ctx
	if req.Reason != "" {
		params.Metadata = map[string]string{"decline_reason": req.Reason}
	}
	if req.Account != "" {
		params.SetStripeAccount(req.Account)
	}
	params.SetIdempotencyKey(idempotencyKey(provider.OpDecline, req.AuthorizationID, req.Manual))

	if _, err := c.api.Decline(req.AuthorizationID, params); err != nil {
		return classify(err)
	}
	return nil
}

// idempotencyKey dedupes redeliveries of the automatic decision. Manual
// actions are keyed separately and never share a key with it.
func idempotencyKey(op provider.Op, authorizationID string, manual bool) string {
	key := string(op) + "-" + authorizationID
	if manual {
		return "manual-" + key
	}
	return key
}

func classify(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return err
	}
	switch {
	case se.HTTPStatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", sentinel.ErrNotFound, se.Msg)
	case se.HTTPStatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", sentinel.ErrConflict, se.Msg)
	case se.HTTPStatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, se.Msg)
	}
	return err
}

// leveledLogger routes stripe-go's logging through slog.
type leveledLogger struct {
	logger *slog.Logger
}

func (l *leveledLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l *leveledLogger) Infof(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l *leveledLogger) Warnf(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l *leveledLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "stripe")
}
