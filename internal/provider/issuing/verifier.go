package issuing

import (
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	dErrors "cardauth/pkg/domain-errors"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

// Verifier checks webhook signatures with the endpoint secret.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

// NewVerifier returns a verifier. A zero tolerance uses the SDK default.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance}
}

// Verify rejects payloads whose signature does not match or is too old. API
// version mismatches are tolerated since fields are read from raw JSON.
func (v *Verifier) Verify(payload []byte, signature string) error {
	if signature == "" {
		return dErrors.New(dErrors.CodeBadRequest, "missing webhook signature")
	}
	_, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if errors.Is(err, webhook.ErrTooOld) {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "webhook signature expired")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid webhook signature")
	}
	return nil
}
