package authorization

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// =============================================================================
// Evaluator Test Suite
// =============================================================================
// Evaluate is pure, so every rule step, its precedence and the documented
// demo scenarios are pinned here rather than through the webhook handler.

type EvaluateSuite struct {
	suite.Suite
	policy *PolicyConfig
	now    time.Time
}

func TestEvaluateSuite(t *testing.T) {
	suite.Run(t, new(EvaluateSuite))
}

func (s *EvaluateSuite) SetupTest() {
	s.now = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	s.policy = demoPolicy()
}

// SetupSubTest gives each s.Run a fresh policy so subtests that edit it
// cannot leak into their siblings.
func (s *EvaluateSuite) SetupSubTest() {
	s.policy = demoPolicy()
}

func demoPolicy() *PolicyConfig {
	return &PolicyConfig{
		Name:    "standard-employee",
		Version: "test",
		BlockedMerchants: []MerchantRule{
			{CategoryCode: "5541"},
			{CategoryCode: "7995"},
			{NamePattern: "casino"},
		},
		CategoryRules: map[string]CategoryRule{
			"5812": {Allowed: true, Label: "Restaurants"},
			"4121": {Allowed: true, Label: "Taxi & Limousines"},
			"5542": {Allowed: true, Label: "Fuel Dispensers"},
			"7995": {Allowed: false, Label: "Gambling"},
			"5993": {Allowed: false, Label: "Tobacco"},
		},
		Limits: []Limit{
			{Period: PeriodMonthly, MaxAmount: 50000},
			{Period: PeriodDaily, MaxAmount: 2500},
		},
		Currency:        "gbp",
		PartialApproval: PartialApprovalZero,
	}
}

func request(amount int64, merchant, mcc string) Request {
	return Request{
		ID:                   "iauth_test",
		Amount:               amount,
		Currency:             "gbp",
		MerchantName:         merchant,
		MerchantCategoryCode: mcc,
	}
}

// =============================================================================
// Scenarios
// =============================================================================

func (s *EvaluateSuite) TestScenarios() {
	s.Run("allowed restaurant under every limit is approved in full", func() {
		d, err := Evaluate(request(1250, "Paul", "5812"), s.policy, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
		s.Equal(int64(1250), d.ApprovedAmount)
		s.Equal(OutcomeApproved, d.Outcome)
		s.Empty(d.Reason)
		s.Equal(s.now, d.EvaluatedAt)
	})

	s.Run("blocked service station category is declined", func() {
		d, err := Evaluate(request(3000, "Gas Station", "5541"), s.policy, s.now)
		s.Require().NoError(err)
		s.False(d.Approved)
		s.Equal(int64(0), d.ApprovedAmount)
		s.Contains(d.Reason, "blocked")
		s.Equal(ReasonMerchantBlocked, d.ReasonCode)
	})

	s.Run("daily limit breach names the limit and both amounts", func() {
		d, err := Evaluate(request(7500, "Paul", "5812"), s.policy, s.now)
		s.Require().NoError(err)
		s.False(d.Approved)
		s.Equal("Daily limit exceeded (£75.00 > £25.00)", d.Reason)
		s.Equal(ReasonSpendingLimitExceeded, d.ReasonCode)
	})

	s.Run("controllable fuel dispenser over the limit is approved for zero", func() {
		req := request(10000, "Gas Station", "5542")
		req.IsAmountControllable = true
		d, err := Evaluate(req, s.policy, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
		s.Equal(int64(0), d.ApprovedAmount)
		s.Equal(OutcomePartiallyApproved, d.Outcome)
		s.True(d.Partial())
	})

	s.Run("category name without a code is an unknown category", func() {
		req := request(1000, "Florist", "")
		req.MerchantCategory = "florists_supplies_nursery_stock"
		d, err := Evaluate(req, s.policy, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
		s.Equal(int64(1000), d.ApprovedAmount)
		s.True(d.UnknownCategory)
	})

	s.Run("unknown category within limits fails open and is flagged", func() {
		d, err := Evaluate(request(1000, "Corner Shop", "9999"), s.policy, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
		s.Equal(int64(1000), d.ApprovedAmount)
		s.True(d.UnknownCategory)
	})
}

// =============================================================================
// Rule Precedence
// =============================================================================

func (s *EvaluateSuite) TestPrecedence() {
	s.Run("block wins over an explicit allow", func() {
		s.policy.AllowedMerchants = []MerchantRule{{NamePattern: "casino"}}
		d, err := Evaluate(request(100, "Grand Casino", "5812"), s.policy, s.now)
		s.Require().NoError(err)
		s.Equal(ReasonMerchantBlocked, d.ReasonCode)
	})

	s.Run("name block is case-insensitive substring", func() {
		d, err := Evaluate(request(100, "THE CASINO BAR", "5812"), s.policy, s.now)
		s.Require().NoError(err)
		s.Equal(ReasonMerchantBlockedText, d.Reason)
	})

	s.Run("explicit allow skips a disallowed category", func() {
		s.policy.AllowedMerchants = []MerchantRule{{NamePattern: "Tobacconist Ltd"}}
		d, err := Evaluate(request(100, "tobacconist ltd", "5993"), s.policy, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
	})

	s.Run("explicit allow does not skip limits", func() {
		s.policy.AllowedMerchants = []MerchantRule{{CategoryCode: "5812"}}
		d, err := Evaluate(request(9000, "Paul", "5812"), s.policy, s.now)
		s.Require().NoError(err)
		s.False(d.Approved)
		s.Equal(ReasonSpendingLimitExceeded, d.ReasonCode)
	})

	s.Run("disallowed category reason carries the label", func() {
		d, err := Evaluate(request(100, "Smoke Shop", "5993"), s.policy, s.now)
		s.Require().NoError(err)
		s.False(d.Approved)
		s.Equal(`merchant category "Tobacco" (5993) is not allowed`, d.Reason)
		s.Equal(ReasonCategoryNotAllowed, d.ReasonCode)
	})

	s.Run("disallowed category is declined even when controllable", func() {
		req := request(100, "Smoke Shop", "5993")
		req.IsAmountControllable = true
		d, err := Evaluate(req, s.policy, s.now)
		s.Require().NoError(err)
		s.Equal(OutcomeDeclined, d.Outcome)
	})

	s.Run("merchant entry matches on name or code", func() {
		s.policy.AllowedMerchants = []MerchantRule{{NamePattern: "Paul", CategoryCode: "5993"}}

		byCode, err := Evaluate(request(100, "Smoke Shop", "5993"), s.policy, s.now)
		s.Require().NoError(err)
		s.True(byCode.Approved)

		byName, err := Evaluate(request(100, "Paul Bakery", "5993"), s.policy, s.now)
		s.Require().NoError(err)
		s.True(byName.Approved)

		s.policy.AllowedMerchants = []MerchantRule{{NamePattern: "Paul", CategoryCode: "5812"}}
		neither, err := Evaluate(request(100, "Smoke Shop", "5993"), s.policy, s.now)
		s.Require().NoError(err)
		s.Equal(ReasonCategoryNotAllowed, neither.ReasonCode)
	})

	s.Run("empty name pattern never matches", func() {
		s.policy.BlockedMerchants = []MerchantRule{{NamePattern: "  "}}
		d, err := Evaluate(request(100, "Paul", "5812"), s.policy, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
	})
}

// =============================================================================
// Limits
// =============================================================================

func (s *EvaluateSuite) TestLimits() {
	s.Run("amount equal to the limit is approved", func() {
		d, err := Evaluate(request(2500, "Paul", "5812"), s.policy, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
		s.Equal(int64(2500), d.ApprovedAmount)
	})

	s.Run("tightest limit is reported regardless of declared order", func() {
		s.policy.Limits = []Limit{
			{Period: PeriodDaily, MaxAmount: 2500},
			{Period: PeriodMonthly, MaxAmount: 1000},
		}
		d, err := Evaluate(request(3000, "Paul", "5812"), s.policy, s.now)
		s.Require().NoError(err)
		s.Equal("Monthly limit exceeded (£30.00 > £10.00)", d.Reason)
	})

	s.Run("cap mode approves up to the breached limit", func() {
		s.policy.PartialApproval = PartialApprovalCap
		req := request(10000, "Fuel", "5542")
		req.IsAmountControllable = true
		d, err := Evaluate(req, s.policy, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
		s.Equal(int64(2500), d.ApprovedAmount)
		s.Equal(OutcomePartiallyApproved, d.Outcome)
	})

	s.Run("later subtests start from the unmodified policy", func() {
		s.Equal(demoPolicy(), s.policy)
		req := request(10000, "Fuel", "5542")
		req.IsAmountControllable = true
		d, err := Evaluate(req, s.policy, s.now)
		s.Require().NoError(err)
		s.Equal(int64(0), d.ApprovedAmount)
	})

	s.Run("no limits approves any amount", func() {
		s.policy.Limits = nil
		d, err := Evaluate(request(1_000_000, "Paul", "5812"), s.policy, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
	})

	s.Run("nil policy approves", func() {
		d, err := Evaluate(request(1000, "Paul", "5812"), nil, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
		s.True(d.UnknownCategory)
	})
}

// =============================================================================
// Currency
// =============================================================================

func (s *EvaluateSuite) TestCurrency() {
	s.Run("mismatch is flagged but not declined by default", func() {
		req := request(1000, "Paul", "5812")
		req.Currency = "usd"
		d, err := Evaluate(req, s.policy, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
		s.True(d.CurrencyMismatch)
	})

	s.Run("strict policy declines a mismatch", func() {
		s.policy.StrictCurrency = true
		req := request(1000, "Paul", "5812")
		req.Currency = "USD"
		d, err := Evaluate(req, s.policy, s.now)
		s.Require().NoError(err)
		s.False(d.Approved)
		s.Equal(ReasonCurrencyMismatch, d.ReasonCode)
	})

	s.Run("currency comparison ignores case", func() {
		s.policy.StrictCurrency = true
		req := request(1000, "Paul", "5812")
		req.Currency = "GBP"
		d, err := Evaluate(req, s.policy, s.now)
		s.Require().NoError(err)
		s.True(d.Approved)
		s.False(d.CurrencyMismatch)
	})
}

// =============================================================================
// Validation
// =============================================================================

func (s *EvaluateSuite) TestValidation() {
	tests := []struct {
		name  string
		mut   func(*Request)
		field string
	}{
		{"missing id", func(r *Request) { r.ID = "" }, "id"},
		{"zero amount", func(r *Request) { r.Amount = 0 }, "amount"},
		{"negative amount", func(r *Request) { r.Amount = -10 }, "amount"},
		{"missing merchant name", func(r *Request) { r.MerchantName = " " }, "merchant_name"},
		{"short category code", func(r *Request) { r.MerchantCategoryCode = "581" }, "merchant_category_code"},
		{"non numeric category code", func(r *Request) { r.MerchantCategoryCode = "58a2" }, "merchant_category_code"},
		{"no category code or name", func(r *Request) { r.MerchantCategoryCode = "" }, "merchant_category_code"},
		{"malformed code with a name", func(r *Request) { r.MerchantCategoryCode = "12"; r.MerchantCategory = "bakeries" }, "merchant_category_code"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := request(1000, "Paul", "5812")
			tt.mut(&req)
			d, err := Evaluate(req, s.policy, s.now)
			s.Require().Error(err)
			var vErr *ValidationError
			s.Require().True(errors.As(err, &vErr))
			s.Equal(tt.field, vErr.Field)
			s.Equal(Decision{}, d)
		})
	}
}

// =============================================================================
// Properties
// =============================================================================

func TestEvaluate_Idempotent(t *testing.T) {
	policy := demoPolicy()
	reqs := []Request{
		request(1250, "Paul", "5812"),
		request(3000, "Gas Station", "5541"),
		request(7500, "Paul", "5812"),
		request(1000, "Corner Shop", "9999"),
	}
	for _, req := range reqs {
		first, err := Evaluate(req, policy, time.Unix(1, 0))
		require.NoError(t, err)
		second, err := Evaluate(req, policy, time.Unix(2, 0))
		require.NoError(t, err)

		first.EvaluatedAt, second.EvaluatedAt = time.Time{}, time.Time{}
		assert.Equal(t, first, second)
	}
}

func TestEvaluate_MonotonicInAmount(t *testing.T) {
	policy := demoPolicy()
	flips := 0
	prev := true
	for amount := int64(2400); amount <= 2600; amount++ {
		d, err := Evaluate(request(amount, "Paul", "5812"), policy, time.Time{})
		require.NoError(t, err)
		if d.Approved != prev {
			flips++
			prev = d.Approved
		}
	}
	assert.Equal(t, 1, flips)
}

func TestEvaluate_BlockedCategoryAlwaysDeclines(t *testing.T) {
	policy := demoPolicy()
	for _, amount := range []int64{1, 2500, 2501, 1_000_000} {
		for _, controllable := range []bool{false, true} {
			req := request(amount, "Anything", "7995")
			req.IsAmountControllable = controllable
			d, err := Evaluate(req, policy, time.Time{})
			require.NoError(t, err)
			assert.False(t, d.Approved)
			assert.Equal(t, ReasonMerchantBlocked, d.ReasonCode)
		}
	}
}

func TestEvaluate_ApprovedAmountNeverExceedsRequest(t *testing.T) {
	policy := demoPolicy()
	policy.PartialApproval = PartialApprovalCap
	for _, amount := range []int64{1, 2499, 2500, 2501, 60000} {
		for _, controllable := range []bool{false, true} {
			req := request(amount, "Fuel", "5542")
			req.IsAmountControllable = controllable
			d, err := Evaluate(req, policy, time.Time{})
			require.NoError(t, err)
			assert.LessOrEqual(t, d.ApprovedAmount, amount)
			if d.ApprovedAmount < amount && d.Approved {
				assert.True(t, controllable)
				assert.Equal(t, ReasonSpendingLimitExceeded, d.ReasonCode)
			}
		}
	}
}

func TestParsers(t *testing.T) {
	p, err := ParsePeriod(" Daily ")
	require.NoError(t, err)
	assert.Equal(t, PeriodDaily, p)
	_, err = ParsePeriod("weekly")
	assert.Error(t, err)
	assert.Equal(t, "Daily", PeriodDaily.Title())
	assert.Equal(t, "Monthly", PeriodMonthly.Title())

	m, err := ParsePartialApprovalMode("")
	require.NoError(t, err)
	assert.Equal(t, PartialApprovalZero, m)
	m, err = ParsePartialApprovalMode("CAP")
	require.NoError(t, err)
	assert.Equal(t, PartialApprovalCap, m)
	_, err = ParsePartialApprovalMode("graduated")
	assert.Error(t, err)
}
