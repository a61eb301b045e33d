package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardauth/internal/authorization"
	dErrors "cardauth/pkg/domain-errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "standard-employee", cfg.Name)
	assert.Equal(t, "GBP", cfg.Currency)
	assert.Equal(t, authorization.PartialApprovalZero, cfg.PartialApproval)
	assert.Equal(t, "Gambling", cfg.CategoryRules["7995"].Label)
	assert.False(t, cfg.CategoryRules["7995"].Allowed)
	require.Len(t, cfg.Limits, 2)
	assert.Equal(t, authorization.Limit{Period: authorization.PeriodDaily, MaxAmount: 2500}, cfg.Limits[0])
	assert.Equal(t, authorization.Limit{Period: authorization.PeriodMonthly, MaxAmount: 50000}, cfg.Limits[1])
}

func TestParse(t *testing.T) {
	t.Run("limits keep declared order on ties", func(t *testing.T) {
		cfg, err := Parse([]byte(`
name: tie
limits:
  - period: monthly
    max_amount: 100
  - period: daily
    max_amount: 100
`))
		require.NoError(t, err)
		assert.Equal(t, authorization.PeriodMonthly, cfg.Limits[0].Period)
	})

	t.Run("cap mode", func(t *testing.T) {
		cfg, err := Parse([]byte("name: cap\npartial_approval: cap\n"))
		require.NoError(t, err)
		assert.Equal(t, authorization.PartialApprovalCap, cfg.PartialApproval)
	})

	invalid := map[string]string{
		"missing name":            "version: x\n",
		"unknown key":             "name: x\nblocked: []\n",
		"bad period":              "name: x\nlimits:\n  - period: weekly\n    max_amount: 10\n",
		"zero limit":              "name: x\nlimits:\n  - period: daily\n    max_amount: 0\n",
		"duplicate period":        "name: x\nlimits:\n  - period: daily\n    max_amount: 10\n  - period: daily\n    max_amount: 20\n",
		"bad category key":        "name: x\ncategories:\n  \"58\": { allowed: true }\n",
		"empty merchant rule":     "name: x\nblocked_merchants:\n  - {}\n",
		"bad merchant category":   "name: x\nblocked_merchants:\n  - category_code: abcd\n",
		"unknown currency":        "name: x\ncurrency: zzz\n",
		"strict without currency": "name: x\nstrict_currency: true\n",
		"bad mode":                "name: x\npartial_approval: graduated\n",
	}
	for name, doc := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}
