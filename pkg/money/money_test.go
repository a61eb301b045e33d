package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		minor    int64
		currency string
		want     string
	}{
		{2500, "gbp", "£25.00"},
		{7500, "GBP", "£75.00"},
		{5, "gbp", "£0.05"},
		{150000, "eur", "€1,500.00"},
		{1250, "usd", "$12.50"},
		{500, "jpy", "¥500"},
		{-1999, "gbp", "-£19.99"},
		{2500, "xyz", "XYZ 25.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.minor, tt.currency), "%d %s", tt.minor, tt.currency)
	}
}

func TestNormalize(t *testing.T) {
	code, ok := Normalize(" gbp ")
	assert.True(t, ok)
	assert.Equal(t, "GBP", code)

	code, ok = Normalize("zzz")
	assert.False(t, ok)
	assert.Equal(t, "ZZZ", code)
}
