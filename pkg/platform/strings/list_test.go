package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "blank", raw: "  ", want: nil},
		{name: "single", raw: "localhost:9092", want: []string{"localhost:9092"}},
		{name: "trims and drops empties", raw: " a:9092 ,, b:9092 ,", want: []string{"a:9092", "b:9092"}},
		{name: "keeps first occurrence", raw: "b:9092,a:9092,b:9092", want: []string{"b:9092", "a:9092"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.raw))
		})
	}
}

func TestDedupeAndTrim(t *testing.T) {
	assert.Empty(t, DedupeAndTrim(nil))
	assert.Equal(t, []string{"GBP", "gbp"}, DedupeAndTrim([]string{" GBP", "gbp ", "GBP"}))
}
