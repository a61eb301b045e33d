// Package strings holds small string-list helpers used by configuration.
package strings

import (
	"slices"
	"strings"
)

// SplitList splits a comma separated value such as "a:9092, b:9092,,a:9092"
// into its distinct, trimmed, non-empty items in first-seen order.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, ","))
}

// DedupeAndTrim trims each value and drops empties and repeats. Order is kept.
func DedupeAndTrim(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
