// Package money renders integer minor-unit amounts for display.
//
// Amounts are never converted to floating point; the currency's decimal scale
// comes from the CLDR data in golang.org/x/text/currency.
package money

import (
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var symbols = map[string]string{
	"GBP": "£",
	"EUR": "€",
	"USD": "$",
	"JPY": "¥",
}

var printer = message.NewPrinter(language.BritishEnglish)

// Normalize upper-cases code and reports whether it is a known ISO 4217 currency.
func Normalize(code string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(upper)
	if err != nil {
		return upper, false
	}
	return unit.String(), true
}

// Scale returns the number of minor-unit digits for code (2 when unknown).
func Scale(code string) int {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// Format renders minor units in major units, e.g. Format(7500, "gbp") == "£75.00".
// Unknown codes are rendered with the upper-cased code as prefix.
func Format(minor int64, code string) string {
	norm, known := Normalize(code)
	prefix := norm + " "
	if norm == "" {
		prefix = ""
	}
	if s, ok := symbols[norm]; ok && known {
		prefix = s
	}

	scale := Scale(norm)
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}

	var div int64 = 1
	for range scale {
		div *= 10
	}
	major := printer.Sprintf("%d", minor/div)
	if scale == 0 {
		return sign + prefix + major
	}

	frac := strconv.FormatInt(minor%div, 10)
	if pad := scale - len(frac); pad > 0 {
		frac = strings.Repeat("0", pad) + frac
	}
	return sign + prefix + major + "." + frac
}
