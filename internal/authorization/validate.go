package authorization

import "strings"

// Validate checks the fields the evaluator depends on.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return invalid("id", "is required")
	}
	if r.Amount <= 0 {
		return invalid("amount", "must be positive")
	}
	if strings.TrimSpace(r.MerchantName) == "" {
		return invalid("merchant_name", "is required")
	}
	switch {
	case r.MerchantCategoryCode != "":
		if !isCategoryCode(r.MerchantCategoryCode) {
			return invalid("merchant_category_code", "must be 4 digits")
		}
	case strings.TrimSpace(r.MerchantCategory) == "":
		return invalid("merchant_category_code", "is required")
	}
	return nil
}

func isCategoryCode(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
