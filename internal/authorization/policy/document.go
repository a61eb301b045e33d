package policy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"cardauth/internal/authorization"
	dErrors "cardauth/pkg/domain-errors"
	"cardauth/pkg/money"
)

//go:embed default_policy.yaml
var defaultPolicy []byte

// Document is the on-disk shape of a policy file.
type Document struct {
	Name            string                 `yaml:"name" validate:"required"`
	Version         string                 `yaml:"version"`
	Currency        string                 `yaml:"currency" validate:"omitempty,len=3,alpha"`
	StrictCurrency  bool                   `yaml:"strict_currency"`
	PartialApproval string                 `yaml:"partial_approval" validate:"omitempty,oneof=zero cap"`
	Blocked         []MerchantDoc          `yaml:"blocked_merchants" validate:"dive"`
	Allowed         []MerchantDoc          `yaml:"allowed_merchants" validate:"dive"`
	Categories      map[string]CategoryDoc `yaml:"categories" validate:"dive,keys,len=4,numeric,endkeys"`
	Limits          []LimitDoc             `yaml:"limits" validate:"dive"`
}

type MerchantDoc struct {
	NamePattern  string `yaml:"name_pattern" validate:"required_without=CategoryCode"`
	CategoryCode string `yaml:"category_code" validate:"omitempty,len=4,numeric"`
}

type CategoryDoc struct {
	Allowed bool   `yaml:"allowed"`
	Label   string `yaml:"label"`
}

type LimitDoc struct {
	Period    string `yaml:"period" validate:"required,oneof=daily monthly"`
	MaxAmount int64  `yaml:"max_amount" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and validates a policy document. Unknown keys are rejected so
// a typo never silently disables a rule.
func Parse(data []byte) (*authorization.PolicyConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "decode policy")
	}
	return doc.Compile()
}

// Default returns the embedded demo policy.
func Default() *authorization.PolicyConfig {
	cfg, err := Parse(defaultPolicy)
	if err != nil {
		panic(fmt.Sprintf("embedded policy is invalid: %v", err))
	}
	return cfg
}

// Compile validates the document and builds an immutable policy snapshot.
// Limits are ordered by ascending MaxAmount, keeping the declared order on ties.
func (d Document) Compile() (*authorization.PolicyConfig, error) {
	if err := validate.Struct(d); err != nil {
		return nil, validationError(err)
	}

	mode, err := authorization.ParsePartialApprovalMode(d.PartialApproval)
	if err != nil {
		return nil, err
	}

	cfg := &authorization.PolicyConfig{
		Name:             d.Name,
		Version:          d.Version,
		StrictCurrency:   d.StrictCurrency,
		PartialApproval:  mode,
		BlockedMerchants: merchantRules(d.Blocked),
		AllowedMerchants: merchantRules(d.Allowed),
		CategoryRules:    make(map[string]authorization.CategoryRule, len(d.Categories)),
		Limits:           make([]authorization.Limit, 0, len(d.Limits)),
	}

	if d.Currency != "" {
		code, ok := money.Normalize(d.Currency)
		if !ok {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown policy currency: "+d.Currency)
		}
		cfg.Currency = code
	}
	if d.StrictCurrency && cfg.Currency == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "strict_currency requires currency")
	}

	for code, c := range d.Categories {
		cfg.CategoryRules[code] = authorization.CategoryRule{
			Allowed: c.Allowed,
			Label:   strings.TrimSpace(c.Label),
		}
	}

	seen := make(map[authorization.Period]bool, len(d.Limits))
	for _, l := range d.Limits {
		period, err := authorization.ParsePeriod(l.Period)
		if err != nil {
			return nil, err
		}
		if seen[period] {
			return nil, dErrors.New(dErrors.CodeValidation, "duplicate limit period: "+string(period))
		}
		seen[period] = true
		cfg.Limits = append(cfg.Limits, authorization.Limit{Period: period, MaxAmount: l.MaxAmount})
	}
	slices.SortStableFunc(cfg.Limits, func(a, b authorization.Limit) int {
		switch {
		case a.MaxAmount < b.MaxAmount:
			return -1
		case a.MaxAmount > b.MaxAmount:
			return 1
		}
		return 0
	})

	return cfg, nil
}

func merchantRules(docs []MerchantDoc) []authorization.MerchantRule {
	rules := make([]authorization.MerchantRule, 0, len(docs))
	for _, m := range docs {
		rules = append(rules, authorization.MerchantRule{
			NamePattern:  strings.TrimSpace(m.NamePattern),
			CategoryCode: strings.TrimSpace(m.CategoryCode),
		})
	}
	return rules
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "validate policy")
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return dErrors.Wrap(err, dErrors.CodeValidation, "invalid policy: "+strings.Join(parts, "; "))
}
