package model

import (
	"fmt"
	"sort"
	"strings"

	"alrater/internal/apperr"

	"github.com/shopspring/decimal"
)

// FeeName identifies a flat fee that may feed the percentage-tax base.
type FeeName string

const (
	FeePolicy FeeName = "policy_fee"
	FeeUW     FeeName = "uw_fee"
	FeeBroker FeeName = "broker_fee"
)

var FeeNames = []FeeName{FeePolicy, FeeUW, FeeBroker}

// StateTaxConfig holds one jurisdiction's tax rules. Rates are fractions,
// so 0.04 means four percent.
type StateTaxConfig struct {
	State          string           `json:"state"`
	SLTRate        decimal.Decimal  `json:"slt_percentage"`
	StampRate      decimal.Decimal  `json:"stamp_percentage"`
	FireMarshalFee decimal.Decimal  `json:"fire_marshal_fee"`
	OtherFees      decimal.Decimal  `json:"other_fees"`
	TaxableFees    map[FeeName]bool `json:"taxable_fees_mask"`
	Admitted       bool             `json:"admitted"`
}

// NewStateTaxConfig validates and normalizes a configuration. An empty mask
// becomes "every fee taxable".
func NewStateTaxConfig(cfg StateTaxConfig) (StateTaxConfig, error) {
	cfg.State = strings.ToUpper(strings.TrimSpace(cfg.State))
	if len(cfg.State) != 2 {
		return StateTaxConfig{}, fmt.Errorf("%w: state code must be 2 characters: %q", apperr.ErrValidation, cfg.State)
	}
	one := decimal.NewFromInt(1)
	for name, rate := range map[string]decimal.Decimal{"slt_percentage": cfg.SLTRate, "stamp_percentage": cfg.StampRate} {
		if rate.IsNegative() || rate.GreaterThan(one) {
			return StateTaxConfig{}, fmt.Errorf("%w: %s must be between 0 and 1 for %s, got %s",
				apperr.ErrValidation, name, cfg.State, rate.String())
		}
	}
	for name, fee := range map[string]decimal.Decimal{"fire_marshal_fee": cfg.FireMarshalFee, "other_fees": cfg.OtherFees} {
		if fee.IsNegative() {
			return StateTaxConfig{}, fmt.Errorf("%w: %s cannot be negative for %s, got %s",
				apperr.ErrValidation, name, cfg.State, fee.String())
		}
	}
	if len(cfg.TaxableFees) == 0 {
		cfg.TaxableFees = map[FeeName]bool{FeePolicy: true, FeeUW: true, FeeBroker: true}
	}
	return cfg, nil
}

// IsFeeTaxable reports whether the fee feeds the taxable base. Fees missing
// from a non-empty mask are not taxable.
func (c StateTaxConfig) IsFeeTaxable(name FeeName) bool {
	if len(c.TaxableFees) == 0 {
		return true
	}
	return c.TaxableFees[name]
}

// TaxConfigStore maps upper-cased state codes to their configuration.
type TaxConfigStore map[string]StateTaxConfig

// Get returns the configuration for state or a FactorNotFoundError.
func (s TaxConfigStore) Get(state string) (StateTaxConfig, error) {
	key := strings.ToUpper(strings.TrimSpace(state))
	cfg, ok := s[key]
	if !ok {
		return StateTaxConfig{}, &apperr.FactorNotFoundError{
			FactorType: "tax_config",
			Key:        key,
			State:      key,
			Detail:     fmt.Sprintf("no tax configuration found for state '%s'", key),
		}
	}
	return cfg, nil
}

func (s TaxConfigStore) States() []string {
	states := make([]string, 0, len(s))
	for k := range s {
		states = append(states, k)
	}
	sort.Strings(states)
	return states
}
