package rating

import (
	"alrater/internal/model"

	"github.com/shopspring/decimal"
)

type TaxBreakdown struct {
	TaxableBase decimal.Decimal `json:"taxable_base"`
	SLT         decimal.Decimal `json:"slt"`
	Stamp       decimal.Decimal `json:"stamp"`
	FireMarshal decimal.Decimal `json:"fire_marshal"`
	Other       decimal.Decimal `json:"other"`
	Total       decimal.Decimal `json:"total"`
}

// CalculateSLT is zero for admitted states regardless of the configured rate.
func CalculateSLT(cfg model.StateTaxConfig, taxableBase decimal.Decimal) decimal.Decimal {
	if cfg.Admitted {
		return decimal.Zero
	}
	return taxableBase.Mul(cfg.SLTRate)
}

// CalculateStamp is zero for admitted states regardless of the configured rate.
func CalculateStamp(cfg model.StateTaxConfig, taxableBase decimal.Decimal) decimal.Decimal {
	if cfg.Admitted {
		return decimal.Zero
	}
	return taxableBase.Mul(cfg.StampRate)
}

// TaxableBase adds the masked fees to the premium subtotal.
func TaxableBase(cfg model.StateTaxConfig, premium decimal.Decimal, fees FeeBreakdown) decimal.Decimal {
	base := premium
	for _, name := range model.FeeNames {
		if cfg.IsFeeTaxable(name) {
			base = base.Add(fees.Amount(name))
		}
	}
	return base
}

// CalculateTaxes computes every state tax component. Components are rounded
// individually; the total is the rounded sum of the unrounded components.
func CalculateTaxes(cfg model.StateTaxConfig, premium decimal.Decimal, fees FeeBreakdown) TaxBreakdown {
	base := TaxableBase(cfg, premium, fees)
	slt := CalculateSLT(cfg, base)
	stamp := CalculateStamp(cfg, base)
	return TaxBreakdown{
		TaxableBase: base.Round(2),
		SLT:         slt.Round(2),
		Stamp:       stamp.Round(2),
		FireMarshal: cfg.FireMarshalFee.Round(2),
		Other:       cfg.OtherFees.Round(2),
		Total:       slt.Add(stamp).Add(cfg.FireMarshalFee).Add(cfg.OtherFees).Round(2),
	}
}
