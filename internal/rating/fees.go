package rating

import (
	"alrater/internal/model"

	"github.com/shopspring/decimal"
)

// FeeSchedule holds the flat fee amounts. Amounts are validated by the
// settings layer.
type FeeSchedule struct {
	Policy decimal.Decimal
	UW     decimal.Decimal
	Broker decimal.Decimal
}

func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Policy: decimal.NewFromInt(50),
		UW:     decimal.NewFromInt(75),
		Broker: decimal.NewFromInt(100),
	}
}

type FeeBreakdown struct {
	PolicyFee decimal.Decimal `json:"policy_fee"`
	UWFee     decimal.Decimal `json:"uw_fee"`
	BrokerFee decimal.Decimal `json:"broker_fee"`
	Total     decimal.Decimal `json:"total"`
}

// Amount returns the component named by fee.
func (b FeeBreakdown) Amount(fee model.FeeName) decimal.Decimal {
	switch fee {
	case model.FeePolicy:
		return b.PolicyFee
	case model.FeeUW:
		return b.UWFee
	case model.FeeBroker:
		return b.BrokerFee
	}
	return decimal.Zero
}

type FeeCalculator struct {
	schedule FeeSchedule
}

func NewFeeCalculator(schedule FeeSchedule) *FeeCalculator {
	return &FeeCalculator{schedule: schedule}
}

// Calculate returns the fee components. The broker fee is zero unless
// includeBroker is set.
func (c *FeeCalculator) Calculate(includeBroker bool) FeeBreakdown {
	b := FeeBreakdown{
		PolicyFee: c.schedule.Policy,
		UWFee:     c.schedule.UW,
		BrokerFee: decimal.Zero,
	}
	if includeBroker {
		b.BrokerFee = c.schedule.Broker
	}
	b.Total = b.PolicyFee.Add(b.UWFee).Add(b.BrokerFee).Round(2)
	return b
}
