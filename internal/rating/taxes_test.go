package rating

import (
	"testing"

	"alrater/internal/model"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taxConfig(t *testing.T, cfg model.StateTaxConfig) model.StateTaxConfig {
	t.Helper()
	out, err := model.NewStateTaxConfig(cfg)
	require.NoError(t, err)
	return out
}

func TestCalculateFees(t *testing.T) {
	c := NewFeeCalculator(DefaultFeeSchedule())

	all := c.Calculate(true)
	assert.Equal(t, "225.00", all.Total.StringFixed(2))
	assert.True(t, all.BrokerFee.Equal(dec("100")))

	noBroker := c.Calculate(false)
	assert.Equal(t, "125.00", noBroker.Total.StringFixed(2))
	assert.True(t, noBroker.BrokerFee.IsZero())
}

func TestCalculateFeesCustomSchedule(t *testing.T) {
	c := NewFeeCalculator(FeeSchedule{Policy: dec("25.005"), UW: dec("0"), Broker: dec("10")})
	b := c.Calculate(true)
	assert.Equal(t, "35.01", b.Total.StringFixed(2))
	assert.True(t, b.Amount(model.FeePolicy).Equal(dec("25.005")))
}

func TestCalculateTaxesAdmittedState(t *testing.T) {
	cfg := taxConfig(t, model.StateTaxConfig{
		State:          "NY",
		SLTRate:        dec("0.04"),
		StampRate:      dec("0.0025"),
		FireMarshalFee: dec("10"),
		Admitted:       true,
	})
	fees := NewFeeCalculator(DefaultFeeSchedule()).Calculate(true)

	got := CalculateTaxes(cfg, dec("2000"), fees)
	assert.Equal(t, "2225.00", got.TaxableBase.StringFixed(2))
	assert.True(t, got.SLT.IsZero())
	assert.True(t, got.Stamp.IsZero())
	assert.Equal(t, "10.00", got.Total.StringFixed(2))
}

func TestCalculateTaxesSurplusLines(t *testing.T) {
	cfg := taxConfig(t, model.StateTaxConfig{
		State:          "FL",
		SLTRate:        dec("0.04"),
		StampRate:      dec("0.0025"),
		FireMarshalFee: dec("10"),
	})
	fees := NewFeeCalculator(DefaultFeeSchedule()).Calculate(true)

	got := CalculateTaxes(cfg, dec("2000"), fees)
	assert.Equal(t, "89.00", got.SLT.StringFixed(2))
	assert.Equal(t, "5.56", got.Stamp.StringFixed(2))
	assert.Equal(t, "104.56", got.Total.StringFixed(2))
}

func TestCalculateTaxesPartialMask(t *testing.T) {
	cfg := taxConfig(t, model.StateTaxConfig{
		State:       "TX",
		SLTRate:     dec("0.05"),
		TaxableFees: map[model.FeeName]bool{model.FeePolicy: true, model.FeeBroker: false},
	})
	fees := NewFeeCalculator(DefaultFeeSchedule()).Calculate(true)

	got := CalculateTaxes(cfg, dec("1000"), fees)
	assert.Equal(t, "1050.00", got.TaxableBase.StringFixed(2), "uw fee absent from mask is not taxable")
	assert.Equal(t, "52.50", got.Total.StringFixed(2))
}

func TestAdmittedStateZeroesPercentageTaxes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("admitted states never pay SLT or stamp", prop.ForAll(
		func(sltBps, stampBps, base int) bool {
			cfg := model.StateTaxConfig{
				State:     "NY",
				SLTRate:   decimal.New(int64(sltBps), -4),
				StampRate: decimal.New(int64(stampBps), -4),
				Admitted:  true,
			}
			b := decimal.NewFromInt(int64(base))
			return CalculateSLT(cfg, b).IsZero() && CalculateStamp(cfg, b).IsZero()
		},
		gen.IntRange(1, 10000),
		gen.IntRange(1, 10000),
		gen.IntRange(0, 1000000),
	))

	properties.TestingRun(t)
}

func TestReconcile(t *testing.T) {
	printed := dec("3037.50")
	r := Reconcile(dec("3037.91"), &printed, model.DefaultTolerance)
	require.NotNil(t, r.Delta)
	assert.Equal(t, "0.41", r.Delta.StringFixed(2))
	assert.Equal(t, model.StatusMatch, r.Status)

	none := Reconcile(dec("100"), nil, model.DefaultTolerance)
	assert.Nil(t, none.Delta)
	assert.Equal(t, model.StatusNoPDFTotal, none.Status)
}

func TestReconcileBoundaries(t *testing.T) {
	tol := dec("0.50")
	tests := []struct {
		total string
		want  model.ReconciliationStatus
	}{
		{"100.50", model.StatusMatch},
		{"100.51", model.StatusMinorDiff},
		{"101.00", model.StatusMinorDiff},
		{"101.01", model.StatusMajorDiff},
		{"99.49", model.StatusMinorDiff},
	}
	printed := dec("100")
	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			assert.Equal(t, tt.want, Reconcile(dec(tt.total), &printed, tol).Status)
		})
	}
}

func TestALTotal(t *testing.T) {
	assert.Equal(t, "3473.44", ALTotal(dec("3105"), dec("225"), dec("143.435")).StringFixed(2))
}
