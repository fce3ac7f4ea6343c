package service

import (
	"context"
	"errors"
	"testing"

	"alrater/internal/apperr"
	"alrater/internal/model"
	"alrater/internal/rating"
	"alrater/internal/ratingtest"
	ws "alrater/internal/websocket"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func printed(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestRateFLPolicy(t *testing.T) {
	f := newQuoteFixture()

	q, err := f.svc.Rate(context.Background(), QuoteRequest{Policy: ratingtest.Policy(), SourceDocument: "acme.pdf"})
	require.NoError(t, err)

	res := q.Result
	assert.Equal(t, "3105.00", res.PremiumSubtotal.StringFixed(2))
	assert.Equal(t, "125.00", res.FeesTotal.StringFixed(2))
	assert.Equal(t, "161.50", res.TaxesTotal.StringFixed(2))
	assert.Equal(t, ratingtest.ALTotalFL, res.ALTotal.StringFixed(2))
	assert.Equal(t, model.StatusNoPDFTotal, res.ReconciliationStatus)
	assert.Nil(t, res.ReconciliationDelta)

	assert.Equal(t, ratingtest.EditionCode, res.Metadata[model.MetaEditionCode])
	assert.Equal(t, "CW", res.Metadata[model.MetaProgram])
	assert.Equal(t, "acme.pdf", res.Metadata[model.MetaSourceDocument])

	assert.True(t, q.Fees.BrokerFee.IsZero())
	assert.Equal(t, "3230.00", q.Taxes.TaxableBase.StringFixed(2))
	assert.False(t, q.Saved)
	assert.Empty(t, res.ID)

	assert.Equal(t, []string{"no_pdf_total"}, f.recorder.statuses)
	assert.Empty(t, f.calcs.records, "rating alone never persists")
}

func TestRateReconciliation(t *testing.T) {
	tests := []struct {
		name    string
		printed string
		status  model.ReconciliationStatus
		delta   string
	}{
		{"exact", "3391.50", model.StatusMatch, "0.00"},
		{"within tolerance", "3391.20", model.StatusMatch, "0.30"},
		{"minor", "3390.70", model.StatusMinorDiff, "0.80"},
		{"major", "3380.00", model.StatusMajorDiff, "11.50"},
		{"computed below printed", "3392.30", model.StatusMinorDiff, "-0.80"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newQuoteFixture()
			q, err := f.svc.Rate(context.Background(), QuoteRequest{
				Policy:       ratingtest.Policy(),
				PrintedTotal: printed(tc.printed),
			})
			require.NoError(t, err)
			assert.Equal(t, tc.status, q.Result.ReconciliationStatus)
			require.NotNil(t, q.Result.ReconciliationDelta)
			assert.Equal(t, tc.delta, q.Result.ReconciliationDelta.StringFixed(2))
		})
	}
}

func TestRateZeroTolerance(t *testing.T) {
	f := newQuoteFixture()
	f.svc = NewQuoteService(
		ratingtest.Engine(),
		rating.NewFeeCalculator(rating.DefaultFeeSchedule()),
		ratingtest.TaxConfigs(),
		QuoteSettings{Tolerance: decimal.Zero},
		f.calcs, f.audits, f.publisher, f.recorder,
	)

	q, err := f.svc.Rate(context.Background(), QuoteRequest{Policy: ratingtest.Policy(), PrintedTotal: printed("3391.20")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusMajorDiff, q.Result.ReconciliationStatus)

	q, err = f.svc.Rate(context.Background(), QuoteRequest{Policy: ratingtest.Policy(), PrintedTotal: printed(ratingtest.ALTotalFL)})
	require.NoError(t, err)
	assert.Equal(t, model.StatusMatch, q.Result.ReconciliationStatus)
}

func TestRateBrokerOverride(t *testing.T) {
	f := newQuoteFixture()
	include := true

	q, err := f.svc.Rate(context.Background(), QuoteRequest{Policy: ratingtest.Policy(), IncludeBroker: &include})
	require.NoError(t, err)
	assert.Equal(t, "225.00", q.Result.FeesTotal.StringFixed(2))
	assert.Equal(t, "166.50", q.Result.TaxesTotal.StringFixed(2))
	assert.Equal(t, "3496.50", q.Result.ALTotal.StringFixed(2))
}

func TestRateMissingTaxConfig(t *testing.T) {
	f := newQuoteFixture()
	p := ratingtest.Policy()
	p.Address.State = "GA"

	q, err := f.svc.Rate(context.Background(), QuoteRequest{Policy: p})
	require.Error(t, err)
	assert.Nil(t, q)
	assert.ErrorIs(t, err, apperr.ErrFactorNotFound)

	var fnf *apperr.FactorNotFoundError
	require.True(t, errors.As(err, &fnf))
	assert.Equal(t, "tax_config", fnf.FactorType)
	assert.Equal(t, []string{"factor_not_found"}, f.recorder.failures)
}

func TestRateValidationFailure(t *testing.T) {
	f := newQuoteFixture()
	p := ratingtest.Policy()
	p.Vehicles = nil
	p.InsuredName = ""

	_, err := f.svc.Rate(context.Background(), QuoteRequest{Policy: p})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, []string{"validation"}, f.recorder.failures)
	assert.Empty(t, f.recorder.statuses)
}

func TestRateCancelledContext(t *testing.T) {
	f := newQuoteFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Rate(ctx, QuoteRequest{Policy: ratingtest.Policy()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateAndSave(t *testing.T) {
	f := newQuoteFixture()

	q, err := f.svc.RateAndSave(context.Background(), QuoteRequest{
		Policy:         ratingtest.Policy(),
		PrintedTotal:   printed("3391.50"),
		SourceDocument: "acme.pdf",
	})
	require.NoError(t, err)
	assert.True(t, q.Saved)
	require.NotEmpty(t, q.Result.ID)
	require.Len(t, f.calcs.records, 1)
	for id, rec := range f.calcs.records {
		assert.Equal(t, q.Result.ID, id.String())
		assert.Equal(t, "Acme Freight LLC", rec.InsuredName)
		assert.Equal(t, "match", rec.ReconciliationStatus)
	}

	assert.Equal(t, []string{model.ActionRateQuote}, f.audits.actions())
	assert.Equal(t, q.Result.ID, f.audits.entries[0].EntityID)
	assert.Contains(t, string(f.audits.entries[0].Details), `"source_document":"acme.pdf"`)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, ws.EventCalculationSaved, f.publisher.events[0].Type)
	ev := f.publisher.events[0].Data.(CalculationEvent)
	assert.Equal(t, q.Result.ID, ev.ID)
	assert.Equal(t, ratingtest.ALTotalFL, ev.ALTotal)
	assert.Equal(t, 1, f.recorder.saved)
}

func TestRateAndSaveStorageFailure(t *testing.T) {
	f := newQuoteFixture()
	f.calcs.createErr = apperr.Storagef("disk full")

	q, err := f.svc.RateAndSave(context.Background(), QuoteRequest{Policy: ratingtest.Policy()})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorage)
	require.NotNil(t, q, "the computed quote survives a failed save")
	assert.False(t, q.Saved)
	assert.Empty(t, q.Result.ID)
	assert.Equal(t, ratingtest.ALTotalFL, q.Result.ALTotal.StringFixed(2))

	assert.Empty(t, f.audits.entries)
	assert.Empty(t, f.publisher.events)
	assert.Equal(t, 0, f.recorder.saved)
	assert.Equal(t, []string{"storage"}, f.recorder.failures)
}

func TestRateAndSaveIgnoresAuditFailure(t *testing.T) {
	f := newQuoteFixture()
	f.audits.logErr = errors.New("audit table locked")

	q, err := f.svc.RateAndSave(context.Background(), QuoteRequest{Policy: ratingtest.Policy()})
	require.NoError(t, err)
	assert.True(t, q.Saved)
	assert.Len(t, f.calcs.records, 1)
}

func TestRateAndSaveRatingFailureStoresNothing(t *testing.T) {
	f := newQuoteFixture()
	p := ratingtest.Policy()
	p.Selection.Limit = "CSL_5M"

	q, err := f.svc.RateAndSave(context.Background(), QuoteRequest{Policy: p})
	require.Error(t, err)
	assert.Nil(t, q)
	assert.ErrorIs(t, err, apperr.ErrFactorNotFound)
	assert.Empty(t, f.calcs.records)
	assert.Empty(t, f.audits.entries)
}
