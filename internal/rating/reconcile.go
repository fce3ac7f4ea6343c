package rating

import (
	"alrater/internal/model"

	"github.com/shopspring/decimal"
)

// ALTotal is round(premium + fees + taxes, 2).
func ALTotal(premium, fees, taxes decimal.Decimal) decimal.Decimal {
	return premium.Add(fees).Add(taxes).Round(2)
}

type Reconciliation struct {
	ALTotal decimal.Decimal
	Printed *decimal.Decimal
	Delta   *decimal.Decimal
	Status  model.ReconciliationStatus
}

// Reconcile compares alTotal with the printed total. A nil printed total
// yields no_pdf_total.
func Reconcile(alTotal decimal.Decimal, printed *decimal.Decimal, tolerance decimal.Decimal) Reconciliation {
	r := Reconciliation{ALTotal: alTotal, Printed: printed}
	if printed != nil {
		d := alTotal.Sub(*printed).Round(2)
		r.Delta = &d
	}
	r.Status = model.ClassifyDelta(r.Delta, tolerance)
	return r
}
