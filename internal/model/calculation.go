package model

import (
	"fmt"
	"time"

	"alrater/internal/apperr"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus classifies the computed total against the printed one.
type ReconciliationStatus string

const (
	StatusMatch      ReconciliationStatus = "match"
	StatusMinorDiff  ReconciliationStatus = "minor_diff"
	StatusMajorDiff  ReconciliationStatus = "major_diff"
	StatusNoPDFTotal ReconciliationStatus = "no_pdf_total"
)

// DefaultTolerance is the reconciliation tolerance in currency units.
var DefaultTolerance = decimal.RequireFromString("0.50")

// ClassifyDelta maps a reconciliation delta to a status. A nil delta means
// the document carried no printed total.
func ClassifyDelta(delta *decimal.Decimal, tolerance decimal.Decimal) ReconciliationStatus {
	if delta == nil {
		return StatusNoPDFTotal
	}
	abs := delta.Abs()
	switch {
	case abs.LessThanOrEqual(tolerance):
		return StatusMatch
	case abs.LessThanOrEqual(tolerance.Mul(decimal.NewFromInt(2))):
		return StatusMinorDiff
	default:
		return StatusMajorDiff
	}
}

// Reconciled reports whether the status counts as reconciled.
func (s ReconciliationStatus) Reconciled() bool {
	return s == StatusMatch || s == StatusNoPDFTotal
}

// Minimum premium labels recorded in the factor trail.
const (
	MinimumNone    = ""
	MinimumPerUnit = "per_unit"
	MinimumPolicy  = "policy"
)

// Factor trail keys shared by the engine, the store and exports.
const (
	FactorMinimumApplied      = "minimum_premium_applied"
	FactorPremiumSubtotal     = "AL_Premium_Subtotal"
	FactorPerVehicleBreakdown = "per_vehicle_breakdown"
)

// Metadata keys.
const (
	MetaEditionCode    = "edition_code"
	MetaProgram        = "program"
	MetaSourceDocument = "source_document"
)

// VehicleBreakdown is the audit record of one vehicle's rate.
type VehicleBreakdown struct {
	VehicleIndex   int             `json:"vehicle_index"`
	VIN            string          `json:"vin"`
	Class          VehicleClass    `json:"class"`
	BodyType       string          `json:"body_type"`
	BusinessClass  string          `json:"business_class"`
	Program        Program         `json:"program"`
	BaseAL         decimal.Decimal `json:"base_al"`
	FBodyClass     decimal.Decimal `json:"f_body_class"`
	FRadius        decimal.Decimal `json:"f_radius"`
	FDriver        decimal.Decimal `json:"f_driver"`
	FLimit         decimal.Decimal `json:"f_limit"`
	RatePerUnit    decimal.Decimal `json:"rate_per_unit"`
	MinimumApplied bool            `json:"minimum_applied"`
}

type PolicySummary struct {
	InsuredName    string `json:"insured_name"`
	State          string `json:"state"`
	EffectiveDate  string `json:"effective_date"`
	ExpirationDate string `json:"expiration_date"`
}

type VehicleSummary struct {
	VIN   string `json:"vin"`
	Class string `json:"class"`
}

type DriverSummary struct {
	Name     string `json:"name"`
	Excluded bool   `json:"excluded,omitempty"`
}

type SelectionSummary struct {
	Limit           string `json:"limit"`
	Radius          string `json:"radius,omitempty"`
	ProgramOverride string `json:"program_override,omitempty"`
}

// SummarizePolicy builds the denormalized snapshots stored with a result.
func SummarizePolicy(p Policy) (PolicySummary, []VehicleSummary, []DriverSummary, SelectionSummary) {
	ps := PolicySummary{
		InsuredName:    p.InsuredName,
		State:          p.State(),
		EffectiveDate:  p.EffectiveDate.Format(DateLayout),
		ExpirationDate: p.ExpirationDate.Format(DateLayout),
	}
	vs := make([]VehicleSummary, 0, len(p.Vehicles))
	for _, v := range p.Vehicles {
		vs = append(vs, VehicleSummary{VIN: v.VIN, Class: v.Class.String()})
	}
	ds := make([]DriverSummary, 0, len(p.Drivers))
	for _, d := range p.Drivers {
		ds = append(ds, DriverSummary{Name: d.FullName(), Excluded: d.Excluded})
	}
	ss := SelectionSummary{
		Limit:           p.Selection.Limit,
		Radius:          p.Selection.RadiusBucket,
		ProgramOverride: p.Selection.ProgramOverride.String(),
	}
	return ps, vs, ds, ss
}

// CalculationResult is the immutable snapshot of one rating run. Only ID may
// change after construction, and only once.
type CalculationResult struct {
	ID                   string               `json:"id,omitempty"`
	Timestamp            time.Time            `json:"timestamp"`
	Policy               PolicySummary        `json:"policy"`
	Vehicles             []VehicleSummary     `json:"vehicles"`
	Drivers              []DriverSummary      `json:"drivers"`
	Selection            SelectionSummary     `json:"al_selection"`
	Factors              map[string]any       `json:"factors"`
	PremiumSubtotal      decimal.Decimal      `json:"premium_subtotal"`
	FeesTotal            decimal.Decimal      `json:"fees_total"`
	TaxesTotal           decimal.Decimal      `json:"taxes_total"`
	ALTotal              decimal.Decimal      `json:"al_total"`
	ReconciliationDelta  *decimal.Decimal     `json:"reconciliation_delta"`
	ReconciliationStatus ReconciliationStatus `json:"reconciliation_status"`
	Metadata             map[string]string    `json:"metadata"`
}

// Consistent reports whether ALTotal equals the rounded component sum within
// one cent.
func (r CalculationResult) Consistent() error {
	expected := r.PremiumSubtotal.Add(r.FeesTotal).Add(r.TaxesTotal).Round(2)
	if r.ALTotal.Sub(expected).Abs().GreaterThan(decimal.RequireFromString("0.01")) {
		return apperr.Calculationf("AL total (%s) does not match sum of components (%s)",
			r.ALTotal.StringFixed(2), expected.StringFixed(2))
	}
	return nil
}

// CalculationInput carries the values a result is built from.
type CalculationInput struct {
	Timestamp           time.Time
	Policy              PolicySummary
	Vehicles            []VehicleSummary
	Drivers             []DriverSummary
	Selection           SelectionSummary
	Factors             map[string]any
	PremiumSubtotal     decimal.Decimal
	FeesTotal           decimal.Decimal
	TaxesTotal          decimal.Decimal
	ALTotal             decimal.Decimal
	ReconciliationDelta *decimal.Decimal
	Tolerance           decimal.Decimal
	Metadata            map[string]string
}

// NewCalculationResult rounds every amount to cents and rejects inputs whose
// total disagrees with the component sum by more than one cent.
func NewCalculationResult(in CalculationInput) (*CalculationResult, error) {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	r := &CalculationResult{
		Timestamp:       ts,
		Policy:          in.Policy,
		Vehicles:        in.Vehicles,
		Drivers:         in.Drivers,
		Selection:       in.Selection,
		Factors:         in.Factors,
		PremiumSubtotal: in.PremiumSubtotal.Round(2),
		FeesTotal:       in.FeesTotal.Round(2),
		TaxesTotal:      in.TaxesTotal.Round(2),
		ALTotal:         in.ALTotal.Round(2),
		Metadata:        in.Metadata,
	}
	if r.Factors == nil {
		r.Factors = map[string]any{}
	}
	if r.Metadata == nil {
		r.Metadata = map[string]string{}
	}
	if in.ReconciliationDelta != nil {
		d := in.ReconciliationDelta.Round(2)
		r.ReconciliationDelta = &d
	}
	r.ReconciliationStatus = ClassifyDelta(r.ReconciliationDelta, in.Tolerance)
	if err := r.Consistent(); err != nil {
		return nil, err
	}
	return r, nil
}

// AttachID records the identifier assigned by persistence.
func (r *CalculationResult) AttachID(id string) error {
	if r.ID != "" && r.ID != id {
		return fmt.Errorf("%w: calculation already has id %s", apperr.ErrCalculation, r.ID)
	}
	r.ID = id
	return nil
}

// Factor returns a factor trail entry by name.
func (r CalculationResult) Factor(name string) (any, bool) {
	v, ok := r.Factors[name]
	return v, ok
}
