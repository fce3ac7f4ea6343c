package rating

import (
	"fmt"

	"alrater/internal/apperr"
	"alrater/internal/model"

	"github.com/shopspring/decimal"
)

// Minimums are the premium floors applied after per-vehicle rating.
type Minimums struct {
	Policy  decimal.Decimal
	PerUnit decimal.Decimal
}

func DefaultMinimums() Minimums {
	return Minimums{
		Policy:  decimal.NewFromInt(1000),
		PerUnit: decimal.NewFromInt(500),
	}
}

// VehiclePremium is the outcome of rating one vehicle, before any floor.
type VehiclePremium struct {
	Index       int
	Vehicle     model.Vehicle
	Factors     VehicleFactors
	RatePerUnit decimal.Decimal
}

// Breakdown renders the audit record, with any per-unit floor applied.
func (vp VehiclePremium) Breakdown(perUnitFloor decimal.Decimal) model.VehicleBreakdown {
	b := model.VehicleBreakdown{
		VehicleIndex:  vp.Index,
		VIN:           vp.Vehicle.VIN,
		Class:         vp.Vehicle.Class,
		BodyType:      vp.Vehicle.BodyType,
		BusinessClass: vp.Vehicle.BusinessClass,
		Program:       vp.Factors.Program,
		BaseAL:        vp.Factors.BaseAL,
		FBodyClass:    vp.Factors.BodyClass,
		FRadius:       vp.Factors.Radius,
		FDriver:       vp.Factors.Driver,
		FLimit:        vp.Factors.Limit,
		RatePerUnit:   vp.RatePerUnit,
	}
	if vp.RatePerUnit.LessThan(perUnitFloor) {
		b.RatePerUnit = perUnitFloor
		b.MinimumApplied = true
	}
	return b
}

// TrailEntries returns the vehicle-prefixed factor trail entries.
func (vp VehiclePremium) TrailEntries() map[string]any {
	prefix := fmt.Sprintf("vehicle_%d_", vp.Index)
	return map[string]any{
		prefix + "program":       vp.Factors.Program.String(),
		prefix + "Base_AL":       vp.Factors.BaseAL,
		prefix + "F_body_class":  vp.Factors.BodyClass,
		prefix + "F_radius":      vp.Factors.Radius,
		prefix + "F_driver":      vp.Factors.Driver,
		prefix + "F_limit":       vp.Factors.Limit,
		prefix + "rate_per_unit": vp.RatePerUnit,
	}
}

// PremiumResult is the rated premium and its audit trail.
type PremiumResult struct {
	Breakdown      []model.VehicleBreakdown
	Subtotal       decimal.Decimal
	MinimumApplied string
	Factors        map[string]any
}

// Program returns the program used for the first vehicle.
func (r *PremiumResult) Program() model.Program {
	if len(r.Breakdown) == 0 {
		return ""
	}
	return r.Breakdown[0].Program
}

// Engine computes AL premiums. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	lookup   *FactorLookup
	minimums Minimums
}

func NewEngine(lookup *FactorLookup, minimums Minimums) *Engine {
	return &Engine{lookup: lookup, minimums: minimums}
}

func (e *Engine) Lookup() *FactorLookup { return e.lookup }

func (e *Engine) Minimums() Minimums { return e.minimums }

// RateVehicle computes base x body/class x radius x driver x limit for the
// vehicle at idx, rounded to cents.
func (e *Engine) RateVehicle(idx int, v model.Vehicle, p model.Policy) (VehiclePremium, error) {
	f, err := e.lookup.AllFactorsForVehicle(v, p)
	if err != nil {
		return VehiclePremium{}, fmt.Errorf("vehicle %d (%s): %w", idx, v.VIN, err)
	}
	rate := f.BaseAL.Mul(f.BodyClass).Mul(f.Radius).Mul(f.Driver).Mul(f.Limit).Round(2)
	return VehiclePremium{Index: idx, Vehicle: v, Factors: f, RatePerUnit: rate}, nil
}

// CalculatePremium rates every vehicle, applies the per-unit and policy
// floors and returns the subtotal with its factor trail.
func (e *Engine) CalculatePremium(p model.Policy) (*PremiumResult, error) {
	if len(p.Vehicles) == 0 {
		return nil, apperr.NewValidation([]string{"policy must have at least one vehicle"})
	}
	for _, v := range p.Vehicles {
		if err := e.lookup.ValidateVehicleClass(v.Class); err != nil {
			return nil, err
		}
	}

	premiums := make([]VehiclePremium, 0, len(p.Vehicles))
	for i, v := range p.Vehicles {
		vp, err := e.RateVehicle(i, v, p)
		if err != nil {
			return nil, err
		}
		premiums = append(premiums, vp)
	}

	res := &PremiumResult{
		Breakdown: make([]model.VehicleBreakdown, 0, len(premiums)),
		Factors:   make(map[string]any, len(premiums)*7+3),
	}
	raw := decimal.Zero
	total := decimal.Zero
	for _, vp := range premiums {
		for k, val := range vp.TrailEntries() {
			res.Factors[k] = val
		}
		b := vp.Breakdown(e.minimums.PerUnit)
		res.Breakdown = append(res.Breakdown, b)
		raw = raw.Add(vp.RatePerUnit)
		total = total.Add(b.RatePerUnit)
	}

	switch {
	case total.LessThan(e.minimums.Policy):
		total = e.minimums.Policy
		res.MinimumApplied = model.MinimumPolicy
	case !raw.Equal(total):
		res.MinimumApplied = model.MinimumPerUnit
	}
	if res.MinimumApplied != model.MinimumNone {
		res.Factors[model.FactorMinimumApplied] = res.MinimumApplied
	}

	res.Subtotal = total.Round(2)
	res.Factors[model.FactorPremiumSubtotal] = res.Subtotal
	res.Factors[model.FactorPerVehicleBreakdown] = res.Breakdown
	return res, nil
}

// ValidatePolicyForRating reports every structural defect of p in a single
// ValidationError, or nil when p can be rated.
func (e *Engine) ValidatePolicyForRating(p model.Policy) error {
	var issues []string
	add := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	if p.InsuredName == "" {
		add("insured name is required")
	}
	if p.Address.State == "" {
		add("policy state is required")
	}
	if p.EffectiveDate.IsZero() {
		add("effective date is required")
	}
	if p.ExpirationDate.IsZero() {
		add("expiration date is required")
	}
	if !p.EffectiveDate.IsZero() && !p.ExpirationDate.IsZero() && !p.ExpirationDate.After(p.EffectiveDate) {
		add("expiration date must be after effective date")
	}

	if len(p.Vehicles) == 0 {
		add("at least one vehicle is required")
	}
	for i, v := range p.Vehicles {
		if v.VIN == "" {
			add("vehicle %d: VIN is required", i)
		}
		if v.Class == "" {
			add("vehicle %d: vehicle class is required", i)
		}
		if v.BodyType == "" {
			add("vehicle %d: body type is required", i)
		}
		if v.BusinessClass == "" {
			add("vehicle %d: business class is required", i)
		}
	}

	if len(p.EligibleDrivers()) == 0 {
		add("at least one non-excluded driver is required")
	}
	for i, d := range p.Drivers {
		if d.Excluded {
			continue
		}
		if d.FirstName == "" || d.LastName == "" {
			add("driver %d: name is required", i)
		}
		if d.LicenseState == "" {
			add("driver %d: license state is required", i)
		}
		if d.DOB.IsZero() {
			add("driver %d: date of birth is required", i)
		}
		if d.YearsExp < 0 {
			add("driver %d: years of experience cannot be negative", i)
		}
		if d.Accidents < 0 || d.Violations < 0 || d.Suspensions < 0 || d.MajorViolations < 0 {
			add("driver %d: incident counts cannot be negative", i)
		}
	}

	if p.Selection.Limit == "" {
		add("coverage limit is required")
	}
	return apperr.NewValidation(issues)
}
