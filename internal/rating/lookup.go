package rating

import (
	"fmt"
	"strings"
	"time"

	"alrater/internal/apperr"
	"alrater/internal/model"

	"github.com/shopspring/decimal"
)

const (
	DefaultRadiusBucket = "0-50"
	DefaultLimit        = "1000000/2000000"
)

// VehicleFactors is every factor needed to rate one vehicle.
type VehicleFactors struct {
	Program   model.Program
	BaseAL    decimal.Decimal
	BodyClass decimal.Decimal
	Radius    decimal.Decimal
	Driver    decimal.Decimal
	Limit     decimal.Decimal
}

// FactorLookup answers factor queries against an immutable table store.
type FactorLookup struct {
	tables *model.RatingTables
}

func NewFactorLookup(tables *model.RatingTables) *FactorLookup {
	return &FactorLookup{tables: tables}
}

func (l *FactorLookup) Tables() *model.RatingTables { return l.tables }

func (l *FactorLookup) ProgramForState(state string) (model.Program, error) {
	s := strings.ToUpper(strings.TrimSpace(state))
	p, ok := l.tables.StatePrograms[s]
	if !ok {
		return "", &apperr.FactorNotFoundError{
			FactorType: "program",
			Key:        s,
			State:      s,
			Detail:     fmt.Sprintf("state '%s' not found in rating plan", s),
		}
	}
	return p, nil
}

func (l *FactorLookup) BaseAL(program model.Program, state string) (decimal.Decimal, error) {
	s := strings.ToUpper(strings.TrimSpace(state))
	v, ok := l.tables.BaseAL[model.BaseALKey{Program: program, State: s}]
	if !ok {
		return decimal.Zero, apperr.FactorNotFound("base_al", s, program.String(), s)
	}
	return v, nil
}

func (l *FactorLookup) BodyClassFactor(program model.Program, bodyType string, class model.VehicleClass, businessClass string) (decimal.Decimal, error) {
	key := model.BodyClassKey{Program: program, BodyType: bodyType, Class: class, BusinessClass: businessClass}
	v, ok := l.tables.BodyClass[key]
	if !ok {
		return decimal.Zero, apperr.FactorNotFound("body_class",
			fmt.Sprintf("%s/%s/%s", bodyType, class, businessClass), program.String(), "")
	}
	return v, nil
}

// RadiusFactor defaults to 1.0 when the bucket has no entry.
func (l *FactorLookup) RadiusFactor(program model.Program, bucket string) decimal.Decimal {
	v, ok := l.tables.Radius[model.RadiusKey{Program: program, Bucket: bucket}]
	if !ok {
		return decimal.NewFromInt(1)
	}
	return v
}

// DriverBands resolves the age, experience and MVR band labels for d.
func (l *FactorLookup) DriverBands(d model.Driver, asOf time.Time) (age, exp, mvr string, err error) {
	bands := l.tables.Bands
	if age, err = ResolveBand(float64(d.Age(asOf)), bands.Age); err != nil {
		return "", "", "", fmt.Errorf("failed to determine driver age band for %s: %w", d.FullName(), err)
	}
	if exp, err = ResolveBand(d.YearsExp, bands.Experience); err != nil {
		return "", "", "", fmt.Errorf("failed to determine driver experience band for %s: %w", d.FullName(), err)
	}
	if mvr, err = ResolveBand(float64(d.TotalMVRIncidents()), bands.MVR); err != nil {
		return "", "", "", fmt.Errorf("failed to determine driver MVR band for %s: %w", d.FullName(), err)
	}
	return age, exp, mvr, nil
}

func (l *FactorLookup) DriverFactor(program model.Program, d model.Driver, asOf time.Time) (decimal.Decimal, error) {
	age, exp, mvr, err := l.DriverBands(d, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	v, ok := l.tables.Driver[model.DriverKey{Program: program, AgeBand: age, ExpBand: exp, MVRBand: mvr}]
	if !ok {
		return decimal.Zero, apperr.FactorNotFound("driver", fmt.Sprintf("%s/%s/%s", age, exp, mvr), program.String(), "")
	}
	return v, nil
}

func (l *FactorLookup) LimitFactor(program model.Program, limit string) (decimal.Decimal, error) {
	v, ok := l.tables.Limit[model.LimitKey{Program: program, Limit: limit}]
	if !ok {
		return decimal.Zero, apperr.FactorNotFound("limit", limit, program.String(), "")
	}
	return v, nil
}

// ValidateVehicleClass stops rating for classes outside the supported set.
func (l *FactorLookup) ValidateVehicleClass(class model.VehicleClass) error {
	if !class.IsValid() {
		return model.UnsupportedVehicleClass(class.String())
	}
	return nil
}

// ResolveProgram returns the selection override if present, otherwise the
// state's planned program.
func (l *FactorLookup) ResolveProgram(p model.Policy) (model.Program, error) {
	program, err := l.ProgramForState(p.State())
	if err != nil {
		return "", err
	}
	if p.Selection.ProgramOverride != "" {
		if !p.Selection.ProgramOverride.IsValid() {
			return "", fmt.Errorf("%w: invalid program override %q", apperr.ErrValidation, p.Selection.ProgramOverride)
		}
		program = p.Selection.ProgramOverride
	}
	return program, nil
}

// PolicyDriverFactor is the arithmetic mean of the driver factors of every
// non-excluded driver. It applies uniformly to every vehicle on the policy.
func (l *FactorLookup) PolicyDriverFactor(program model.Program, p model.Policy) (decimal.Decimal, error) {
	eligible := p.EligibleDrivers()
	if len(eligible) == 0 {
		return decimal.Zero, &apperr.FactorNotFoundError{
			FactorType: "driver",
			Program:    program.String(),
			Detail:     "no eligible drivers found for rating",
		}
	}
	sum := decimal.Zero
	for _, d := range eligible {
		f, err := l.DriverFactor(program, d, p.EffectiveDate)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(f)
	}
	return sum.Div(decimal.NewFromInt(int64(len(eligible)))), nil
}

// AllFactorsForVehicle gathers every factor for one vehicle of p.
func (l *FactorLookup) AllFactorsForVehicle(v model.Vehicle, p model.Policy) (VehicleFactors, error) {
	program, err := l.ResolveProgram(p)
	if err != nil {
		return VehicleFactors{}, err
	}
	base, err := l.BaseAL(program, p.State())
	if err != nil {
		return VehicleFactors{}, err
	}
	body, err := l.BodyClassFactor(program, v.BodyType, v.Class, v.BusinessClass)
	if err != nil {
		return VehicleFactors{}, err
	}
	bucket := p.Selection.RadiusBucket
	if bucket == "" {
		bucket = DefaultRadiusBucket
	}
	driver, err := l.PolicyDriverFactor(program, p)
	if err != nil {
		return VehicleFactors{}, err
	}
	limitKey := p.Selection.Limit
	if limitKey == "" {
		limitKey = DefaultLimit
	}
	limit, err := l.LimitFactor(program, limitKey)
	if err != nil {
		return VehicleFactors{}, err
	}
	return VehicleFactors{
		Program:   program,
		BaseAL:    base,
		BodyClass: body,
		Radius:    l.RadiusFactor(program, bucket),
		Driver:    driver,
		Limit:     limit,
	}, nil
}
