// Package ratingtest provides a small in-memory rating edition for tests of
// the layers above the engine.
//
// The FL policy rates to a 3105.00 subtotal. With the default fee schedule
// and no broker fee its AL total is 3391.50.
package ratingtest

import (
	"time"

	"alrater/internal/model"
	"alrater/internal/rating"

	"github.com/shopspring/decimal"
)

const (
	EditionCode = "2025-01"
	// ALTotalFL is the total of Policy under the default settings.
	ALTotalFL = "3391.50"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Tables puts FL and GA on CW and TX on SS.
func Tables() *model.RatingTables {
	t := model.NewRatingTables()
	t.Edition = model.Edition{Code: EditionCode, EffectiveDate: day(2025, time.January, 1), Source: "memory"}
	t.Bands = rating.DefaultBands()

	t.StatePrograms["FL"] = model.ProgramCW
	t.StatePrograms["GA"] = model.ProgramCW
	t.StatePrograms["TX"] = model.ProgramSS

	t.BaseAL[model.BaseALKey{Program: model.ProgramCW, State: "FL"}] = dec("2500")
	t.BaseAL[model.BaseALKey{Program: model.ProgramCW, State: "GA"}] = dec("400")
	t.BaseAL[model.BaseALKey{Program: model.ProgramSS, State: "TX"}] = dec("3000")

	for _, p := range []model.Program{model.ProgramCW, model.ProgramSS} {
		t.BodyClass[model.BodyClassKey{Program: p, BodyType: "TRACTOR", Class: model.VehicleClass8, BusinessClass: "GENERAL"}] = dec("1.20")
		t.Radius[model.RadiusKey{Program: p, Bucket: "0-50"}] = dec("0.90")
		t.Driver[model.DriverKey{Program: p, AgeBand: "35-49", ExpBand: "6-10", MVRBand: "1-2"}] = dec("1.15")
		t.Limit[model.LimitKey{Program: p, Limit: "1000000/2000000"}] = dec("1.00")
	}
	t.Diagnostics.Skip("Base_AL")
	return t
}

// TaxConfigs has FL (surplus lines at 5%) and TX (admitted). GA is missing.
func TaxConfigs() model.TaxConfigStore {
	fl, _ := model.NewStateTaxConfig(model.StateTaxConfig{State: "FL", SLTRate: dec("0.05")})
	tx, _ := model.NewStateTaxConfig(model.StateTaxConfig{State: "TX", SLTRate: dec("0.05"), Admitted: true})
	return model.TaxConfigStore{"FL": fl, "TX": tx}
}

// Engine rates against Tables with the default minimums.
func Engine() *rating.Engine {
	return rating.NewEngine(rating.NewFactorLookup(Tables()), rating.DefaultMinimums())
}

// Policy is a one-tractor FL policy effective 2025-03-01.
func Policy() model.Policy {
	garage := model.Address{Street: "1 Port Rd", City: "Tampa", State: "FL", Zip: "33602"}
	return model.Policy{
		InsuredName:    "Acme Freight LLC",
		Address:        garage,
		EffectiveDate:  day(2025, time.March, 1),
		ExpirationDate: day(2026, time.March, 1),
		Vehicles: []model.Vehicle{{
			VIN:           "1FUJGLDR5CLBP8834",
			Year:          2021,
			MakeModel:     "Freightliner Cascadia",
			Class:         model.VehicleClass8,
			BodyType:      "TRACTOR",
			BusinessClass: "GENERAL",
			Garage:        garage,
		}},
		Drivers: []model.Driver{{
			FirstName:    "Maria",
			LastName:     "Lopez",
			LicenseState: "FL",
			LicenseNo:    "L1234567",
			DOB:          day(1980, time.June, 15),
			YearsExp:     10,
			Violations:   1,
		}},
		Selection: model.ALSelection{Limit: "1000000/2000000", RadiusBucket: "0-50"},
	}
}

// PolicyJSON is Policy in the intake document format.
const PolicyJSON = `{
  "insured_name": "Acme Freight LLC",
  "address": {"street": "1 Port Rd", "city": "Tampa", "state": "FL", "zip": "33602"},
  "effective_date": "2025-03-01",
  "expiration_date": "2026-03-01",
  "vehicles": [{
    "vin": "1FUJGLDR5CLBP8834",
    "year": 2021,
    "make_model": "Freightliner Cascadia",
    "vehicle_class": "Class8",
    "body_type": "TRACTOR",
    "business_class": "GENERAL",
    "garage": {"street": "1 Port Rd", "city": "Tampa", "state": "FL", "zip": "33602"}
  }],
  "drivers": [{
    "first_name": "Maria",
    "last_name": "Lopez",
    "license_state": "FL",
    "license_no": "L1234567",
    "dob": "1980-06-15",
    "years_exp": 10,
    "violations": 1
  }],
  "al_selection": {"limit": "1000000/2000000", "radius_bucket": "0-50"}
}`
