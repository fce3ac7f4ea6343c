package rating

import (
	"time"

	"alrater/internal/model"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// testTables builds a small CW/SS edition: FL and GA on CW, TX on SS.
func testTables() *model.RatingTables {
	t := model.NewRatingTables()
	t.Edition = model.Edition{Code: "2025-01", EffectiveDate: day(2025, time.January, 1)}
	t.Bands = DefaultBands()

	t.StatePrograms["FL"] = model.ProgramCW
	t.StatePrograms["GA"] = model.ProgramCW
	t.StatePrograms["TX"] = model.ProgramSS

	t.BaseAL[model.BaseALKey{Program: model.ProgramCW, State: "FL"}] = dec("2500")
	t.BaseAL[model.BaseALKey{Program: model.ProgramCW, State: "GA"}] = dec("400")
	t.BaseAL[model.BaseALKey{Program: model.ProgramSS, State: "TX"}] = dec("3000")
	t.BaseAL[model.BaseALKey{Program: model.ProgramSS, State: "FL"}] = dec("2700")

	for _, p := range []model.Program{model.ProgramCW, model.ProgramSS} {
		t.BodyClass[model.BodyClassKey{Program: p, BodyType: "TRACTOR", Class: model.VehicleClass8, BusinessClass: "GENERAL"}] = dec("1.20")
		t.BodyClass[model.BodyClassKey{Program: p, BodyType: "BOXTRUCK", Class: model.VehicleClass6, BusinessClass: "GENERAL"}] = dec("0.85")
		t.Radius[model.RadiusKey{Program: p, Bucket: "0-50"}] = dec("0.90")
		t.Radius[model.RadiusKey{Program: p, Bucket: "500+"}] = dec("1.40")
		t.Driver[model.DriverKey{Program: p, AgeBand: "35-49", ExpBand: "6-10", MVRBand: "1-2"}] = dec("1.15")
		t.Driver[model.DriverKey{Program: p, AgeBand: "35-49", ExpBand: "6-10", MVRBand: "0"}] = dec("1.00")
		t.Driver[model.DriverKey{Program: p, AgeBand: "25-34", ExpBand: "3-5", MVRBand: "0"}] = dec("1.30")
		t.Limit[model.LimitKey{Program: p, Limit: "1000000/2000000"}] = dec("1.00")
		t.Limit[model.LimitKey{Program: p, Limit: "CSL_750K"}] = dec("0.92")
	}
	return t
}

// testDriver is 44 on 2025-03-01 with ten years of experience and one
// incident.
func testDriver() model.Driver {
	return model.Driver{
		FirstName:    "Maria",
		LastName:     "Lopez",
		LicenseState: "FL",
		LicenseNo:    "L1234567",
		DOB:          day(1980, time.June, 15),
		YearsExp:     10,
		Violations:   1,
	}
}

func testVehicle() model.Vehicle {
	return model.Vehicle{
		VIN:           "1FUJGLDR5CLBP8834",
		Year:          2021,
		MakeModel:     "Freightliner Cascadia",
		Class:         model.VehicleClass8,
		BodyType:      "TRACTOR",
		BusinessClass: "GENERAL",
		Garage:        model.Address{Street: "1 Port Rd", City: "Tampa", State: "FL", Zip: "33602"},
	}
}

func testPolicy() model.Policy {
	return model.Policy{
		InsuredName:    "Acme Freight LLC",
		Address:        model.Address{Street: "1 Port Rd", City: "Tampa", State: "FL", Zip: "33602"},
		EffectiveDate:  day(2025, time.March, 1),
		ExpirationDate: day(2026, time.March, 1),
		Vehicles:       []model.Vehicle{testVehicle()},
		Drivers:        []model.Driver{testDriver()},
		Selection:      model.ALSelection{Limit: "1000000/2000000", RadiusBucket: "0-50"},
	}
}
