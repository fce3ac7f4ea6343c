package model

import (
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type Vehicle struct {
	VIN           string       `json:"vin"`
	Year          int          `json:"year"`
	MakeModel     string       `json:"make_model"`
	Class         VehicleClass `json:"vehicle_class"`
	BodyType      string       `json:"body_type"`
	BusinessClass string       `json:"business_class"`
	Garage        Address      `json:"garage"`
}

type Driver struct {
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	LicenseState    string    `json:"license_state"`
	LicenseNo       string    `json:"license_no"`
	DOB             time.Time `json:"dob"`
	YearsExp        float64   `json:"years_exp"`
	Accidents       int       `json:"accidents"`
	Violations      int       `json:"violations"`
	Suspensions     int       `json:"suspensions"`
	MajorViolations int       `json:"major_violations"`
	Excluded        bool      `json:"excluded"`
}

// Age returns whole years as of asOf, one less when the birthday has not
// yet come around in asOf's year.
func (d Driver) Age(asOf time.Time) int {
	age := asOf.Year() - d.DOB.Year()
	if asOf.Month() < d.DOB.Month() || (asOf.Month() == d.DOB.Month() && asOf.Day() < d.DOB.Day()) {
		age--
	}
	return age
}

// TotalMVRIncidents sums the four incident counters.
func (d Driver) TotalMVRIncidents() int {
	return d.Accidents + d.Violations + d.Suspensions + d.MajorViolations
}

func (d Driver) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// ALSelection holds the auto liability coverage choices. An empty
// ProgramOverride or RadiusBucket means none was given.
type ALSelection struct {
	Limit           string  `json:"limit"`
	ProgramOverride Program `json:"program_override,omitempty"`
	RadiusBucket    string  `json:"radius_bucket,omitempty"`
}

// Policy is the fully materialized input of one rating run. Callers must
// not mutate it while a run is in flight.
type Policy struct {
	InsuredName    string      `json:"insured_name"`
	Address        Address     `json:"address"`
	EffectiveDate  time.Time   `json:"effective_date"`
	ExpirationDate time.Time   `json:"expiration_date"`
	Vehicles       []Vehicle   `json:"vehicles"`
	Drivers        []Driver    `json:"drivers"`
	Selection      ALSelection `json:"al_selection"`
}

// State returns the upper-cased rating state.
func (p Policy) State() string {
	return strings.ToUpper(strings.TrimSpace(p.Address.State))
}

// EligibleDrivers returns the drivers that are not excluded, in order.
func (p Policy) EligibleDrivers() []Driver {
	out := make([]Driver, 0, len(p.Drivers))
	for _, d := range p.Drivers {
		if !d.Excluded {
			out = append(out, d)
		}
	}
	return out
}
