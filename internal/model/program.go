package model

import (
	"fmt"
	"strings"

	"alrater/internal/apperr"
)

// Program selects one of the two parallel rating rule sets.
type Program string

const (
	ProgramCW Program = "CW"
	ProgramSS Program = "SS"
)

func (p Program) IsValid() bool {
	switch p {
	case ProgramCW, ProgramSS:
		return true
	}
	return false
}

func (p Program) String() string { return string(p) }

// ParseProgram accepts CW or SS in any case and surrounding whitespace.
func ParseProgram(s string) (Program, error) {
	p := Program(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: invalid program %q, must be CW or SS", apperr.ErrValidation, s)
	}
	return p, nil
}

// VehicleClass is the closed set of ratable vehicle classes.
type VehicleClass string

const (
	VehicleClass1 VehicleClass = "Class1"
	VehicleClass6 VehicleClass = "Class6"
	VehicleClass8 VehicleClass = "Class8"
)

// SupportedVehicleClasses lists ratable classes in display order.
var SupportedVehicleClasses = []VehicleClass{VehicleClass1, VehicleClass6, VehicleClass8}

func (c VehicleClass) IsValid() bool {
	switch c {
	case VehicleClass1, VehicleClass6, VehicleClass8:
		return true
	}
	return false
}

func (c VehicleClass) String() string { return string(c) }

// ParseVehicleClass fails for any class outside the supported set. Such a
// vehicle has to go to manual underwriting.
func ParseVehicleClass(s string) (VehicleClass, error) {
	c := VehicleClass(strings.TrimSpace(s))
	if !c.IsValid() {
		return "", UnsupportedVehicleClass(s)
	}
	return c, nil
}

// UnsupportedVehicleClass builds the manual-underwriting error for class.
func UnsupportedVehicleClass(class string) error {
	return &apperr.FactorNotFoundError{
		FactorType: "vehicle_class",
		Key:        class,
		Detail: fmt.Sprintf("unsupported vehicle class: %s. Supported classes: Class1, Class6, Class8. "+
			"Manual underwriting required for this vehicle", class),
	}
}
