// Package intake turns the structured policy JSON produced by the document
// parser into a model.Policy.
package intake

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"alrater/internal/apperr"
	"alrater/internal/model"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
)

//go:embed policy.schema.json
var policySchema []byte

const schemaURL = "https://alrater.local/schemas/policy.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	if err := c.AddResource(schemaURL, bytes.NewReader(policySchema)); err != nil {
		return nil, fmt.Errorf("policy schema load failed: %w", err)
	}
	return c.Compile(schemaURL)
})

// Submission is a decoded policy plus the reconciliation inputs that travel
// with it.
type Submission struct {
	Policy         model.Policy
	PrintedTotal   *decimal.Decimal
	SourceDocument string
}

type addressDoc struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type vehicleDoc struct {
	VIN           string     `json:"vin"`
	Year          int        `json:"year"`
	MakeModel     string     `json:"make_model"`
	VehicleClass  string     `json:"vehicle_class"`
	BodyType      string     `json:"body_type"`
	BusinessClass string     `json:"business_class"`
	Garage        addressDoc `json:"garage"`
}

type driverDoc struct {
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	LicenseState    string  `json:"license_state"`
	LicenseNo       string  `json:"license_no"`
	DOB             string  `json:"dob"`
	YearsExp        float64 `json:"years_exp"`
	Accidents       int     `json:"accidents"`
	Violations      int     `json:"violations"`
	Suspensions     int     `json:"suspensions"`
	MajorViolations int     `json:"major_violations"`
	Excluded        bool    `json:"excluded"`
}

type selectionDoc struct {
	Limit           string  `json:"limit"`
	ProgramOverride *string `json:"program_override"`
	RadiusBucket    *string `json:"radius_bucket"`
}

// PolicyDocument is the wire format of a structured quote.
type PolicyDocument struct {
	InsuredName    string           `json:"insured_name"`
	Address        addressDoc       `json:"address"`
	EffectiveDate  string           `json:"effective_date"`
	ExpirationDate string           `json:"expiration_date"`
	Vehicles       []vehicleDoc     `json:"vehicles"`
	Drivers        []driverDoc      `json:"drivers"`
	Selection      selectionDoc     `json:"al_selection"`
	PrintedTotal   *decimal.Decimal `json:"printed_total"`
	SourceDocument string           `json:"source_document"`
}

// ReadFile decodes the policy file at path.
func ReadFile(path string) (*Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	sub, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if sub.SourceDocument == "" {
		sub.SourceDocument = path
	}
	return sub, nil
}

// DecodeReader is Decode over a stream.
func DecodeReader(r io.Reader) (*Submission, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}
	return Decode(data)
}

// Decode validates data against the policy schema and converts it. Unsupported
// vehicle classes fail with the manual-underwriting error.
func Decode(data []byte) (*Submission, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperr.NewValidation([]string{"policy is not valid JSON: " + err.Error()})
	}
	if err := schema.Validate(raw); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, apperr.NewValidation(schemaIssues(verr))
		}
		return nil, fmt.Errorf("policy schema validation failed: %w", err)
	}

	var doc PolicyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperr.NewValidation([]string{"policy does not match expected shape: " + err.Error()})
	}
	return doc.toSubmission()
}

func (d PolicyDocument) toSubmission() (*Submission, error) {
	var issues []string
	parse := func(field, value string) time.Time {
		t, err := time.Parse(model.DateLayout, value)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s must be YYYY-MM-DD, got %q", field, value))
		}
		return t
	}

	p := model.Policy{
		InsuredName:    strings.TrimSpace(d.InsuredName),
		Address:        d.Address.toModel(),
		EffectiveDate:  parse("effective_date", d.EffectiveDate),
		ExpirationDate: parse("expiration_date", d.ExpirationDate),
		Selection:      model.ALSelection{Limit: strings.TrimSpace(d.Selection.Limit)},
	}

	maxYear := time.Now().Year() + 2
	for i, v := range d.Vehicles {
		class, err := model.ParseVehicleClass(v.VehicleClass)
		if err != nil {
			return nil, fmt.Errorf("vehicle %d: %w", i, err)
		}
		if v.Year > maxYear {
			issues = append(issues, fmt.Sprintf("vehicle %d: invalid model year %d", i, v.Year))
		}
		p.Vehicles = append(p.Vehicles, model.Vehicle{
			VIN:           strings.ToUpper(strings.TrimSpace(v.VIN)),
			Year:          v.Year,
			MakeModel:     v.MakeModel,
			Class:         class,
			BodyType:      strings.TrimSpace(v.BodyType),
			BusinessClass: strings.TrimSpace(v.BusinessClass),
			Garage:        v.Garage.toModel(),
		})
	}
	for i, dr := range d.Drivers {
		p.Drivers = append(p.Drivers, model.Driver{
			FirstName:       strings.TrimSpace(dr.FirstName),
			LastName:        strings.TrimSpace(dr.LastName),
			LicenseState:    strings.ToUpper(strings.TrimSpace(dr.LicenseState)),
			LicenseNo:       dr.LicenseNo,
			DOB:             parse(fmt.Sprintf("driver %d dob", i), dr.DOB),
			YearsExp:        dr.YearsExp,
			Accidents:       dr.Accidents,
			Violations:      dr.Violations,
			Suspensions:     dr.Suspensions,
			MajorViolations: dr.MajorViolations,
			Excluded:        dr.Excluded,
		})
	}

	if o := d.Selection.ProgramOverride; o != nil && strings.TrimSpace(*o) != "" {
		program, err := model.ParseProgram(*o)
		if err != nil {
			issues = append(issues, err.Error())
		}
		p.Selection.ProgramOverride = program
	}
	if b := d.Selection.RadiusBucket; b != nil {
		p.Selection.RadiusBucket = strings.TrimSpace(*b)
	}

	if err := apperr.NewValidation(issues); err != nil {
		return nil, err
	}
	return &Submission{Policy: p, PrintedTotal: d.PrintedTotal, SourceDocument: d.SourceDocument}, nil
}

func (a addressDoc) toModel() model.Address {
	return model.Address{
		Street: a.Street,
		City:   a.City,
		State:  strings.ToUpper(strings.TrimSpace(a.State)),
		Zip:    strings.TrimSpace(a.Zip),
	}
}

// schemaIssues flattens the validation tree to its leaves.
func schemaIssues(verr *jsonschema.ValidationError) []string {
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	sort.Strings(out)
	return out
}
