package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Band is a labeled closed interval. A nil bound is unbounded on that side.
type Band struct {
	Label string   `json:"label"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// Contains reports whether v lies within [Min, Max].
func (b Band) Contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

// AttributeBands groups the band sets used to key the driver factor table.
type AttributeBands struct {
	Age        []Band `json:"age_bands"`
	Experience []Band `json:"experience_bands"`
	MVR        []Band `json:"mvr_bands"`
}

type BaseALKey struct {
	Program Program
	State   string
}

type BodyClassKey struct {
	Program       Program
	BodyType      string
	Class         VehicleClass
	BusinessClass string
}

type RadiusKey struct {
	Program Program
	Bucket  string
}

type DriverKey struct {
	Program Program
	AgeBand string
	ExpBand string
	MVRBand string
}

type LimitKey struct {
	Program Program
	Limit   string
}

// Edition identifies the workbook a table store was built from.
type Edition struct {
	Code          string    `json:"edition_code"`
	EffectiveDate time.Time `json:"effective_date"`
	Source        string    `json:"source,omitempty"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
}

// LoadDiagnostics counts rows dropped during loading, keyed by
// "<program>/<section>" or the sheet name for single-section sheets.
type LoadDiagnostics struct {
	SkippedRows map[string]int `json:"skipped_rows"`
}

func (d *LoadDiagnostics) Skip(section string) {
	if d.SkippedRows == nil {
		d.SkippedRows = make(map[string]int)
	}
	d.SkippedRows[section]++
}

func (d LoadDiagnostics) TotalSkipped() int {
	total := 0
	for _, n := range d.SkippedRows {
		total += n
	}
	return total
}

// RatingTables is the in-memory factor store for one edition. It is built
// once and read concurrently afterwards without locking.
type RatingTables struct {
	Edition       Edition
	StatePrograms map[string]Program
	BaseAL        map[BaseALKey]decimal.Decimal
	BodyClass     map[BodyClassKey]decimal.Decimal
	Radius        map[RadiusKey]decimal.Decimal
	Driver        map[DriverKey]decimal.Decimal
	Limit         map[LimitKey]decimal.Decimal
	Bands         AttributeBands
	Diagnostics   LoadDiagnostics
}

func NewRatingTables() *RatingTables {
	return &RatingTables{
		StatePrograms: make(map[string]Program),
		BaseAL:        make(map[BaseALKey]decimal.Decimal),
		BodyClass:     make(map[BodyClassKey]decimal.Decimal),
		Radius:        make(map[RadiusKey]decimal.Decimal),
		Driver:        make(map[DriverKey]decimal.Decimal),
		Limit:         make(map[LimitKey]decimal.Decimal),
		Diagnostics:   LoadDiagnostics{SkippedRows: make(map[string]int)},
	}
}

// States returns the planned states in lexical order.
func (t *RatingTables) States() []string {
	states := make([]string, 0, len(t.StatePrograms))
	for s := range t.StatePrograms {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

// ProgramCounts returns how many states are planned under each program.
func (t *RatingTables) ProgramCounts() map[Program]int {
	counts := make(map[Program]int, 2)
	for _, p := range t.StatePrograms {
		counts[p]++
	}
	return counts
}
