package loader

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"alrater/internal/apperr"
	"alrater/internal/model"
	"alrater/internal/rating"

	"github.com/xuri/excelize/v2"
)

const (
	SheetStatePlan        = "Rating Plan by State"
	SheetSSTables         = "AL SS Tables"
	SheetCWTables         = "AL CW Tables"
	SheetAttributeLookups = "Attribute Lookups"

	DefaultEditionCode = "2025-01"
)

var DefaultEditionDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

type section string

const (
	sectionNone      section = ""
	sectionBaseAL    section = "base_al"
	sectionBodyClass section = "body_class"
	sectionRadius    section = "radius"
	sectionDriver    section = "driver"
	sectionLimit     section = "limit"
)

// LoadRatingTables reads the rating workbook at path.
func LoadRatingTables(path string) (*model.RatingTables, error) {
	wb, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = wb.Close() }()

	tables, err := LoadRatingTablesFrom(wb.file)
	if err != nil {
		return nil, err
	}
	tables.Edition.Source = wb.source
	tables.Edition.Fingerprint = wb.fingerprint
	return tables, nil
}

// LoadRatingTablesFrom builds the table store from an opened workbook. No
// partially built store is returned on error.
func LoadRatingTablesFrom(f *excelize.File) (*model.RatingTables, error) {
	t := model.NewRatingTables()
	t.Edition.Code, t.Edition.EffectiveDate = readEdition(f)

	if err := loadStatePlan(f, t); err != nil {
		return nil, err
	}
	programSheets := []struct {
		sheet   string
		program model.Program
	}{
		{SheetSSTables, model.ProgramSS},
		{SheetCWTables, model.ProgramCW},
	}
	for _, ps := range programSheets {
		if err := loadProgramSheet(f, ps.sheet, ps.program, t); err != nil {
			return nil, err
		}
	}
	bands, err := loadAttributeBands(f)
	if err != nil {
		return nil, err
	}
	t.Bands = bands
	return t, nil
}

// readEdition scans the top-left block of the first sheet for label/value
// pairs. The value is the cell right of the label.
func readEdition(f *excelize.File) (string, time.Time) {
	code, date := DefaultEditionCode, DefaultEditionDate
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return code, date
	}
	rows, err := sheetRows(f, sheets[0])
	if err != nil {
		return code, date
	}
	foundCode, foundDate := false, false
	for r := 0; r < 5 && r < len(rows); r++ {
		for c := 0; c < 3; c++ {
			label := cell(rows[r], c)
			value := cell(rows[r], c+1)
			if label == "" || value == "" {
				continue
			}
			if !foundCode && containsAny(label, "edition", "version") {
				code, foundCode = value, true
			}
			if !foundDate && containsAny(label, "effective", "rate date") {
				if d, ok := parseDate(value); ok {
					date, foundDate = d, true
				}
			}
		}
	}
	return code, date
}

func loadStatePlan(f *excelize.File, t *model.RatingTables) error {
	if !hasSheet(f, SheetStatePlan) {
		return apperr.Loadf("required sheet '%s' not found in workbook", SheetStatePlan)
	}
	rows, err := sheetRows(f, SheetStatePlan)
	if err != nil {
		return err
	}
	header := -1
	for r := 0; r < 10 && r < len(rows); r++ {
		if containsAny(cell(rows[r], 0), "state") {
			header = r
			break
		}
	}
	if header < 0 {
		return apperr.Loadf("could not find header row in '%s' sheet", SheetStatePlan)
	}
	for r := header + 1; r < len(rows); r++ {
		state, program := cell(rows[r], 0), cell(rows[r], 1)
		if state == "" && program == "" {
			continue
		}
		if state == "" || program == "" {
			t.Diagnostics.Skip(SheetStatePlan)
			slog.Debug("skipped state plan row", "row", r+1)
			continue
		}
		state = strings.ToUpper(state)
		if len(state) != 2 {
			return rowError(SheetStatePlan, r+1, "invalid state code: %s", state)
		}
		p, err := model.ParseProgram(program)
		if err != nil {
			return rowError(SheetStatePlan, r+1, "invalid program type: %s, must be CW or SS", program)
		}
		t.StatePrograms[state] = p
	}
	return nil
}

// detectSection matches a section header in the first cell of a row.
func detectSection(first string) section {
	s := strings.ToLower(first)
	switch {
	case strings.Contains(s, "base al"):
		return sectionBaseAL
	case strings.Contains(s, "body") && strings.Contains(s, "class"):
		return sectionBodyClass
	case strings.Contains(s, "radius"):
		return sectionRadius
	case strings.Contains(s, "driver"):
		return sectionDriver
	case strings.Contains(s, "limit"):
		return sectionLimit
	}
	return sectionNone
}

func loadProgramSheet(f *excelize.File, sheet string, program model.Program, t *model.RatingTables) error {
	if !hasSheet(f, sheet) {
		return apperr.Loadf("required sheet '%s' not found in workbook", sheet)
	}
	rows, err := sheetRows(f, sheet)
	if err != nil {
		return err
	}
	current := sectionNone
	for r, row := range rows {
		first := cell(row, 0)
		if first == "" {
			continue
		}
		if s := detectSection(first); s != sectionNone {
			current = s
			continue
		}
		if current == sectionNone {
			continue
		}
		if !parseSectionRow(current, program, row, t) {
			t.Diagnostics.Skip(sectionKey(program.String(), string(current)))
			slog.Debug("skipped table row", "sheet", sheet, "section", current, "row", r+1)
		}
	}
	return nil
}

// parseSectionRow stores one data row and reports whether it was usable.
func parseSectionRow(s section, program model.Program, row []string, t *model.RatingTables) bool {
	switch s {
	case sectionBaseAL:
		state := strings.ToUpper(cell(row, 0))
		premium, ok := parseDecimal(cell(row, 1))
		if !ok || len(state) != 2 {
			return false
		}
		t.BaseAL[model.BaseALKey{Program: program, State: state}] = premium
	case sectionBodyClass:
		body, class, business := cell(row, 0), cell(row, 1), cell(row, 2)
		factor, ok := parseDecimal(cell(row, 3))
		if !ok || body == "" || class == "" || business == "" {
			return false
		}
		key := model.BodyClassKey{Program: program, BodyType: body, Class: model.VehicleClass(class), BusinessClass: business}
		t.BodyClass[key] = factor
	case sectionRadius:
		bucket := cell(row, 0)
		factor, ok := parseDecimal(cell(row, 1))
		if !ok {
			return false
		}
		t.Radius[model.RadiusKey{Program: program, Bucket: bucket}] = factor
	case sectionDriver:
		age, exp, mvr := cell(row, 0), cell(row, 1), cell(row, 2)
		factor, ok := parseDecimal(cell(row, 3))
		if !ok || age == "" || exp == "" || mvr == "" {
			return false
		}
		t.Driver[model.DriverKey{Program: program, AgeBand: age, ExpBand: exp, MVRBand: mvr}] = factor
	case sectionLimit:
		limit := cell(row, 0)
		factor, ok := parseDecimal(cell(row, 1))
		if !ok {
			return false
		}
		t.Limit[model.LimitKey{Program: program, Limit: limit}] = factor
	default:
		return false
	}
	return true
}

var attributeKeywords = []string{"age", "experience", "mvr"}

// loadAttributeBands falls back to the built-in bands when the sheet or any
// individual section is missing.
func loadAttributeBands(f *excelize.File) (model.AttributeBands, error) {
	bands := rating.DefaultBands()
	if !hasSheet(f, SheetAttributeLookups) {
		return bands, nil
	}
	rows, err := sheetRows(f, SheetAttributeLookups)
	if err != nil {
		return model.AttributeBands{}, err
	}
	targets := []struct {
		keyword string
		dst     *[]model.Band
	}{
		{"age", &bands.Age},
		{"experience", &bands.Experience},
		{"mvr", &bands.MVR},
	}
	for _, tg := range targets {
		parsed := parseBandSection(rows, tg.keyword)
		if len(parsed) == 0 {
			continue
		}
		if err := rating.ValidateBands(tg.keyword, parsed); err != nil {
			return model.AttributeBands{}, apperr.Loadf("invalid %s bands in '%s': %v", tg.keyword, SheetAttributeLookups, err)
		}
		*tg.dst = parsed
	}
	return bands, nil
}

// parseBandSection reads Label | Min | Max rows after the first header that
// mentions keyword, up to a blank label or the next section header.
func parseBandSection(rows [][]string, keyword string) []model.Band {
	header := -1
	for r, row := range rows {
		if containsAny(cell(row, 0), keyword) {
			header = r
			break
		}
	}
	if header < 0 {
		return nil
	}
	var out []model.Band
	for _, row := range rows[header+1:] {
		label := cell(row, 0)
		if label == "" {
			break
		}
		minCell, maxCell := cell(row, 1), cell(row, 2)
		if minCell == "" && maxCell == "" && containsAny(label, attributeKeywords...) {
			break
		}
		b := model.Band{Label: label}
		if v, ok := parseNumber(minCell); ok {
			b.Min = &v
		}
		if v, ok := parseNumber(maxCell); ok {
			b.Max = &v
		}
		out = append(out, b)
	}
	return out
}

// Summary renders a short human readable description of the store.
func Summary(t *model.RatingTables) string {
	counts := t.ProgramCounts()
	return fmt.Sprintf("edition %s (%s): %d states (CW %d, SS %d), %d skipped rows",
		t.Edition.Code, t.Edition.EffectiveDate.Format(model.DateLayout), len(t.StatePrograms),
		counts[model.ProgramCW], counts[model.ProgramSS], t.Diagnostics.TotalSkipped())
}
