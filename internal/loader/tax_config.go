package loader

import (
	"log/slog"
	"strings"

	"alrater/internal/apperr"
	"alrater/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Header candidates per column, tried in order. The first candidate that is
// a substring of any header wins.
var (
	colState       = []string{"state"}
	colSLT         = []string{"slt", "surplus lines tax", "surplus"}
	colStamp       = []string{"stamp", "stamping"}
	colFireMarshal = []string{"fire", "marshal"}
	colOther       = []string{"other", "additional"}
	colPolicyFee   = []string{"policy fee taxable", "policy"}
	colUWFee       = []string{"uw fee taxable", "uw", "underwriting"}
	colBrokerFee   = []string{"broker fee taxable", "broker"}
	colAdmitted    = []string{"admitted", "admit"}
)

type headerMap struct {
	names []string
	cols  []int
}

// find returns the zero-based column of the first matching header, or -1.
func (h headerMap) find(candidates []string) int {
	for _, c := range candidates {
		for i, name := range h.names {
			if strings.Contains(name, c) {
				return h.cols[i]
			}
		}
	}
	return -1
}

// LoadTaxConfig reads the state tax workbook at path.
func LoadTaxConfig(path string) (model.TaxConfigStore, error) {
	wb, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = wb.Close() }()
	return LoadTaxConfigFrom(wb.file)
}

// LoadTaxConfigFrom parses the first sheet named like tax, fee or state,
// falling back to the first sheet.
func LoadTaxConfigFrom(f *excelize.File) (model.TaxConfigStore, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Loadf("no sheets found in tax configuration workbook")
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if containsAny(s, "tax", "fee", "state") {
			sheet = s
			break
		}
	}
	rows, err := sheetRows(f, sheet)
	if err != nil {
		return nil, err
	}
	return parseTaxRows(sheet, rows)
}

func parseTaxRows(sheet string, rows [][]string) (model.TaxConfigStore, error) {
	header := -1
	var hm headerMap
	for r := 0; r < 10 && r < len(rows); r++ {
		if !containsAny(cell(rows[r], 0), "state") {
			continue
		}
		header = r
		for c := range rows[r] {
			if name := strings.ToLower(cell(rows[r], c)); name != "" {
				hm.names = append(hm.names, name)
				hm.cols = append(hm.cols, c)
			}
		}
		break
	}
	if header < 0 || len(hm.names) == 0 {
		return nil, apperr.Loadf("could not find valid header row in tax configuration sheet '%s'", sheet)
	}
	for _, required := range []string{"state", "slt", "stamp"} {
		if hm.find([]string{required}) < 0 {
			return nil, apperr.Loadf("required column '%s' not found in tax configuration sheet", required)
		}
	}

	stateCol := hm.find(colState)
	sltCol, stampCol := hm.find(colSLT), hm.find(colStamp)
	fireCol, otherCol := hm.find(colFireMarshal), hm.find(colOther)
	policyCol, uwCol, brokerCol := hm.find(colPolicyFee), hm.find(colUWFee), hm.find(colBrokerFee)
	admittedCol := hm.find(colAdmitted)

	configs := make(model.TaxConfigStore)
	for r := header + 1; r < len(rows); r++ {
		row := rows[r]
		state := strings.ToUpper(cell(row, stateCol))
		if state == "" {
			continue
		}
		if len(state) != 2 {
			slog.Debug("skipped tax row with invalid state", "sheet", sheet, "row", r+1, "state", state)
			continue
		}
		cfg, err := model.NewStateTaxConfig(model.StateTaxConfig{
			State:          state,
			SLTRate:        parsePercentage(cell(row, sltCol)),
			StampRate:      parsePercentage(cell(row, stampCol)),
			FireMarshalFee: parseDollarAmount(cell(row, fireCol)),
			OtherFees:      parseDollarAmount(cell(row, otherCol)),
			TaxableFees: map[model.FeeName]bool{
				model.FeePolicy: parseBool(cell(row, policyCol), true),
				model.FeeUW:     parseBool(cell(row, uwCol), true),
				model.FeeBroker: parseBool(cell(row, brokerCol), true),
			},
			Admitted: parseBool(cell(row, admittedCol), false),
		})
		if err != nil {
			return nil, apperr.Loadf("invalid tax configuration for state %s: %v", state, err)
		}
		configs[state] = cfg
	}
	if len(configs) == 0 {
		return nil, apperr.Loadf("no valid tax configurations found in workbook")
	}
	return configs, nil
}

var hundred = decimal.NewFromInt(100)

// parsePercentage reads 0.035, 3.5 and "3.5%" alike as 0.035. Unparseable
// cells read as zero.
func parsePercentage(s string) decimal.Decimal {
	d, ok := parseDecimal(strings.TrimSpace(strings.ReplaceAll(s, "%", "")))
	if !ok {
		return decimal.Zero
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return d.Div(hundred)
	}
	return d
}

// parseDollarAmount strips currency symbols and thousands separators.
func parseDollarAmount(s string) decimal.Decimal {
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	d, ok := parseDecimal(strings.TrimSpace(s))
	if !ok {
		return decimal.Zero
	}
	return d
}

func parseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "t", "1":
		return true
	case "no", "n", "false", "f", "0":
		return false
	}
	if v, ok := parseNumber(s); ok {
		return v != 0
	}
	return def
}
