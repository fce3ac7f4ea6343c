// Package loader builds the rating table and tax configuration stores from
// their Excel workbooks.
package loader

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"alrater/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/blake2b"
)

var macroExtensions = map[string]bool{".xlsm": true, ".xltm": true}

// workbook is an opened source file plus its content fingerprint.
type workbook struct {
	file        *excelize.File
	source      string
	fingerprint string
}

// openWorkbook rejects macro-capable files by extension before reading a
// single byte of them.
func openWorkbook(path string) (*workbook, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if macroExtensions[ext] {
		return nil, apperr.Loadf("macro-enabled workbook detected (%s), only .xlsx files are allowed", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Loadf("workbook not found: %s", path)
		}
		return nil, apperr.Loadf("failed to read workbook %s: %v", path, err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Loadf("failed to open workbook %s: %v", path, err)
	}
	sum := blake2b.Sum256(data)
	return &workbook{
		file:        f,
		source:      filepath.Base(path),
		fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

func (w *workbook) Close() error { return w.file.Close() }

// sheetRows returns raw cell values, so numbers come back unformatted.
func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperr.Loadf("failed to read sheet '%s': %v", sheet, err)
	}
	return rows, nil
}

func hasSheet(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

// cell returns the trimmed value at zero-based col, or "" past the row end.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseDate accepts an Excel serial date or an ISO or US formatted string.
func parseDate(s string) (time.Time, bool) {
	if v, ok := parseNumber(s); ok {
		t, err := excelize.ExcelDateToTime(v, false)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	for _, layout := range []string{"2006-01-02", "01/02/2006", "1/2/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func containsAny(s string, needles ...string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func sectionKey(parts ...string) string {
	return strings.Join(parts, "/")
}

func rowError(sheet string, row int, format string, args ...any) error {
	return apperr.Loadf("sheet '%s' row %d: %s", sheet, row, fmt.Sprintf(format, args...))
}
