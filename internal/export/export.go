// Package export writes calculation results to JSON files and reads them back.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"alrater/internal/apperr"
	"alrater/internal/model"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const (
	DefaultPrefix   = "calculation"
	timestampLayout = "20060102_150405"
)

// requiredKeys must be present in an imported result file.
var requiredKeys = []string{
	"policy", "vehicles", "drivers", "al_selection", "factors",
	"premium_subtotal", "fees_total", "taxes_total", "al_total",
}

// Encode renders a full result, indented when pretty is set.
func Encode(res *model.CalculationResult, pretty bool) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(res, "", "  ")
	} else {
		b, err = json.Marshal(res)
	}
	if err != nil {
		return nil, apperr.Exportf("failed to serialize calculation to JSON: %v", err)
	}
	return b, nil
}

// WriteJSON writes the full result to path, creating parent directories.
func WriteJSON(res *model.CalculationResult, path string, pretty bool) error {
	b, err := Encode(res, pretty)
	if err != nil {
		return err
	}
	return writeFile(path, b)
}

// WriteTimestamped writes the result into dir as calculation_YYYYMMDD_HHMMSS.json
// and returns the file path.
func WriteTimestamped(res *model.CalculationResult, dir string) (string, error) {
	return writeTimestamped(res, dir, DefaultPrefix, time.Now())
}

func writeTimestamped(res *model.CalculationResult, dir, prefix string, now time.Time) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", prefix, now.Format(timestampLayout)))
	if err := WriteJSON(res, path, true); err != nil {
		return "", err
	}
	return path, nil
}

// Summary is the compact export: key results without the factor trail.
type Summary struct {
	ID             string                `json:"id,omitempty"`
	Timestamp      time.Time             `json:"timestamp"`
	Policy         SummaryPolicy         `json:"policy"`
	VehicleCount   int                   `json:"vehicle_count"`
	DriverCount    int                   `json:"driver_count"`
	Limit          string                `json:"limit"`
	Program        string                `json:"program"`
	Results        SummaryResults        `json:"results"`
	Reconciliation SummaryReconciliation `json:"reconciliation"`
}

type SummaryPolicy struct {
	InsuredName   string `json:"insured_name"`
	State         string `json:"state"`
	EffectiveDate string `json:"effective_date"`
}

type SummaryResults struct {
	PremiumSubtotal decimal.Decimal `json:"premium_subtotal"`
	FeesTotal       decimal.Decimal `json:"fees_total"`
	TaxesTotal      decimal.Decimal `json:"taxes_total"`
	ALTotal         decimal.Decimal `json:"al_total"`
}

type SummaryReconciliation struct {
	Status model.ReconciliationStatus `json:"status"`
	Delta  *decimal.Decimal           `json:"delta"`
}

// SummaryOf builds the compact view of res.
func SummaryOf(res *model.CalculationResult) Summary {
	return Summary{
		ID:        res.ID,
		Timestamp: res.Timestamp,
		Policy: SummaryPolicy{
			InsuredName:   res.Policy.InsuredName,
			State:         res.Policy.State,
			EffectiveDate: res.Policy.EffectiveDate,
		},
		VehicleCount: len(res.Vehicles),
		DriverCount:  len(res.Drivers),
		Limit:        res.Selection.Limit,
		Program:      res.Metadata[model.MetaProgram],
		Results: SummaryResults{
			PremiumSubtotal: res.PremiumSubtotal,
			FeesTotal:       res.FeesTotal,
			TaxesTotal:      res.TaxesTotal,
			ALTotal:         res.ALTotal,
		},
		Reconciliation: SummaryReconciliation{
			Status: res.ReconciliationStatus,
			Delta:  res.ReconciliationDelta,
		},
	}
}

// EncodeSummary renders the compact export of res.
func EncodeSummary(res *model.CalculationResult) ([]byte, error) {
	b, err := json.MarshalIndent(SummaryOf(res), "", "  ")
	if err != nil {
		return nil, apperr.Exportf("failed to serialize summary to JSON: %v", err)
	}
	return b, nil
}

// WriteSummary writes the compact export of res to path.
func WriteSummary(res *model.CalculationResult, path string) error {
	b, err := EncodeSummary(res)
	if err != nil {
		return err
	}
	return writeFile(path, b)
}

// FileName is the timestamped export name for a result created at ts.
func FileName(ts time.Time) string {
	return fmt.Sprintf("%s_%s.json", DefaultPrefix, ts.Format(timestampLayout))
}

// Batch is the envelope of a multi-result export.
type Batch struct {
	Count        int                        `json:"count"`
	ExportedAt   time.Time                  `json:"exported_at"`
	Calculations []*model.CalculationResult `json:"calculations"`
}

// WriteBatch writes every result into one file.
func WriteBatch(results []*model.CalculationResult, path string, pretty bool) error {
	batch := Batch{Count: len(results), ExportedAt: time.Now(), Calculations: results}
	if batch.Calculations == nil {
		batch.Calculations = []*model.CalculationResult{}
	}
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(batch, "", "  ")
	} else {
		b, err = json.Marshal(batch)
	}
	if err != nil {
		return apperr.Exportf("failed to serialize calculations to JSON: %v", err)
	}
	return writeFile(path, b)
}

// Decode parses a full result export and re-checks the total invariant.
func Decode(data []byte, tolerance decimal.Decimal) (*model.CalculationResult, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, apperr.Exportf("invalid JSON format: %v", err)
	}
	for _, k := range requiredKeys {
		if _, ok := keys[k]; !ok {
			return nil, apperr.Exportf("invalid JSON format: missing %q", k)
		}
	}
	var doc model.CalculationResult
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperr.Exportf("invalid JSON format: %v", err)
	}
	res, err := model.NewCalculationResult(model.CalculationInput{
		Timestamp:           doc.Timestamp,
		Policy:              doc.Policy,
		Vehicles:            doc.Vehicles,
		Drivers:             doc.Drivers,
		Selection:           doc.Selection,
		Factors:             doc.Factors,
		PremiumSubtotal:     doc.PremiumSubtotal,
		FeesTotal:           doc.FeesTotal,
		TaxesTotal:          doc.TaxesTotal,
		ALTotal:             doc.ALTotal,
		ReconciliationDelta: doc.ReconciliationDelta,
		Tolerance:           tolerance,
		Metadata:            doc.Metadata,
	})
	if err != nil {
		return nil, apperr.Exportf("invalid calculation: %v", err)
	}
	res.ID = doc.ID
	return res, nil
}

// ReadJSON loads a result previously written by WriteJSON.
func ReadJSON(path string, tolerance decimal.Decimal) (*model.CalculationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.Exportf("JSON file not found: %s", path)
		}
		return nil, apperr.Exportf("failed to read JSON file: %v", err)
	}
	return Decode(data, tolerance)
}

// ValidateFile reports whether path holds an importable result.
func ValidateFile(path string) bool {
	_, err := ReadJSON(path, model.DefaultTolerance)
	return err == nil
}

// FileMetadata is the header of an export file.
type FileMetadata struct {
	ID                   string `json:"id"`
	Timestamp            string `json:"timestamp"`
	InsuredName          string `json:"insured_name"`
	ALTotal              string `json:"al_total"`
	ReconciliationStatus string `json:"reconciliation_status"`
}

// ReadMetadata extracts the header without validating the whole result. It
// returns nil metadata for files that are not JSON objects.
func ReadMetadata(path string) (*FileMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.Exportf("JSON file not found: %s", path)
		}
		return nil, apperr.Exportf("failed to read JSON file: %v", err)
	}
	var doc struct {
		ID        string `json:"id"`
		Timestamp string `json:"timestamp"`
		Policy    struct {
			InsuredName string `json:"insured_name"`
		} `json:"policy"`
		ALTotal              decimal.NullDecimal `json:"al_total"`
		ReconciliationStatus string              `json:"reconciliation_status"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil
	}
	md := &FileMetadata{
		ID:                   doc.ID,
		Timestamp:            doc.Timestamp,
		InsuredName:          doc.Policy.InsuredName,
		ReconciliationStatus: doc.ReconciliationStatus,
	}
	if doc.ALTotal.Valid {
		md.ALTotal = doc.ALTotal.Decimal.StringFixed(2)
	}
	return md, nil
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Exportf("failed to create export directory: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return apperr.Exportf("failed to write JSON file: %v", err)
	}
	return nil
}
