package export

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"alrater/internal/apperr"
	"alrater/internal/model"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleResult(t *testing.T) *model.CalculationResult {
	t.Helper()
	delta := dec("-0.30")
	res, err := model.NewCalculationResult(model.CalculationInput{
		Timestamp: time.Date(2025, time.March, 1, 14, 30, 22, 0, time.UTC),
		Policy: model.PolicySummary{
			InsuredName:    "Acme Freight",
			State:          "FL",
			EffectiveDate:  "2025-03-01",
			ExpirationDate: "2026-03-01",
		},
		Vehicles:  []model.VehicleSummary{{VIN: "1FUJGLDR12LM12345", Class: "Class8"}},
		Drivers:   []model.DriverSummary{{Name: "Jane Doe"}, {Name: "Sam Roe", Excluded: true}},
		Selection: model.SelectionSummary{Limit: "1000000/2000000"},
		Factors: map[string]any{
			model.FactorMinimumApplied:  model.MinimumNone,
			model.FactorPremiumSubtotal: "3105.00",
		},
		PremiumSubtotal:     dec("3105.00"),
		FeesTotal:           dec("225.00"),
		TaxesTotal:          dec("143.44"),
		ALTotal:             dec("3473.44"),
		ReconciliationDelta: &delta,
		Tolerance:           model.DefaultTolerance,
		Metadata:            map[string]string{model.MetaProgram: "CW", model.MetaEditionCode: "2025-01"},
	})
	require.NoError(t, err)
	require.NoError(t, res.AttachID("8f14e45f-ceea-4e7a-9b6f-3c59d8a1b001"))
	return res
}

func TestWriteAndReadJSON(t *testing.T) {
	res := sampleResult(t)
	path := filepath.Join(t.TempDir(), "nested", "calc.json")

	require.NoError(t, WriteJSON(res, path, true))
	assert.True(t, ValidateFile(path))

	back, err := ReadJSON(path, model.DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, res.ID, back.ID)
	assert.Equal(t, res.Policy, back.Policy)
	assert.Equal(t, res.Drivers, back.Drivers)
	assert.True(t, res.ALTotal.Equal(back.ALTotal))
	assert.True(t, res.ReconciliationDelta.Equal(*back.ReconciliationDelta))
	assert.Equal(t, model.StatusMatch, back.ReconciliationStatus)
	assert.True(t, res.Timestamp.Equal(back.Timestamp))
}

func TestWriteTimestamped(t *testing.T) {
	dir := t.TempDir()
	path, err := writeTimestamped(sampleResult(t), dir, DefaultPrefix, time.Date(2025, time.January, 14, 14, 30, 22, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "calculation_20250114_143022.json"), path)

	path, err = WriteTimestamped(sampleResult(t), dir)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`calculation_\d{8}_\d{6}\.json$`), path)
	assert.FileExists(t, path)
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, WriteSummary(sampleResult(t), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 1, got.VehicleCount)
	assert.Equal(t, 2, got.DriverCount)
	assert.Equal(t, "CW", got.Program)
	assert.Equal(t, "FL", got.Policy.State)
	assert.True(t, got.Results.ALTotal.Equal(dec("3473.44")))
	assert.Equal(t, model.StatusMatch, got.Reconciliation.Status)

	assert.False(t, ValidateFile(path), "a summary is not an importable result")
}

func TestWriteBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, WriteBatch([]*model.CalculationResult{sampleResult(t), sampleResult(t)}, path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		Count        int               `json:"count"`
		Calculations []json.RawMessage `json:"calculations"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2, got.Count)
	assert.Len(t, got.Calculations, 2)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, WriteBatch(nil, empty, true))
	data, err = os.ReadFile(empty)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"calculations": []`)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"policy":`},
		{"missing keys", `{"policy": {}}`},
		{"inconsistent total", `{"policy": {}, "vehicles": [], "drivers": [], "al_selection": {}, "factors": {},
			"premium_subtotal": "100", "fees_total": "10", "taxes_total": "1", "al_total": "500"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), model.DefaultTolerance)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrExport)
		})
	}
}

func TestReadJSONMissingFile(t *testing.T) {
	_, err := ReadJSON(filepath.Join(t.TempDir(), "nope.json"), model.DefaultTolerance)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrExport)
	assert.Contains(t, err.Error(), "not found")
	assert.False(t, ValidateFile(filepath.Join(t.TempDir(), "nope.json")))
}

func TestReadMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calc.json")
	require.NoError(t, WriteJSON(sampleResult(t), path, true))

	md, err := ReadMetadata(path)
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "Acme Freight", md.InsuredName)
	assert.Equal(t, "3473.44", md.ALTotal)
	assert.Equal(t, "match", md.ReconciliationStatus)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("[1,2"), 0o600))
	md, err = ReadMetadata(garbage)
	require.NoError(t, err)
	assert.Nil(t, md)

	_, err = ReadMetadata(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, apperr.ErrExport)
}
