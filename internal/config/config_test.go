package config

import (
	"os"
	"path/filepath"
	"testing"

	"alrater/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RATER_DATA_DIR", "")
	t.Setenv("RATER_DB_DRIVER", "")
	t.Setenv("RATER_DB_DSN", "")
	t.Setenv("RATER_HTTP_ADDR", "")
	t.Setenv("RATER_SETTINGS", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, filepath.Join(DefaultDataDir, "calculations.db"), cfg.DBDSN)
	assert.Equal(t, filepath.Join(DefaultDataDir, DefaultRatingFile), cfg.RatingWorkbookPath())
	assert.Equal(t, filepath.Join(DefaultDataDir, DefaultTaxFile), cfg.TaxWorkbookPath())
	assert.Equal(t, DefaultSettings(), cfg.Settings)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RATER_DATA_DIR", "/srv/rater")
	t.Setenv("RATER_DB_DRIVER", "Postgres")
	t.Setenv("RATER_DB_DSN", "postgres://localhost/rater")
	t.Setenv("RATER_HTTP_ADDR", "127.0.0.1:9090")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("RATER_SETTINGS", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/rater", cfg.DBDSN)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTPAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/srv/rater/rating_tables.xlsx", cfg.RatingWorkbookPath())
}

func TestLoadRejectsDriver(t *testing.T) {
	t.Setenv("RATER_SETTINGS", filepath.Join(t.TempDir(), "missing.yaml"))

	t.Setenv("RATER_DB_DRIVER", "mysql")
	_, err := Load()
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	t.Setenv("RATER_DB_DRIVER", "postgres")
	t.Setenv("RATER_DB_DSN", "")
	_, err = Load()
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings([]byte(`
min_premiums:
  policy: 1500
reconciliation_tolerance: 0.25
fees:
  broker: 0
  include_broker: false
workbooks:
  rating: tables_2025.xlsx
`))
	require.NoError(t, err)
	assert.True(t, s.Minimums.Policy.Equal(decimal.NewFromInt(1500)))
	assert.True(t, s.Minimums.PerUnit.Equal(decimal.NewFromInt(500)), "unset keys keep defaults")
	assert.True(t, s.Tolerance.Equal(decimal.RequireFromString("0.25")))
	assert.True(t, s.Fees.Broker.IsZero())
	assert.True(t, s.Fees.UW.Equal(decimal.NewFromInt(75)))
	assert.False(t, s.IncludeBroker)
	assert.Equal(t, "tables_2025.xlsx", s.Workbooks.Rating)
	assert.Equal(t, DefaultTaxFile, s.Workbooks.Taxes)
}

func TestParseSettingsRejectsNegative(t *testing.T) {
	for _, doc := range []string{
		"min_premiums:\n  per_unit: -1\n",
		"fees:\n  uw: -75\n",
		"reconciliation_tolerance: -0.5\n",
	} {
		_, err := ParseSettings([]byte(doc))
		require.Error(t, err, doc)
		assert.ErrorIs(t, err, apperr.ErrConfiguration)
		assert.Contains(t, err.Error(), "cannot be negative")
	}
}

func TestParseSettingsMalformed(t *testing.T) {
	_, err := ParseSettings([]byte("fees: [1, 2"))
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestParseSettingsZeroTolerance(t *testing.T) {
	s, err := ParseSettings([]byte("reconciliation_tolerance: 0\n"))
	require.NoError(t, err)
	assert.True(t, s.Tolerance.IsZero())
}

func TestShippedSettingsMatchDefaults(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "settings.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("settings.yaml not present")
	}
	s, err := LoadSettings(path)
	require.NoError(t, err)
	def := DefaultSettings()
	assert.True(t, def.Minimums.Policy.Equal(s.Minimums.Policy))
	assert.True(t, def.Minimums.PerUnit.Equal(s.Minimums.PerUnit))
	assert.True(t, def.Tolerance.Equal(s.Tolerance))
	assert.True(t, def.Fees.Broker.Equal(s.Fees.Broker))
	assert.Equal(t, def.Workbooks, s.Workbooks)
}
