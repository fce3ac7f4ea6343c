// Package config reads process settings from the environment and rating
// settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"alrater/internal/apperr"
	"alrater/internal/model"
	"alrater/internal/rating"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultHTTPAddr     = "127.0.0.1:8080"
	DefaultDataDir      = "data"
	DefaultOutputDir    = "exports"
	DefaultSettingsPath = "configs/settings.yaml"
	DefaultRatingFile   = "rating_tables.xlsx"
	DefaultTaxFile      = "state_taxes.xlsx"
	defaultSQLiteDBName = "calculations.db"
)

// Config is the process configuration.
type Config struct {
	DataDir      string
	SettingsPath string
	DBDriver     string
	DBDSN        string
	HTTPAddr     string
	OutputDir    string
	LogLevel     string
	LogFormat    string
	GinMode      string

	Settings Settings
}

// Load reads the environment, then the settings file it names. godotenv is
// applied by the caller before Load.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:      getEnv("RATER_DATA_DIR", DefaultDataDir),
		SettingsPath: getEnv("RATER_SETTINGS", DefaultSettingsPath),
		DBDriver:     strings.ToLower(getEnv("RATER_DB_DRIVER", DriverSQLite)),
		DBDSN:        os.Getenv("RATER_DB_DSN"),
		HTTPAddr:     getEnv("RATER_HTTP_ADDR", DefaultHTTPAddr),
		OutputDir:    getEnv("RATER_OUTPUT_DIR", DefaultOutputDir),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		GinMode:      os.Getenv("GIN_MODE"),
	}

	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DBDSN == "" {
			cfg.DBDSN = filepath.Join(cfg.DataDir, defaultSQLiteDBName)
		}
	case DriverPostgres:
		if cfg.DBDSN == "" {
			return nil, apperr.Configurationf("RATER_DB_DSN is required for the postgres driver")
		}
	default:
		return nil, apperr.Configurationf("unsupported RATER_DB_DRIVER %q, must be sqlite or postgres", cfg.DBDriver)
	}

	settings, err := LoadSettings(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}
	cfg.Settings = settings
	return cfg, nil
}

// RatingWorkbookPath is the rating table workbook inside the data directory.
func (c *Config) RatingWorkbookPath() string {
	return filepath.Join(c.DataDir, c.Settings.Workbooks.Rating)
}

// TaxWorkbookPath is the state tax workbook inside the data directory.
func (c *Config) TaxWorkbookPath() string {
	return filepath.Join(c.DataDir, c.Settings.Workbooks.Taxes)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Settings are the tunable rating parameters.
type Settings struct {
	Minimums      rating.Minimums
	Fees          rating.FeeSchedule
	IncludeBroker bool
	Tolerance     decimal.Decimal
	Workbooks     Workbooks
}

type Workbooks struct {
	Rating string `yaml:"rating"`
	Taxes  string `yaml:"taxes"`
}

// DefaultSettings mirrors the shipped settings.yaml.
func DefaultSettings() Settings {
	return Settings{
		Minimums:      rating.DefaultMinimums(),
		Fees:          rating.DefaultFeeSchedule(),
		IncludeBroker: true,
		Tolerance:     model.DefaultTolerance,
		Workbooks:     Workbooks{Rating: DefaultRatingFile, Taxes: DefaultTaxFile},
	}
}

type settingsFile struct {
	MinPremiums struct {
		Policy  *float64 `yaml:"policy"`
		PerUnit *float64 `yaml:"per_unit"`
	} `yaml:"min_premiums"`
	ReconciliationTolerance *float64 `yaml:"reconciliation_tolerance"`
	Fees                    struct {
		Policy        *float64 `yaml:"policy"`
		UW            *float64 `yaml:"uw"`
		Broker        *float64 `yaml:"broker"`
		IncludeBroker *bool    `yaml:"include_broker"`
	} `yaml:"fees"`
	Workbooks Workbooks `yaml:"workbooks"`
}

// LoadSettings reads path. A missing file yields the defaults; keys absent
// from the file keep their default value.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, apperr.Configurationf("failed to read settings %s: %v", path, err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes YAML settings over the defaults.
func ParseSettings(data []byte) (Settings, error) {
	var f settingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Settings{}, apperr.Configurationf("failed to parse settings: %v", err)
	}

	s := DefaultSettings()
	amounts := []struct {
		name string
		src  *float64
		dst  *decimal.Decimal
	}{
		{"min_premiums.policy", f.MinPremiums.Policy, &s.Minimums.Policy},
		{"min_premiums.per_unit", f.MinPremiums.PerUnit, &s.Minimums.PerUnit},
		{"reconciliation_tolerance", f.ReconciliationTolerance, &s.Tolerance},
		{"fees.policy", f.Fees.Policy, &s.Fees.Policy},
		{"fees.uw", f.Fees.UW, &s.Fees.UW},
		{"fees.broker", f.Fees.Broker, &s.Fees.Broker},
	}
	for _, a := range amounts {
		if a.src == nil {
			continue
		}
		if *a.src < 0 {
			return Settings{}, apperr.Configurationf("%s cannot be negative, got %v", a.name, *a.src)
		}
		*a.dst = decimal.NewFromFloat(*a.src)
	}
	if f.Fees.IncludeBroker != nil {
		s.IncludeBroker = *f.Fees.IncludeBroker
	}
	if f.Workbooks.Rating != "" {
		s.Workbooks.Rating = f.Workbooks.Rating
	}
	if f.Workbooks.Taxes != "" {
		s.Workbooks.Taxes = f.Workbooks.Taxes
	}
	return s, nil
}

// String renders the settings for the tables command.
func (s Settings) String() string {
	return fmt.Sprintf("minimums policy=%s per_unit=%s; fees policy=%s uw=%s broker=%s (include_broker=%t); tolerance=%s",
		s.Minimums.Policy, s.Minimums.PerUnit, s.Fees.Policy, s.Fees.UW, s.Fees.Broker, s.IncludeBroker, s.Tolerance)
}
