package main

import (
	"fmt"
	"io"
	"log/slog"

	"alrater/internal/apperr"
	"alrater/internal/config"
	"alrater/internal/database"
	"alrater/internal/loader"
	"alrater/internal/logging"
	"alrater/internal/metrics"
	"alrater/internal/model"
	"alrater/internal/rating"
	"alrater/internal/repository"
	"alrater/internal/service"
	"alrater/internal/websocket"

	"gorm.io/gorm"
)

// loadReferenceData reads the rating and tax workbooks named by cfg.
var loadReferenceData = func(cfg *config.Config) (*model.RatingTables, model.TaxConfigStore, error) {
	tables, err := loader.LoadRatingTables(cfg.RatingWorkbookPath())
	if err != nil {
		return nil, nil, err
	}
	taxes, err := loader.LoadTaxConfig(cfg.TaxWorkbookPath())
	if err != nil {
		return nil, nil, err
	}
	return tables, taxes, nil
}

// app wires the rating stack for one command.
type app struct {
	cfg    *config.Config
	tables *model.RatingTables
	taxes  model.TaxConfigStore

	db      *gorm.DB
	metrics *metrics.Metrics
	hub     *websocket.Hub

	quotes service.QuoteService
	calcs  service.CalculationService
	tabs   service.TableService
	audits service.AuditService
}

type bootOptions struct {
	// store opens the calculation database.
	store bool
	// logOut receives logs; nil means stdout.
	logOut io.Writer
}

func bootstrap(opts bootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.logOut != nil {
		slog.SetDefault(logging.New(opts.logOut, cfg.LogLevel, cfg.LogFormat))
	} else {
		logging.Init(cfg.LogLevel, cfg.LogFormat)
	}

	tables, taxes, err := loadReferenceData(cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("rating tables loaded",
		"edition", tables.Edition.Code,
		"states", len(tables.StatePrograms),
		"programs", tables.ProgramCounts(),
		"skipped_rows", tables.Diagnostics.TotalSkipped(),
		"tax_states", len(taxes),
	)
	for section, n := range tables.Diagnostics.SkippedRows {
		slog.Warn("rows skipped while loading rating tables", "section", section, "count", n)
	}

	a := &app{
		cfg:     cfg,
		tables:  tables,
		taxes:   taxes,
		metrics: metrics.New(),
		hub:     websocket.NewHub(),
		tabs:    service.NewTableService(tables, taxes),
	}

	var (
		calcRepo  repository.CalculationRepository
		auditRepo repository.AuditRepository
	)
	if opts.store {
		db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		calcRepo = repository.NewCalculationRepository(db)
		auditRepo = repository.NewAuditRepository(db)
		a.calcs = service.NewCalculationService(calcRepo, auditRepo, repository.NewTransactionManager(db), a.hub, cfg.Settings.Tolerance)
		a.audits = service.NewAuditService(auditRepo)
	}

	s := cfg.Settings
	engine := rating.NewEngine(rating.NewFactorLookup(tables), s.Minimums)
	a.quotes = service.NewQuoteService(
		engine,
		rating.NewFeeCalculator(s.Fees),
		taxes,
		service.QuoteSettings{IncludeBroker: s.IncludeBroker, Tolerance: s.Tolerance},
		calcRepo, auditRepo, a.hub, a.metrics,
	)
	return a, nil
}

func (a *app) Close() {
	if a.db == nil {
		return
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// fail reports err and returns the exit code for a failed command.
func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	slog.Debug("command failed", "kind", apperr.Kind(err))
	return 1
}
