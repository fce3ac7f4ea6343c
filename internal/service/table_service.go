package service

import (
	"alrater/internal/model"
)

// --- DTOs ---

type EditionResponse struct {
	EditionCode   string         `json:"edition_code"`
	EffectiveDate string         `json:"effective_date"`
	Source        string         `json:"source,omitempty"`
	Fingerprint   string         `json:"fingerprint,omitempty"`
	States        []StatePlan    `json:"states"`
	ProgramCounts map[string]int `json:"program_counts"`
	SkippedRows   map[string]int `json:"skipped_rows"`
	TotalSkipped  int            `json:"total_skipped"`
}

type StatePlan struct {
	State   string `json:"state"`
	Program string `json:"program"`
}

type TaxConfigResponse struct {
	State          string          `json:"state"`
	SLTRate        string          `json:"slt_rate"`
	StampRate      string          `json:"stamp_rate"`
	FireMarshalFee string          `json:"fire_marshal_fee"`
	OtherFees      string          `json:"other_fees"`
	TaxableFees    map[string]bool `json:"taxable_fees"`
	Admitted       bool            `json:"admitted"`
}

// --- Interface ---

// TableService describes the reference data loaded at startup.
type TableService interface {
	Edition() EditionResponse
	TaxConfigs() []TaxConfigResponse
}

type tableService struct {
	tables *model.RatingTables
	taxes  model.TaxConfigStore
}

func NewTableService(tables *model.RatingTables, taxes model.TaxConfigStore) TableService {
	return &tableService{tables: tables, taxes: taxes}
}

// --- Implementation ---

func (s *tableService) Edition() EditionResponse {
	t := s.tables
	res := EditionResponse{
		EditionCode:   t.Edition.Code,
		EffectiveDate: t.Edition.EffectiveDate.Format(model.DateLayout),
		Source:        t.Edition.Source,
		Fingerprint:   t.Edition.Fingerprint,
		States:        make([]StatePlan, 0, len(t.StatePrograms)),
		ProgramCounts: make(map[string]int, 2),
		SkippedRows:   make(map[string]int, len(t.Diagnostics.SkippedRows)),
		TotalSkipped:  t.Diagnostics.TotalSkipped(),
	}
	for _, state := range t.States() {
		res.States = append(res.States, StatePlan{State: state, Program: t.StatePrograms[state].String()})
	}
	for p, n := range t.ProgramCounts() {
		res.ProgramCounts[p.String()] = n
	}
	for k, n := range t.Diagnostics.SkippedRows {
		res.SkippedRows[k] = n
	}
	return res
}

func (s *tableService) TaxConfigs() []TaxConfigResponse {
	states := s.taxes.States()
	res := make([]TaxConfigResponse, 0, len(states))
	for _, state := range states {
		cfg := s.taxes[state]
		mask := make(map[string]bool, len(model.FeeNames))
		for _, fee := range model.FeeNames {
			mask[string(fee)] = cfg.IsFeeTaxable(fee)
		}
		res = append(res, TaxConfigResponse{
			State:          cfg.State,
			SLTRate:        cfg.SLTRate.String(),
			StampRate:      cfg.StampRate.String(),
			FireMarshalFee: cfg.FireMarshalFee.StringFixed(2),
			OtherFees:      cfg.OtherFees.StringFixed(2),
			TaxableFees:    mask,
			Admitted:       cfg.Admitted,
		})
	}
	return res
}
