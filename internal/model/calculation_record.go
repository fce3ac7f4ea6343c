package model

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CalculationRecord is the append-only row persisted for each saved result
type CalculationRecord struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Timestamp            time.Time        `gorm:"not null;index" json:"timestamp"`
	InsuredName          string           `gorm:"type:varchar(255);index" json:"insured_name"`
	State                string           `gorm:"type:varchar(2);index" json:"state"`
	PolicyData           datatypes.JSON   `json:"policy_data"`
	Vehicles             datatypes.JSON   `json:"vehicles"`
	Drivers              datatypes.JSON   `json:"drivers"`
	ALSelection          datatypes.JSON   `json:"al_selection"`
	Factors              datatypes.JSON   `json:"factors"`
	Metadata             datatypes.JSON   `json:"metadata"`
	PremiumSubtotal      decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"premium_subtotal"`
	FeesTotal            decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"fees_total"`
	TaxesTotal           decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"taxes_total"`
	ALTotal              decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"al_total"`
	ReconciliationDelta  *decimal.Decimal `gorm:"type:decimal(14,2)" json:"reconciliation_delta"`
	ReconciliationStatus string           `gorm:"type:varchar(20);index" json:"reconciliation_status"`
	CreatedAt            time.Time        `gorm:"index" json:"created_at"`
}

func (CalculationRecord) TableName() string { return "calculations" }

func (r *CalculationRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NewCalculationRecord snapshots a result into its storage form.
func NewCalculationRecord(res *CalculationResult) (*CalculationRecord, error) {
	rec := &CalculationRecord{
		Timestamp:            res.Timestamp,
		InsuredName:          res.Policy.InsuredName,
		State:                res.Policy.State,
		PremiumSubtotal:      res.PremiumSubtotal,
		FeesTotal:            res.FeesTotal,
		TaxesTotal:           res.TaxesTotal,
		ALTotal:              res.ALTotal,
		ReconciliationDelta:  res.ReconciliationDelta,
		ReconciliationStatus: string(res.ReconciliationStatus),
	}
	if res.ID != "" {
		id, err := uuid.Parse(res.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid calculation id: %w", err)
		}
		rec.ID = id
	}
	columns := []struct {
		dst *datatypes.JSON
		src any
	}{
		{&rec.PolicyData, res.Policy},
		{&rec.Vehicles, res.Vehicles},
		{&rec.Drivers, res.Drivers},
		{&rec.ALSelection, res.Selection},
		{&rec.Factors, res.Factors},
		{&rec.Metadata, res.Metadata},
	}
	for _, c := range columns {
		b, err := json.Marshal(c.src)
		if err != nil {
			return nil, fmt.Errorf("failed to encode calculation snapshot: %w", err)
		}
		*c.dst = datatypes.JSON(b)
	}
	return rec, nil
}

// ToResult rebuilds the result through NewCalculationResult so a corrupted
// row fails the same invariant a fresh run would.
func (r *CalculationRecord) ToResult(tolerance decimal.Decimal) (*CalculationResult, error) {
	in := CalculationInput{
		Timestamp:           r.Timestamp,
		PremiumSubtotal:     r.PremiumSubtotal,
		FeesTotal:           r.FeesTotal,
		TaxesTotal:          r.TaxesTotal,
		ALTotal:             r.ALTotal,
		ReconciliationDelta: r.ReconciliationDelta,
		Tolerance:           tolerance,
	}
	columns := []struct {
		name string
		src  datatypes.JSON
		dst  any
	}{
		{"policy_data", r.PolicyData, &in.Policy},
		{"vehicles", r.Vehicles, &in.Vehicles},
		{"drivers", r.Drivers, &in.Drivers},
		{"al_selection", r.ALSelection, &in.Selection},
		{"factors", r.Factors, &in.Factors},
		{"metadata", r.Metadata, &in.Metadata},
	}
	for _, c := range columns {
		if len(c.src) == 0 {
			continue
		}
		if err := json.Unmarshal(c.src, c.dst); err != nil {
			return nil, fmt.Errorf("failed to decode %s column: %w", c.name, err)
		}
	}
	res, err := NewCalculationResult(in)
	if err != nil {
		return nil, err
	}
	res.ID = r.ID.String()
	return res, nil
}
