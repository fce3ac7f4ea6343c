package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionRateQuote         = "RATE_QUOTE"
	ActionDeleteCalculation = "DELETE_CALCULATION"
	ActionExportCalculation = "EXPORT_CALCULATION"
)

// AuditLog tracks what happened to which calculation, and when
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entity_id"`        // calculation uuid
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // insured name
	Details    datatypes.JSON `json:"details"`                                        // serialized payload of the action
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
