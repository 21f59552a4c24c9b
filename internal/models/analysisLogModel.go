package models

import (
	"time"
)

// AnalysisLog is an append-only record of one decision-engine run.
// Rows are never updated after insert.
type AnalysisLog struct {
	ID         uint      `gorm:"primaryKey"`
	Symbol     string    `gorm:"index;not null"`
	Action     string    `gorm:"not null"`
	Confidence float64   `gorm:"type:decimal(20,8);not null"`
	Decision   string    `gorm:"type:text"` // JSON-encoded Decision payload
	Timestamp  time.Time `gorm:"index;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName sets the table name for AnalysisLog model
func (AnalysisLog) TableName() string {
	return "analysis_logs"
}
