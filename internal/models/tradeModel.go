package models

import (
	"time"
)

type Trade struct {
	ID      uint   `gorm:"primaryKey"`
	TradeID string `gorm:"uniqueIndex;not null"`
	UserID  uint   `gorm:"index;not null"`
	Symbol  string `gorm:"index;not null"`
	Type    string `gorm:"not null"`

	EntryPrice float64  `gorm:"type:decimal(20,8);not null"`
	ExitPrice  *float64 `gorm:"type:decimal(20,8)"`
	Amount     float64  `gorm:"type:decimal(20,8);not null"`
	ProfitLoss *float64 `gorm:"type:decimal(20,8)"`

	StopLoss   *float64 `gorm:"type:decimal(20,8)"`
	TakeProfit *float64 `gorm:"type:decimal(20,8)"`

	Status     string  `gorm:"index;not null"`
	IsDemo     bool    `gorm:"not null"`
	Confidence float64 `gorm:"type:decimal(20,8)"`

	// BrokerOrderID is set for live trades only, after broker confirmation.
	BrokerOrderID string `gorm:"index"`

	// DecisionSnapshot is the JSON-encoded Decision that triggered the trade.
	DecisionSnapshot string `gorm:"type:text"`

	OpenedAt time.Time  `gorm:"index;not null"`
	ClosedAt *time.Time `gorm:"index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

const (
	TradeStatusPending   = "pending"
	TradeStatusActive    = "active"
	TradeStatusClosed    = "closed"
	TradeStatusCancelled = "cancelled"

	TradeTypeBuy  = "buy"
	TradeTypeSell = "sell"
)

// TableName sets the table name for Trade model
func (Trade) TableName() string {
	return "trades"
}
