package models

import (
	"time"
)

// User carries the subset of account state the trading core reads.
// Registration, auth and billing live outside this module.
type User struct {
	ID               uint   `gorm:"primaryKey"`
	Email            string `gorm:"uniqueIndex;not null"`
	SubscriptionTier string `gorm:"index;not null"`
	TradingEnabled   bool   `gorm:"not null"`
	AIEnabled        bool   `gorm:"not null"`
	IsDemo           bool   `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

const (
	TierFree    = "free"
	TierBasic   = "basic"
	TierPremium = "premium"
)
