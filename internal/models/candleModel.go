package models

import (
	"time"
)

type Candle struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"index:idx_candle_key,unique;not null"`
	TimeFrame string    `gorm:"index:idx_candle_key,unique;not null"`
	Timestamp time.Time `gorm:"index:idx_candle_key,unique;not null"`
	Open      float64   `gorm:"type:decimal(20,8)"`
	High      float64   `gorm:"type:decimal(20,8)"`
	Low       float64   `gorm:"type:decimal(20,8)"`
	Close     float64   `gorm:"type:decimal(20,8)"`
	Volume    float64   `gorm:"type:decimal(20,8)"`
}

const (
	CandleTimeFrame1m  = "1m"
	CandleTimeFrame5m  = "5m"
	CandleTimeFrame15m = "15m"
	CandleTimeFrame1h  = "1h"
	CandleTimeFrame4h  = "4h"
	CandleTimeFrame1d  = "1d"
)

// TableName sets the table name for Candle model
func (Candle) TableName() string {
	return "candles"
}

// ValidTimeFrame reports whether tf is one of the supported candle buckets.
func ValidTimeFrame(tf string) bool {
	switch tf {
	case CandleTimeFrame1m, CandleTimeFrame5m, CandleTimeFrame15m,
		CandleTimeFrame1h, CandleTimeFrame4h, CandleTimeFrame1d:
		return true
	}
	return false
}
