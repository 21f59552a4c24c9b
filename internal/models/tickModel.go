package models

import "time"

// PriceTick is a single real-time quote. Ticks are never persisted; the
// ingestion pipeline keeps only the latest one per symbol.
type PriceTick struct {
	Symbol    string
	Price     float64
	Bid       float64
	Ask       float64
	Timestamp time.Time
}
