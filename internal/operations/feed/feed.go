// Package feed talks to the upstream broker over its WebSocket API and
// exposes the event stream the ingestion pipeline consumes. A Simulator
// implementing the same interface backs demo mode and tests.
package feed

import (
	"context"
	"time"

	"ForexPilot/internal/models"
)

// Client is the broker connection the pipeline consumes. Implementations:
// WSClient (live) and Simulator (demo/tests).
type Client interface {
	// Connect establishes the upstream connection. It returns an error when
	// the feed is unreachable; reconnect policy lives in the pipeline.
	Connect(ctx context.Context) error
	Close() error

	SubscribeTicks(ctx context.Context, symbol string) error
	SubscribeCandles(ctx context.Context, symbol string, granularity time.Duration) error

	// Buy and Sell place live orders and return the broker-confirmed order id.
	Buy(ctx context.Context, req OrderRequest) (string, error)
	Sell(ctx context.Context, req OrderRequest) (string, error)

	// Events yields ticks, candles and connectivity changes in arrival order.
	Events() <-chan Event
}

// OrderRequest are the parameters of a live order.
type OrderRequest struct {
	Symbol string
	Amount float64
	Price  float64
}

// Event is one feed occurrence; exactly one of the concrete types below.
type Event interface{ feedEvent() }

type TickEvent struct {
	Tick models.PriceTick
}

type CandleEvent struct {
	Symbol    string
	TimeFrame string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// ConnectivityEvent reports a feed state change.
type ConnectivityEvent struct {
	Connected bool
	Err       error
}

func (TickEvent) feedEvent()         {}
func (CandleEvent) feedEvent()       {}
func (ConnectivityEvent) feedEvent() {}

// Candle converts the event to the persisted model.
func (e CandleEvent) Candle() models.Candle {
	return models.Candle{
		Symbol:    e.Symbol,
		TimeFrame: e.TimeFrame,
		Timestamp: e.Timestamp,
		Open:      e.Open,
		High:      e.High,
		Low:       e.Low,
		Close:     e.Close,
		Volume:    e.Volume,
	}
}

// GranularityTimeFrame maps a candle granularity to the stored timeframe
// label. Unknown granularities fall back to 5m, the analysis default.
func GranularityTimeFrame(granularity time.Duration) string {
	switch granularity {
	case time.Minute:
		return models.CandleTimeFrame1m
	case 5 * time.Minute:
		return models.CandleTimeFrame5m
	case 15 * time.Minute:
		return models.CandleTimeFrame15m
	case time.Hour:
		return models.CandleTimeFrame1h
	case 4 * time.Hour:
		return models.CandleTimeFrame4h
	case 24 * time.Hour:
		return models.CandleTimeFrame1d
	default:
		return models.CandleTimeFrame5m
	}
}
