// Package metrics exposes prometheus collectors for the ingestion pipeline
// and execution adapter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TicksReceived    *prometheus.CounterVec
	CandlesPersisted *prometheus.CounterVec
	AnalysesRun      *prometheus.CounterVec
	TradesExecuted   *prometheus.CounterVec
	FeedReconnects   prometheus.Counter
	LatestConfidence *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TicksReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forexpilot_ticks_received_total",
			Help: "Ticks received from the feed, by symbol.",
		}, []string{"symbol"}),
		CandlesPersisted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forexpilot_candles_persisted_total",
			Help: "Candles written to the market data store, by symbol.",
		}, []string{"symbol"}),
		AnalysesRun: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forexpilot_analyses_total",
			Help: "Analysis cycles run, by result action.",
		}, []string{"action"}),
		TradesExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forexpilot_trades_executed_total",
			Help: "Trades persisted by the execution adapter, by mode.",
		}, []string{"mode"}),
		FeedReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "forexpilot_feed_reconnects_total",
			Help: "Reconnect attempts against the upstream feed.",
		}),
		LatestConfidence: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "forexpilot_latest_confidence",
			Help: "Confidence of the most recent decision, by symbol.",
		}, []string{"symbol"}),
	}
}
