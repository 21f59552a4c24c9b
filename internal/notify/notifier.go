// Package notify decouples the trading core from any specific outbound
// transport. Publishing is fire-and-forget: the core never depends on
// delivery.
package notify

// Event names emitted by the pipeline and execution adapter.
const (
	EventTickUpdate        = "tick_update"
	EventCandleUpdate      = "candle_update"
	EventAIAnalysis        = "ai_analysis"
	EventAutoTradeExecuted = "auto_trade_executed"
	EventFeedConnectivity  = "feed_connectivity"
)

// Notifier publishes an event with a JSON-serializable payload. Errors are
// handled (logged) by the implementation; callers never see them.
type Notifier interface {
	Publish(event string, payload interface{})
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(string, interface{}) {}
