package config

import "time"

type Config struct {
	Database DatabaseConfig
	Feed     FeedConfig
	Redis    RedisConfig
	Trading  TradingConfig
	Symbols  []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type FeedConfig struct {
	Endpoint string
	AppID    string
	// Simulated runs the random-walk feed instead of the live broker.
	Simulated bool
}

type RedisConfig struct {
	Addr          string
	Password      string
	ChannelPrefix string
}

// TradingConfig carries every engine and pipeline tunable as an explicit
// named field. Nothing in the scoring or execution path falls back inline.
type TradingConfig struct {
	TimeFrame           string
	HistoryWindow       int
	ConfidenceThreshold float64
	AutoTradeThreshold  float64
	SampleInterval      int
	StopLossATRMult     float64
	TakeProfitATRMult   float64

	DefaultAmount     float64
	FallbackStopPct   float64
	FallbackTargetPct float64

	// DailyTradeCaps maps subscription tier to max auto-trades per day.
	DailyTradeCaps map[string]int

	ReconnectAttempts int
	ReconnectDelay    time.Duration
}
