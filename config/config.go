package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ForexPilot/internal/models"
)

func Load() (*Config, error) {
	// A missing .env is fine; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     envToInt("DB_PORT", 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Feed: FeedConfig{
			Endpoint:  os.Getenv("FEED_ENDPOINT"),
			AppID:     os.Getenv("FEED_APP_ID"),
			Simulated: os.Getenv("FEED_SIMULATED") == "true",
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", "localhost:6379"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			ChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "forexpilot:"),
		},
		Trading: TradingConfig{
			TimeFrame:           getEnv("ANALYSIS_TIMEFRAME", models.CandleTimeFrame5m),
			HistoryWindow:       envToInt("ANALYSIS_HISTORY_WINDOW", 100),
			ConfidenceThreshold: envToFloat("CONFIDENCE_THRESHOLD", 0.75),
			AutoTradeThreshold:  envToFloat("AUTO_TRADE_THRESHOLD", 0.8),
			SampleInterval:      envToInt("CANDLE_SAMPLE_INTERVAL", 5),
			StopLossATRMult:     envToFloat("STOP_LOSS_ATR_MULT", 2),
			TakeProfitATRMult:   envToFloat("TAKE_PROFIT_ATR_MULT", 3),
			DefaultAmount:       envToFloat("DEFAULT_TRADE_AMOUNT", 1000),
			FallbackStopPct:     envToFloat("FALLBACK_STOP_PCT", 0.005),
			FallbackTargetPct:   envToFloat("FALLBACK_TARGET_PCT", 0.01),
			DailyTradeCaps: map[string]int{
				models.TierFree:    envToInt("DAILY_CAP_FREE", 5),
				models.TierBasic:   envToInt("DAILY_CAP_BASIC", 20),
				models.TierPremium: envToInt("DAILY_CAP_PREMIUM", 100),
			},
			ReconnectAttempts: envToInt("FEED_RECONNECT_ATTEMPTS", 5),
			ReconnectDelay:    envToDuration("FEED_RECONNECT_DELAY", 5*time.Second),
		},
		Symbols: getSymbols(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects malformed settings before anything persists or connects.
func (c *Config) Validate() error {
	var problems []string

	t := c.Trading
	if t.ConfidenceThreshold < 0 || t.ConfidenceThreshold > 0.95 {
		problems = append(problems, "CONFIDENCE_THRESHOLD must be in [0, 0.95]")
	}
	if t.AutoTradeThreshold < t.ConfidenceThreshold || t.AutoTradeThreshold > 0.95 {
		problems = append(problems, "AUTO_TRADE_THRESHOLD must be in [CONFIDENCE_THRESHOLD, 0.95]")
	}
	if t.SampleInterval <= 0 {
		problems = append(problems, "CANDLE_SAMPLE_INTERVAL must be > 0")
	}
	if t.StopLossATRMult <= 0 || t.TakeProfitATRMult <= 0 {
		problems = append(problems, "ATR multipliers must be > 0")
	}
	if t.HistoryWindow < 50 {
		problems = append(problems, "ANALYSIS_HISTORY_WINDOW must be >= 50")
	}
	if !models.ValidTimeFrame(t.TimeFrame) {
		problems = append(problems, "ANALYSIS_TIMEFRAME must be one of 1m,5m,15m,1h,4h,1d")
	}
	if t.ReconnectAttempts <= 0 || t.ReconnectDelay <= 0 {
		problems = append(problems, "feed reconnect attempts and delay must be > 0")
	}
	for tier, limit := range t.DailyTradeCaps {
		if limit < 0 {
			problems = append(problems, fmt.Sprintf("daily trade cap for %s must be >= 0", tier))
		}
	}
	if len(c.Symbols) == 0 {
		problems = append(problems, "at least one trading symbol is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envToInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envToFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envToDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getSymbols returns the configured pairs, defaulting to the majors.
func getSymbols() []string {
	symbols := os.Getenv("TRADING_SYMBOLS")
	if symbols == "" {
		return []string{"EURUSD", "GBPUSD"}
	}
	return strings.Split(symbols, ",")
}
