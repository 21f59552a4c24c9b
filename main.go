package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ForexPilot/config"
	"ForexPilot/internal/metrics"
	"ForexPilot/internal/models"
	"ForexPilot/internal/notify"
	"ForexPilot/internal/operations/feed"
	"ForexPilot/internal/operations/pipeline"
	"ForexPilot/internal/operations/trade"
	"ForexPilot/internal/repositories"
	"ForexPilot/internal/services/analysis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Setup database
	db := setupDatabase(cfg.Database)

	// Initialize repositories
	candleRepo := repositories.NewCandleRepository(db)
	tradeRepo := repositories.NewTradeRepository(db)
	logRepo := repositories.NewAnalysisLogRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// Metrics endpoint
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	go serveMetrics(registry)

	// Notification sink
	notifier := notify.NewRedisNotifier(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.ChannelPrefix)
	defer notifier.Close()

	// Feed client: live broker socket or the random-walk simulator
	var feedClient feed.Client
	if cfg.Feed.Simulated {
		log.Println("Running with simulated feed")
		feedClient = feed.NewSimulator(time.Second, 5*time.Second)
	} else {
		feedClient = feed.NewWSClient(feed.WSConfig{
			Endpoint: cfg.Feed.Endpoint,
			AppID:    cfg.Feed.AppID,
		})
	}

	// Decision engine
	engine := analysis.NewEngine(analysis.Config{
		TimeFrame:           cfg.Trading.TimeFrame,
		HistoryWindow:       cfg.Trading.HistoryWindow,
		ConfidenceThreshold: cfg.Trading.ConfidenceThreshold,
		StopLossATRMult:     cfg.Trading.StopLossATRMult,
		TakeProfitATRMult:   cfg.Trading.TakeProfitATRMult,
	}, candleRepo, logRepo)

	// Execution adapter
	executor := trade.NewExecutor(trade.Config{
		DefaultAmount:     cfg.Trading.DefaultAmount,
		FallbackStopPct:   cfg.Trading.FallbackStopPct,
		FallbackTargetPct: cfg.Trading.FallbackTargetPct,
	}, tradeRepo, feedClient, notifier)

	// Ingestion pipeline
	pipe := pipeline.New(pipeline.Config{
		Symbols:            cfg.Symbols,
		CandleGranularity:  5 * time.Minute,
		SampleInterval:     cfg.Trading.SampleInterval,
		AutoTradeThreshold: cfg.Trading.AutoTradeThreshold,
		DailyTradeCaps:     cfg.Trading.DailyTradeCaps,
		ReconnectAttempts:  cfg.Trading.ReconnectAttempts,
		ReconnectDelay:     cfg.Trading.ReconnectDelay,
	}, feedClient, candleRepo, engine, userRepo, tradeRepo, executor, notifier, m)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- pipe.Run(ctx)
	}()

	log.Printf("Pipeline started for symbols %v", cfg.Symbols)

	// Handle shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
		log.Println("Shutting down...")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Pipeline stopped: %v", err)
		}
	}

	feedClient.Close()
	log.Println("Shutdown complete")
}

func setupDatabase(dbConfig config.DatabaseConfig) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto migrate database schemas
	err = db.AutoMigrate(
		&models.Candle{},
		&models.Trade{},
		&models.AnalysisLog{},
		&models.User{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	return db
}

func serveMetrics(registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(":9100", mux); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}
