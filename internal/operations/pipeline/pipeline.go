package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"ForexPilot/internal/metrics"
	"ForexPilot/internal/models"
	"ForexPilot/internal/notify"
	"ForexPilot/internal/operations/feed"
	"ForexPilot/internal/services/analysis"
)

// ErrAnalysisBusy is returned when a forced analysis would overlap an
// in-flight run for the same symbol. At most one analysis per symbol runs
// at a time; concurrent requests are rejected, never silently dropped.
var ErrAnalysisBusy = errors.New("analysis already in flight for symbol")

// CandleStore is the write side of the market data store the pipeline needs.
type CandleStore interface {
	Upsert(candle *models.Candle) error
}

// Analyzer runs one analysis+decision cycle for a symbol.
type Analyzer interface {
	Analyze(symbol string) (*analysis.Result, error)
}

// UserSource lists candidates for auto-trade fan-out.
type UserSource interface {
	FindAutoTraders() ([]models.User, error)
}

// TradeCounter reports how many trades a user opened since a point in time.
type TradeCounter interface {
	CountOpenedSince(userID uint, since time.Time) (int64, error)
}

// TradeExecutor opens a trade from a decision for one user.
type TradeExecutor interface {
	ExecuteAutoTrade(ctx context.Context, user *models.User, result *analysis.Result) (*models.Trade, error)
}

// Config holds the pipeline's tunables; every default is an explicit field.
type Config struct {
	Symbols           []string
	CandleGranularity time.Duration

	// SampleInterval triggers one analysis every Nth candle per symbol,
	// bounding analysis cost under high tick rates.
	SampleInterval int

	// AutoTradeThreshold is the minimum decision confidence for fan-out.
	AutoTradeThreshold float64

	// DailyTradeCaps maps subscription tier to max trades per day.
	DailyTradeCaps map[string]int

	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

// Pipeline consumes the feed event stream, maintains the latest-price cache,
// persists candles, throttles analysis and fans out auto-trades.
type Pipeline struct {
	cfg      Config
	feed     feed.Client
	candles  CandleStore
	engine   Analyzer
	users    UserSource
	counter  TradeCounter
	executor TradeExecutor
	notifier notify.Notifier
	metrics  *metrics.Metrics

	cache *PriceCache

	// candleCount is touched only by the event loop goroutine.
	candleCount map[string]int

	inFlightMu sync.Mutex
	inFlight   map[string]bool

	// userLocks serializes cap-check + trade insert per user, closing the
	// window where two cycles could both pass the cap check.
	userLocksMu sync.Mutex
	userLocks   map[uint]*sync.Mutex

	wg sync.WaitGroup
}

func New(cfg Config, feedClient feed.Client, candles CandleStore, engine Analyzer,
	users UserSource, counter TradeCounter, executor TradeExecutor,
	notifier notify.Notifier, m *metrics.Metrics) *Pipeline {

	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Pipeline{
		cfg:         cfg,
		feed:        feedClient,
		candles:     candles,
		engine:      engine,
		users:       users,
		counter:     counter,
		executor:    executor,
		notifier:    notifier,
		metrics:     m,
		cache:       NewPriceCache(),
		candleCount: make(map[string]int),
		inFlight:    make(map[string]bool),
		userLocks:   make(map[uint]*sync.Mutex),
	}
}

// Run connects, subscribes every configured symbol and processes feed events
// until ctx is cancelled or reconnection is exhausted.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.feed.Connect(ctx); err != nil {
		return fmt.Errorf("initial feed connect failed: %w", err)
	}
	if err := p.subscribeAll(ctx); err != nil {
		return err
	}

	defer p.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-p.feed.Events():
			if !ok {
				return nil
			}
			if err := p.handleEvent(ctx, ev); err != nil {
				return err
			}
		}
	}
}

// LatestPrice exposes the cached tick to the API layer.
func (p *Pipeline) LatestPrice(symbol string) (models.PriceTick, bool) {
	return p.cache.Latest(symbol)
}

// Prices exposes a snapshot of every cached tick.
func (p *Pipeline) Prices() map[string]models.PriceTick {
	return p.cache.Snapshot()
}

// ForceAnalysis runs an analysis cycle for symbol outside the sampling
// cadence. It rejects with ErrAnalysisBusy rather than running two analyses
// for the same symbol concurrently.
func (p *Pipeline) ForceAnalysis(ctx context.Context, symbol string) (*analysis.Result, error) {
	if !p.tryAcquire(symbol) {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisBusy, symbol)
	}
	defer p.release(symbol)

	return p.analyze(ctx, symbol)
}

func (p *Pipeline) subscribeAll(ctx context.Context) error {
	for _, symbol := range p.cfg.Symbols {
		if err := p.feed.SubscribeTicks(ctx, symbol); err != nil {
			return fmt.Errorf("subscribing ticks for %s: %w", symbol, err)
		}
		if err := p.feed.SubscribeCandles(ctx, symbol, p.cfg.CandleGranularity); err != nil {
			return fmt.Errorf("subscribing candles for %s: %w", symbol, err)
		}
	}
	return nil
}

func (p *Pipeline) handleEvent(ctx context.Context, ev feed.Event) error {
	switch e := ev.(type) {
	case feed.TickEvent:
		p.handleTick(e)
	case feed.CandleEvent:
		p.handleCandle(ctx, e)
	case feed.ConnectivityEvent:
		if !e.Connected {
			return p.reconnect(ctx, e.Err)
		}
		p.notifier.Publish(notify.EventFeedConnectivity, map[string]interface{}{
			"connected": true,
		})
	}
	return nil
}

func (p *Pipeline) handleTick(ev feed.TickEvent) {
	p.cache.Set(ev.Tick)
	if p.metrics != nil {
		p.metrics.TicksReceived.WithLabelValues(ev.Tick.Symbol).Inc()
	}
	p.notifier.Publish(notify.EventTickUpdate, ev.Tick)
}

func (p *Pipeline) handleCandle(ctx context.Context, ev feed.CandleEvent) {
	candle := ev.Candle()
	if err := p.candles.Upsert(&candle); err != nil {
		log.Printf("[pipeline] failed to persist candle %s %s: %v", ev.Symbol, ev.TimeFrame, err)
		return
	}
	if p.metrics != nil {
		p.metrics.CandlesPersisted.WithLabelValues(ev.Symbol).Inc()
	}
	p.notifier.Publish(notify.EventCandleUpdate, candle)

	p.candleCount[ev.Symbol]++
	if p.cfg.SampleInterval > 0 && p.candleCount[ev.Symbol]%p.cfg.SampleInterval != 0 {
		return
	}

	if !p.tryAcquire(ev.Symbol) {
		// Previous cycle still running; this sampling slot is skipped.
		log.Printf("[pipeline] analysis for %s still in flight, skipping cycle", ev.Symbol)
		return
	}

	p.wg.Add(1)
	go func(symbol string) {
		defer p.wg.Done()
		defer p.release(symbol)
		if _, err := p.analyze(ctx, symbol); err != nil && !errors.Is(err, analysis.ErrInsufficientData) {
			log.Printf("[pipeline] analysis cycle for %s failed: %v", symbol, err)
		}
	}(ev.Symbol)
}

func (p *Pipeline) analyze(ctx context.Context, symbol string) (*analysis.Result, error) {
	result, err := p.engine.Analyze(symbol)
	if err != nil && result == nil {
		if p.metrics != nil {
			p.metrics.AnalysesRun.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.AnalysesRun.WithLabelValues(result.Decision.Action).Inc()
		p.metrics.LatestConfidence.WithLabelValues(symbol).Set(result.Decision.Confidence)
	}
	p.notifier.Publish(notify.EventAIAnalysis, map[string]interface{}{
		"symbol":   symbol,
		"decision": result.Decision,
	})

	// Insufficient data degrades to hold; no trade path.
	if err != nil {
		return result, err
	}

	if result.Decision.Action != analysis.ActionHold &&
		result.Decision.Confidence >= p.cfg.AutoTradeThreshold {
		p.fanOut(ctx, result)
	}
	return result, nil
}

// fanOut forwards one decision to every eligible user. Cap enforcement and
// the trade insert are serialized per user.
func (p *Pipeline) fanOut(ctx context.Context, result *analysis.Result) {
	users, err := p.users.FindAutoTraders()
	if err != nil {
		log.Printf("[pipeline] failed to list auto-trade users: %v", err)
		return
	}

	dayStart := startOfDay(time.Now())
	for i := range users {
		user := &users[i]

		lock := p.userLock(user.ID)
		lock.Lock()

		count, err := p.counter.CountOpenedSince(user.ID, dayStart)
		if err != nil {
			lock.Unlock()
			log.Printf("[pipeline] trade count for user %d failed: %v", user.ID, err)
			continue
		}

		limit, capped := p.cfg.DailyTradeCaps[user.SubscriptionTier]
		if capped && count >= int64(limit) {
			lock.Unlock()
			log.Printf("[pipeline] user %d reached daily cap (%d), skipping %s",
				user.ID, limit, result.Symbol)
			continue
		}

		trade, err := p.executor.ExecuteAutoTrade(ctx, user, result)
		lock.Unlock()

		if err != nil {
			log.Printf("[pipeline] auto-trade for user %d on %s failed: %v",
				user.ID, result.Symbol, err)
			continue
		}
		if p.metrics != nil {
			mode := "live"
			if trade.IsDemo {
				mode = "demo"
			}
			p.metrics.TradesExecuted.WithLabelValues(mode).Inc()
		}
	}
}

// reconnect runs the bounded retry policy: fixed delay, fixed attempt count,
// then a fatal connectivity error upward.
func (p *Pipeline) reconnect(ctx context.Context, cause error) error {
	p.notifier.Publish(notify.EventFeedConnectivity, map[string]interface{}{
		"connected": false,
	})
	log.Printf("[pipeline] feed disconnected: %v", cause)

	var lastErr error = cause
	for attempt := 1; attempt <= p.cfg.ReconnectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.cfg.ReconnectDelay):
		}

		if p.metrics != nil {
			p.metrics.FeedReconnects.Inc()
		}
		log.Printf("[pipeline] reconnect attempt %d/%d", attempt, p.cfg.ReconnectAttempts)

		if err := p.feed.Connect(ctx); err != nil {
			lastErr = err
			continue
		}
		if err := p.subscribeAll(ctx); err != nil {
			lastErr = err
			continue
		}

		log.Printf("[pipeline] feed reconnected after %d attempts", attempt)
		p.notifier.Publish(notify.EventFeedConnectivity, map[string]interface{}{
			"connected": true,
		})
		return nil
	}

	fatal := &feed.ConnectivityError{Attempts: p.cfg.ReconnectAttempts, Last: lastErr}
	p.notifier.Publish(notify.EventFeedConnectivity, map[string]interface{}{
		"connected": false,
		"fatal":     true,
		"error":     fatal.Error(),
	})
	return fatal
}

func (p *Pipeline) tryAcquire(symbol string) bool {
	p.inFlightMu.Lock()
	defer p.inFlightMu.Unlock()
	if p.inFlight[symbol] {
		return false
	}
	p.inFlight[symbol] = true
	return true
}

func (p *Pipeline) release(symbol string) {
	p.inFlightMu.Lock()
	delete(p.inFlight, symbol)
	p.inFlightMu.Unlock()
}

func (p *Pipeline) userLock(userID uint) *sync.Mutex {
	p.userLocksMu.Lock()
	defer p.userLocksMu.Unlock()
	lock, ok := p.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		p.userLocks[userID] = lock
	}
	return lock
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
