package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"ForexPilot/internal/models"
)

// Simulator implements Client with a random-walk price generator. It backs
// demo mode when no live feed is configured and the end-to-end tests.
type Simulator struct {
	tickInterval   time.Duration
	candleInterval time.Duration

	mu        sync.Mutex
	connected bool
	prices    map[string]float64
	orderSeq  int
	rng       *rand.Rand

	// ConnectErr, when set, makes Connect fail. Used to exercise the
	// pipeline's reconnect path.
	ConnectErr error
	// OrderErr, when set, makes Buy/Sell fail.
	OrderErr error

	events chan Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSimulator(tickInterval, candleInterval time.Duration) *Simulator {
	return &Simulator{
		tickInterval:   tickInterval,
		candleInterval: candleInterval,
		prices:         make(map[string]float64),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		events:         make(chan Event, 1024),
	}
}

func (s *Simulator) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ConnectErr != nil {
		return s.ConnectErr
	}
	if s.connected {
		return nil
	}
	s.connected = true
	s.emit(ConnectivityEvent{Connected: true})
	return nil
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	s.connected = false
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// Drop simulates an upstream disconnect.
func (s *Simulator) Drop(err error) {
	s.mu.Lock()
	s.connected = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.emit(ConnectivityEvent{Connected: false, Err: err})
}

func (s *Simulator) Events() <-chan Event {
	return s.events
}

func (s *Simulator) SubscribeTicks(ctx context.Context, symbol string) error {
	if _, err := BrokerSymbol(symbol); err != nil {
		return err
	}
	runCtx, err := s.subscriberContext(ctx)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go s.tickLoop(runCtx, symbol)
	return nil
}

func (s *Simulator) SubscribeCandles(ctx context.Context, symbol string, granularity time.Duration) error {
	if _, err := BrokerSymbol(symbol); err != nil {
		return err
	}
	runCtx, err := s.subscriberContext(ctx)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go s.candleLoop(runCtx, symbol, GranularityTimeFrame(granularity))
	return nil
}

func (s *Simulator) Buy(ctx context.Context, req OrderRequest) (string, error) {
	return s.order(req)
}

func (s *Simulator) Sell(ctx context.Context, req OrderRequest) (string, error) {
	return s.order(req)
}

func (s *Simulator) order(req OrderRequest) (string, error) {
	if _, err := BrokerSymbol(req.Symbol); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OrderErr != nil {
		return "", s.OrderErr
	}
	if !s.connected {
		return "", ErrNotConnected
	}
	s.orderSeq++
	return fmt.Sprintf("SIM-%06d", s.orderSeq), nil
}

func (s *Simulator) subscriberContext(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil, ErrNotConnected
	}
	if s.cancel == nil {
		var runCtx context.Context
		runCtx, s.cancel = context.WithCancel(ctx)
		return runCtx, nil
	}
	return ctx, nil
}

func (s *Simulator) tickLoop(ctx context.Context, symbol string) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			price := s.step(symbol)
			spread := price * 0.0001
			s.emit(TickEvent{Tick: priceTick(symbol, price, spread, now)})
		}
	}
}

func (s *Simulator) candleLoop(ctx context.Context, symbol, timeFrame string) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.candleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			open := s.current(symbol)
			close_ := s.step(symbol)
			high := maxOf(open, close_) * (1 + s.jitter(0.0002))
			low := minOf(open, close_) * (1 - s.jitter(0.0002))

			s.emit(CandleEvent{
				Symbol:    symbol,
				TimeFrame: timeFrame,
				Timestamp: now.Truncate(s.candleInterval),
				Open:      open,
				High:      high,
				Low:       low,
				Close:     close_,
				Volume:    100 + s.jitter(1)*400,
			})
		}
	}
}

// step advances the random walk for symbol by up to +/-0.05%.
func (s *Simulator) step(symbol string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, ok := s.prices[symbol]
	if !ok {
		price = 1.0850 // plausible major-pair starting quote
	}
	price *= 1 + (s.rng.Float64()-0.5)*0.001
	s.prices[symbol] = price
	return price
}

func (s *Simulator) current(symbol string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.prices[symbol]
	if !ok {
		price = 1.0850
		s.prices[symbol] = price
	}
	return price
}

func (s *Simulator) jitter(scale float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() * scale
}

func (s *Simulator) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func priceTick(symbol string, price, spread float64, ts time.Time) models.PriceTick {
	return models.PriceTick{
		Symbol:    symbol,
		Price:     price,
		Bid:       price - spread/2,
		Ask:       price + spread/2,
		Timestamp: ts,
	}
}

func maxOf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minOf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
