package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ForexPilot/internal/models"
)

func TestBrokerSymbolMapping(t *testing.T) {
	got, err := BrokerSymbol("EURUSD")
	require.NoError(t, err)
	assert.Equal(t, "frxEURUSD", got)

	got, err = BrokerSymbol("GBPJPY")
	require.NoError(t, err)
	assert.Equal(t, "frxGBPJPY", got)
}

func TestBrokerSymbolUnsupported(t *testing.T) {
	_, err := BrokerSymbol("DOGEUSD")
	require.ErrorIs(t, err, ErrUnsupportedSymbol)
	assert.Contains(t, err.Error(), "DOGEUSD")
}

func TestGranularityTimeFrame(t *testing.T) {
	assert.Equal(t, models.CandleTimeFrame1m, GranularityTimeFrame(time.Minute))
	assert.Equal(t, models.CandleTimeFrame5m, GranularityTimeFrame(5*time.Minute))
	assert.Equal(t, models.CandleTimeFrame15m, GranularityTimeFrame(15*time.Minute))
	assert.Equal(t, models.CandleTimeFrame1h, GranularityTimeFrame(time.Hour))
	assert.Equal(t, models.CandleTimeFrame4h, GranularityTimeFrame(4*time.Hour))
	assert.Equal(t, models.CandleTimeFrame1d, GranularityTimeFrame(24*time.Hour))
	// Unknown values fall back to the analysis default.
	assert.Equal(t, models.CandleTimeFrame5m, GranularityTimeFrame(7*time.Second))
}

func TestConnectivityErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &ConnectivityError{Attempts: 5, Last: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "5 reconnect attempts")
}

func TestSimulatorOrdersRequireConnection(t *testing.T) {
	sim := NewSimulator(time.Millisecond, time.Millisecond)

	_, err := sim.Buy(context.Background(), OrderRequest{Symbol: "EURUSD", Amount: 10})
	require.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, sim.Connect(context.Background()))
	defer sim.Close()

	first, err := sim.Buy(context.Background(), OrderRequest{Symbol: "EURUSD", Amount: 10})
	require.NoError(t, err)
	second, err := sim.Sell(context.Background(), OrderRequest{Symbol: "EURUSD", Amount: 10})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Contains(t, first, "SIM-")
}

func TestSimulatorRejectsUnknownSymbol(t *testing.T) {
	sim := NewSimulator(time.Millisecond, time.Millisecond)
	require.NoError(t, sim.Connect(context.Background()))
	defer sim.Close()

	_, err := sim.Buy(context.Background(), OrderRequest{Symbol: "DOGEUSD"})
	assert.ErrorIs(t, err, ErrUnsupportedSymbol)

	err = sim.SubscribeTicks(context.Background(), "DOGEUSD")
	assert.ErrorIs(t, err, ErrUnsupportedSymbol)
}

func TestSimulatorConnectErrHook(t *testing.T) {
	sim := NewSimulator(time.Millisecond, time.Millisecond)
	sim.ConnectErr = errors.New("simulated outage")

	err := sim.Connect(context.Background())
	require.Error(t, err)

	err = sim.SubscribeTicks(context.Background(), "EURUSD")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSimulatorEmitsTicks(t *testing.T) {
	sim := NewSimulator(time.Millisecond, time.Hour)
	require.NoError(t, sim.Connect(context.Background()))
	defer sim.Close()

	require.NoError(t, sim.SubscribeTicks(context.Background(), "EURUSD"))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("no tick event arrived")
		case ev := <-sim.Events():
			tick, ok := ev.(TickEvent)
			if !ok {
				continue // skip the connectivity event
			}
			assert.Equal(t, "EURUSD", tick.Tick.Symbol)
			assert.Greater(t, tick.Tick.Price, 0.0)
			assert.Less(t, tick.Tick.Bid, tick.Tick.Ask)
			return
		}
	}
}

func TestSimulatorEmitsCandles(t *testing.T) {
	sim := NewSimulator(time.Hour, time.Millisecond)
	require.NoError(t, sim.Connect(context.Background()))
	defer sim.Close()

	require.NoError(t, sim.SubscribeCandles(context.Background(), "EURUSD", 5*time.Minute))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("no candle event arrived")
		case ev := <-sim.Events():
			candle, ok := ev.(CandleEvent)
			if !ok {
				continue
			}
			assert.Equal(t, "EURUSD", candle.Symbol)
			assert.Equal(t, models.CandleTimeFrame5m, candle.TimeFrame)
			assert.GreaterOrEqual(t, candle.High, candle.Open)
			assert.GreaterOrEqual(t, candle.High, candle.Close)
			assert.LessOrEqual(t, candle.Low, candle.Open)
			assert.LessOrEqual(t, candle.Low, candle.Close)
			return
		}
	}
}

func TestSimulatorDropEmitsDisconnect(t *testing.T) {
	sim := NewSimulator(time.Hour, time.Hour)
	require.NoError(t, sim.Connect(context.Background()))

	cause := errors.New("upstream gone")
	sim.Drop(cause)

	var sawDisconnect bool
	deadline := time.After(time.Second)
	for !sawDisconnect {
		select {
		case <-deadline:
			t.Fatal("no disconnect event arrived")
		case ev := <-sim.Events():
			conn, ok := ev.(ConnectivityEvent)
			if ok && !conn.Connected {
				assert.Equal(t, cause, conn.Err)
				sawDisconnect = true
			}
		}
	}

	// Orders fail while dropped.
	_, err := sim.Buy(context.Background(), OrderRequest{Symbol: "EURUSD"})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestCandleEventConversion(t *testing.T) {
	ts := time.Date(2025, 6, 2, 9, 5, 0, 0, time.UTC)
	ev := CandleEvent{
		Symbol:    "GBPUSD",
		TimeFrame: models.CandleTimeFrame5m,
		Timestamp: ts,
		Open:      1.27,
		High:      1.272,
		Low:       1.269,
		Close:     1.271,
		Volume:    250,
	}

	candle := ev.Candle()
	assert.Equal(t, "GBPUSD", candle.Symbol)
	assert.Equal(t, ts, candle.Timestamp)
	assert.Equal(t, 1.271, candle.Close)
	assert.Equal(t, 250.0, candle.Volume)
}
