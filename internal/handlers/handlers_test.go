package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ForexPilot/internal/models"
	"ForexPilot/internal/operations/pipeline"
	"ForexPilot/internal/services/analysis"
)

type fakePipeline struct {
	result *analysis.Result
	err    error
	tick   models.PriceTick
	hasTck bool
}

func (f *fakePipeline) ForceAnalysis(ctx context.Context, symbol string) (*analysis.Result, error) {
	return f.result, f.err
}

func (f *fakePipeline) LatestPrice(symbol string) (models.PriceTick, bool) {
	return f.tick, f.hasTck
}

type fakeLogReader struct {
	entries  []models.AnalysisLog
	gotLimit int
	err      error
}

func (f *fakeLogReader) FindBySymbol(symbol string, limit int) ([]models.AnalysisLog, error) {
	f.gotLimit = limit
	return f.entries, f.err
}

type fakeTradeReader struct {
	trade    *models.Trade
	trades   []models.Trade
	gotLimit int
	err      error
}

func (f *fakeTradeReader) FindByTradeID(tradeID string) (*models.Trade, error) {
	return f.trade, f.err
}

func (f *fakeTradeReader) FindByUser(userID uint, limit int) ([]models.Trade, error) {
	f.gotLimit = limit
	return f.trades, f.err
}

type fakeCloser struct {
	called bool
	price  float64
	err    error
}

func (f *fakeCloser) CloseTrade(ctx context.Context, trade *models.Trade, exitPrice float64) error {
	f.called = true
	f.price = exitPrice
	return f.err
}

func TestForceAnalysisUnknownSymbol(t *testing.T) {
	h := NewAnalysisHandler(&fakePipeline{}, &fakeLogReader{})

	resp := h.ForceAnalysis(context.Background(), "DOGEUSD")
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Message, "unsupported symbol")
}

func TestForceAnalysisBusy(t *testing.T) {
	p := &fakePipeline{err: fmt.Errorf("%w: EURUSD", pipeline.ErrAnalysisBusy)}
	h := NewAnalysisHandler(p, &fakeLogReader{})

	resp := h.ForceAnalysis(context.Background(), "EURUSD")
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Message, "already running")
}

func TestForceAnalysisInsufficientDataIsSuccess(t *testing.T) {
	result := &analysis.Result{
		Symbol:   "EURUSD",
		Decision: analysis.Decision{Action: analysis.ActionHold},
	}
	p := &fakePipeline{result: result, err: analysis.ErrInsufficientData}
	h := NewAnalysisHandler(p, &fakeLogReader{})

	resp := h.ForceAnalysis(context.Background(), "EURUSD")
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, result, resp.Data)
}

func TestForceAnalysisSuccess(t *testing.T) {
	result := &analysis.Result{
		Symbol:   "EURUSD",
		Decision: analysis.Decision{Action: analysis.ActionBuy, Confidence: 0.81},
	}
	h := NewAnalysisHandler(&fakePipeline{result: result}, &fakeLogReader{})

	resp := h.ForceAnalysis(context.Background(), "EURUSD")
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, result, resp.Data)
}

func TestForceAnalysisOtherErrors(t *testing.T) {
	p := &fakePipeline{err: errors.New("database down")}
	h := NewAnalysisHandler(p, &fakeLogReader{})

	resp := h.ForceAnalysis(context.Background(), "EURUSD")
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Message, "database down")
}

func TestHistoryClampsLimit(t *testing.T) {
	logs := &fakeLogReader{}
	h := NewAnalysisHandler(&fakePipeline{}, logs)

	h.History("EURUSD", 0)
	assert.Equal(t, 50, logs.gotLimit)

	h.History("EURUSD", 1000)
	assert.Equal(t, 50, logs.gotLimit)

	h.History("EURUSD", 20)
	assert.Equal(t, 20, logs.gotLimit)
}

func TestLatestPrice(t *testing.T) {
	tick := models.PriceTick{Symbol: "EURUSD", Price: 1.1007}
	h := NewAnalysisHandler(&fakePipeline{tick: tick, hasTck: true}, &fakeLogReader{})

	resp := h.LatestPrice("EURUSD")
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, tick, resp.Data)

	h = NewAnalysisHandler(&fakePipeline{}, &fakeLogReader{})
	resp = h.LatestPrice("EURUSD")
	assert.Equal(t, StatusError, resp.Status)
}

func TestTradeCloseAtCachedPrice(t *testing.T) {
	trade := &models.Trade{
		TradeID: "t-1",
		Symbol:  "EURUSD",
		Status:  models.TradeStatusActive,
	}
	closer := &fakeCloser{}
	h := NewTradeHandler(&fakeTradeReader{trade: trade}, closer,
		&fakePipeline{tick: models.PriceTick{Symbol: "EURUSD", Price: 1.1042}, hasTck: true})

	resp := h.Close(context.Background(), "t-1")
	require.Equal(t, StatusSuccess, resp.Status)
	assert.True(t, closer.called)
	assert.Equal(t, 1.1042, closer.price)
}

func TestTradeCloseNotActive(t *testing.T) {
	trade := &models.Trade{TradeID: "t-2", Symbol: "EURUSD", Status: models.TradeStatusClosed}
	closer := &fakeCloser{}
	h := NewTradeHandler(&fakeTradeReader{trade: trade}, closer, &fakePipeline{hasTck: true})

	resp := h.Close(context.Background(), "t-2")
	assert.Equal(t, StatusError, resp.Status)
	assert.False(t, closer.called)
}

func TestTradeCloseNotFound(t *testing.T) {
	h := NewTradeHandler(&fakeTradeReader{}, &fakeCloser{}, &fakePipeline{})

	resp := h.Close(context.Background(), "missing")
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Message, "not found")
}

func TestTradeCloseNoPrice(t *testing.T) {
	trade := &models.Trade{TradeID: "t-3", Symbol: "EURUSD", Status: models.TradeStatusActive}
	closer := &fakeCloser{}
	h := NewTradeHandler(&fakeTradeReader{trade: trade}, closer, &fakePipeline{})

	resp := h.Close(context.Background(), "t-3")
	assert.Equal(t, StatusError, resp.Status)
	assert.False(t, closer.called)
}

func TestTradeHistory(t *testing.T) {
	reader := &fakeTradeReader{trades: []models.Trade{{TradeID: "t-1"}, {TradeID: "t-2"}}}
	h := NewTradeHandler(reader, &fakeCloser{}, &fakePipeline{})

	resp := h.History(1, -3)
	require.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, 50, reader.gotLimit)
	assert.Len(t, resp.Data, 2)
}
