package handlers

import (
	"context"
	"errors"

	"ForexPilot/internal/models"
	"ForexPilot/internal/operations/feed"
	"ForexPilot/internal/operations/pipeline"
	"ForexPilot/internal/services/analysis"
)

// ForceAnalyzer is the pipeline surface this handler needs.
type ForceAnalyzer interface {
	ForceAnalysis(ctx context.Context, symbol string) (*analysis.Result, error)
	LatestPrice(symbol string) (models.PriceTick, bool)
}

// AnalysisLogReader reads persisted analysis history.
type AnalysisLogReader interface {
	FindBySymbol(symbol string, limit int) ([]models.AnalysisLog, error)
}

type AnalysisHandler struct {
	pipeline ForceAnalyzer
	logs     AnalysisLogReader
}

func NewAnalysisHandler(p ForceAnalyzer, logs AnalysisLogReader) *AnalysisHandler {
	return &AnalysisHandler{
		pipeline: p,
		logs:     logs,
	}
}

// ForceAnalysis runs an on-demand analysis cycle. The request either runs or
// the caller is told exactly why it could not: unknown symbol, a cycle
// already in flight, or not enough candle history yet.
func (h *AnalysisHandler) ForceAnalysis(ctx context.Context, symbol string) Response {
	if _, err := feed.BrokerSymbol(symbol); err != nil {
		return failure(err.Error())
	}

	result, err := h.pipeline.ForceAnalysis(ctx, symbol)
	switch {
	case errors.Is(err, pipeline.ErrAnalysisBusy):
		return failure("analysis already running for " + symbol + ", try again shortly")
	case errors.Is(err, analysis.ErrInsufficientData):
		// The hold result still carries the reason for the caller.
		return success(result)
	case err != nil:
		return failure("analysis failed: " + err.Error())
	default:
		return success(result)
	}
}

// History returns recent analysis log entries for a symbol.
func (h *AnalysisHandler) History(symbol string, limit int) Response {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries, err := h.logs.FindBySymbol(symbol, limit)
	if err != nil {
		return failure("failed to load analysis history: " + err.Error())
	}
	return success(entries)
}

// LatestPrice returns the cached tick for a symbol.
func (h *AnalysisHandler) LatestPrice(symbol string) Response {
	tick, ok := h.pipeline.LatestPrice(symbol)
	if !ok {
		return failure("no price seen yet for " + symbol)
	}
	return success(tick)
}
