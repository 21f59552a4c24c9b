package handlers

import (
	"context"

	"ForexPilot/internal/models"
)

// TradeReader loads trades for reporting and close requests.
type TradeReader interface {
	FindByTradeID(tradeID string) (*models.Trade, error)
	FindByUser(userID uint, limit int) ([]models.Trade, error)
}

// TradeCloser settles an active trade at a price.
type TradeCloser interface {
	CloseTrade(ctx context.Context, trade *models.Trade, exitPrice float64) error
}

// PriceSource supplies the settlement price for manual closes.
type PriceSource interface {
	LatestPrice(symbol string) (models.PriceTick, bool)
}

type TradeHandler struct {
	trades TradeReader
	closer TradeCloser
	prices PriceSource
}

func NewTradeHandler(trades TradeReader, closer TradeCloser, prices PriceSource) *TradeHandler {
	return &TradeHandler{
		trades: trades,
		closer: closer,
		prices: prices,
	}
}

// History returns a user's trades, newest first.
func (h *TradeHandler) History(userID uint, limit int) Response {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	trades, err := h.trades.FindByUser(userID, limit)
	if err != nil {
		return failure("failed to load trade history: " + err.Error())
	}
	return success(trades)
}

// Close settles an active trade at the latest cached price.
func (h *TradeHandler) Close(ctx context.Context, tradeID string) Response {
	trade, err := h.trades.FindByTradeID(tradeID)
	if err != nil {
		return failure("failed to load trade: " + err.Error())
	}
	if trade == nil {
		return failure("trade not found: " + tradeID)
	}
	if trade.Status != models.TradeStatusActive {
		return failure("trade " + tradeID + " is not active")
	}

	tick, ok := h.prices.LatestPrice(trade.Symbol)
	if !ok {
		return failure("no current price for " + trade.Symbol)
	}

	if err := h.closer.CloseTrade(ctx, trade, tick.Price); err != nil {
		return failure("failed to close trade: " + err.Error())
	}
	return success(trade)
}
