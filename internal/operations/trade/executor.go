package trade

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ForexPilot/internal/models"
	"ForexPilot/internal/notify"
	"ForexPilot/internal/operations/feed"
	"ForexPilot/internal/services/analysis"
)

// Broker places live orders. The feed client satisfies this.
type Broker interface {
	Buy(ctx context.Context, req feed.OrderRequest) (string, error)
	Sell(ctx context.Context, req feed.OrderRequest) (string, error)
}

// TradeStore persists trades. Create and Close errors always propagate to
// the caller; a trade the store did not accept must never look executed.
type TradeStore interface {
	Create(trade *models.Trade) error
	Close(trade *models.Trade, exitPrice, profitLoss float64, closedAt time.Time) error
}

// Config holds the executor's named defaults. Stop/target normally come from
// the decision; the percent fallbacks apply when a decision carries none.
type Config struct {
	DefaultAmount     float64
	FallbackStopPct   float64 // e.g. 0.005 = 0.5% from entry
	FallbackTargetPct float64 // e.g. 0.01  = 1% from entry
}

// Executor turns decisions into persisted trades and, in live mode, broker
// orders.
type Executor struct {
	cfg      Config
	store    TradeStore
	broker   Broker
	notifier notify.Notifier
}

func NewExecutor(cfg Config, store TradeStore, broker Broker, notifier notify.Notifier) *Executor {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Executor{
		cfg:      cfg,
		store:    store,
		broker:   broker,
		notifier: notifier,
	}
}

// ExecuteAutoTrade opens a trade for user from an analysis result. Demo
// users never touch the broker. For live users the broker order is placed
// first and the trade is persisted only after a confirmed order id; a broker
// rejection creates no record and is returned to the caller without retry.
func (e *Executor) ExecuteAutoTrade(ctx context.Context, user *models.User, result *analysis.Result) (*models.Trade, error) {
	decision := result.Decision
	if decision.Action != analysis.ActionBuy && decision.Action != analysis.ActionSell {
		return nil, fmt.Errorf("cannot execute %q decision for %s", decision.Action, result.Symbol)
	}

	entry := result.CurrentPrice
	stopLoss, takeProfit := e.protectionLevels(decision, entry)

	snapshot, err := json.Marshal(decision)
	if err != nil {
		return nil, fmt.Errorf("failed to encode decision snapshot: %w", err)
	}

	trade := &models.Trade{
		TradeID:          uuid.NewString(),
		UserID:           user.ID,
		Symbol:           result.Symbol,
		Type:             decision.Action,
		EntryPrice:       entry,
		Amount:           e.cfg.DefaultAmount,
		Status:           models.TradeStatusActive,
		IsDemo:           user.IsDemo,
		Confidence:       decision.Confidence,
		StopLoss:         &stopLoss,
		TakeProfit:       &takeProfit,
		DecisionSnapshot: string(snapshot),
		OpenedAt:         time.Now(),
	}

	if !user.IsDemo {
		orderID, err := e.placeOrder(ctx, trade)
		if err != nil {
			return nil, fmt.Errorf("broker order for %s failed: %w", result.Symbol, err)
		}
		trade.BrokerOrderID = orderID
	}

	if err := e.store.Create(trade); err != nil {
		return nil, fmt.Errorf("failed to persist trade %s: %w", trade.TradeID, err)
	}

	log.Printf("[trade] opened %s %s for user %d at %.5f (demo=%v, confidence=%.2f)",
		trade.Type, trade.Symbol, user.ID, entry, user.IsDemo, decision.Confidence)

	e.notifier.Publish(notify.EventAutoTradeExecuted, trade)
	return trade, nil
}

// CloseTrade settles a trade at exitPrice. Status, exit price, profit/loss
// and close time change together; a store failure propagates.
func (e *Executor) CloseTrade(ctx context.Context, trade *models.Trade, exitPrice float64) error {
	if trade.Status != models.TradeStatusActive {
		return fmt.Errorf("trade %s is %s, not active", trade.TradeID, trade.Status)
	}

	pnl := profitLoss(trade, exitPrice)
	if err := e.store.Close(trade, exitPrice, pnl, time.Now()); err != nil {
		return fmt.Errorf("failed to close trade %s: %w", trade.TradeID, err)
	}

	log.Printf("[trade] closed %s %s | entry %.5f exit %.5f | P/L %.5f",
		trade.Symbol, trade.Type, trade.EntryPrice, exitPrice, pnl)
	return nil
}

func (e *Executor) placeOrder(ctx context.Context, trade *models.Trade) (string, error) {
	req := feed.OrderRequest{
		Symbol: trade.Symbol,
		Amount: trade.Amount,
		Price:  trade.EntryPrice,
	}
	if trade.Type == models.TradeTypeBuy {
		return e.broker.Buy(ctx, req)
	}
	return e.broker.Sell(ctx, req)
}

func (e *Executor) protectionLevels(decision analysis.Decision, entry float64) (stopLoss, takeProfit float64) {
	stopLoss = decision.SuggestedStopLoss
	takeProfit = decision.SuggestedTakeProfit
	if stopLoss != 0 && takeProfit != 0 {
		return stopLoss, takeProfit
	}

	if decision.Action == analysis.ActionBuy {
		return entry * (1 - e.cfg.FallbackStopPct), entry * (1 + e.cfg.FallbackTargetPct)
	}
	return entry * (1 + e.cfg.FallbackStopPct), entry * (1 - e.cfg.FallbackTargetPct)
}

// profitLoss computes settlement P/L with decimal arithmetic so repeated
// float rounding never leaks into stored balances.
func profitLoss(trade *models.Trade, exitPrice float64) float64 {
	entry := decimal.NewFromFloat(trade.EntryPrice)
	exit := decimal.NewFromFloat(exitPrice)
	amount := decimal.NewFromFloat(trade.Amount)

	move := exit.Sub(entry)
	if trade.Type == models.TradeTypeSell {
		move = entry.Sub(exit)
	}

	pnl, _ := move.Mul(amount).Round(8).Float64()
	return pnl
}
