package repositories

import (
	"errors"
	"time"

	"ForexPilot/internal/models"

	"gorm.io/gorm"
)

type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new instance of TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create adds a new Trade record to the database
func (r *TradeRepository) Create(trade *models.Trade) error {
	if trade == nil {
		return errors.New("trade cannot be nil")
	}
	return r.db.Create(trade).Error
}

// FindByTradeID retrieves a Trade by its external trade identifier
func (r *TradeRepository) FindByTradeID(tradeID string) (*models.Trade, error) {
	if tradeID == "" {
		return nil, errors.New("invalid trade id")
	}
	var trade models.Trade
	err := r.db.Where("trade_id = ?", tradeID).First(&trade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &trade, err
}

// FindActiveByUser retrieves all active Trade records for a user
func (r *TradeRepository) FindActiveByUser(userID uint) ([]models.Trade, error) {
	var trades []models.Trade
	err := r.db.Where("user_id = ? AND status = ?", userID, models.TradeStatusActive).
		Find(&trades).Error
	return trades, err
}

// FindByUser retrieves a user's trade history, newest first
func (r *TradeRepository) FindByUser(userID uint, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	err := r.db.Where("user_id = ?", userID).
		Order("opened_at DESC").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}

// FindBySymbol retrieves trades for a symbol within a time range
func (r *TradeRepository) FindBySymbol(symbol string, start, end time.Time) ([]models.Trade, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var trades []models.Trade
	err := r.db.Where("symbol = ? AND opened_at BETWEEN ? AND ?", symbol, start, end).
		Order("opened_at ASC").
		Find(&trades).Error
	return trades, err
}

// CountOpenedSince counts a user's trades opened at or after the given time.
// The pipeline uses this with the start of the current day to enforce
// per-tier daily trade caps.
func (r *TradeRepository) CountOpenedSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Trade{}).
		Where("user_id = ? AND opened_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

// Close marks a trade closed. Status, exit price, profit/loss and the close
// timestamp change together in a single update so a reader never observes a
// half-closed trade.
func (r *TradeRepository) Close(trade *models.Trade, exitPrice, profitLoss float64, closedAt time.Time) error {
	if trade == nil {
		return errors.New("trade cannot be nil")
	}
	if trade.Status == models.TradeStatusClosed {
		return errors.New("trade already closed")
	}

	err := r.db.Model(trade).Updates(map[string]interface{}{
		"status":      models.TradeStatusClosed,
		"exit_price":  exitPrice,
		"profit_loss": profitLoss,
		"closed_at":   closedAt,
	}).Error
	if err != nil {
		return err
	}

	trade.Status = models.TradeStatusClosed
	trade.ExitPrice = &exitPrice
	trade.ProfitLoss = &profitLoss
	trade.ClosedAt = &closedAt
	return nil
}

// GetTotalProfitLoss sums profit/loss over a user's closed trades in a range
func (r *TradeRepository) GetTotalProfitLoss(userID uint, start, end time.Time) (float64, error) {
	var total float64
	err := r.db.Model(&models.Trade{}).
		Where("user_id = ? AND status = ? AND closed_at BETWEEN ? AND ?",
			userID, models.TradeStatusClosed, start, end).
		Select("COALESCE(SUM(profit_loss), 0)").
		Scan(&total).Error
	return total, err
}
