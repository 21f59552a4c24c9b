package repositories

import (
	"errors"
	"time"

	"ForexPilot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CandleRepository struct {
	db *gorm.DB
}

// NewCandleRepository creates a new instance of CandleRepository
func NewCandleRepository(db *gorm.DB) *CandleRepository {
	return &CandleRepository{db: db}
}

// Upsert writes a candle keyed by (symbol, timeframe, timestamp). A conflict
// overwrites the OHLC fields only; the originally written volume is kept.
// Writes for different keys hit different rows, so unrelated symbols are
// never serialized against each other.
func (r *CandleRepository) Upsert(candle *models.Candle) error {
	if candle == nil {
		return errors.New("candle cannot be nil")
	}
	if !models.ValidTimeFrame(candle.TimeFrame) {
		return errors.New("invalid timeframe: " + candle.TimeFrame)
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"}, {Name: "time_frame"}, {Name: "timestamp"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close"}),
	}).Create(candle).Error
}

// GetRecent returns the most recent limit candles for (symbol, timeframe)
// in ascending time order. Indicator math depends on that ordering.
func (r *CandleRepository) GetRecent(symbol, timeFrame string, limit int) ([]models.Candle, error) {
	if symbol == "" || timeFrame == "" {
		return nil, errors.New("invalid symbol or timeframe")
	}

	var candles []models.Candle
	err := r.db.Where("symbol = ? AND time_frame = ?", symbol, timeFrame).
		Order("timestamp DESC").
		Limit(limit).
		Find(&candles).Error
	if err != nil {
		return nil, err
	}

	// Query returned newest first; flip to chronological order.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// GetByRange returns candles for a symbol and timeframe within a time range,
// oldest first.
func (r *CandleRepository) GetByRange(symbol, timeFrame string, start, end time.Time) ([]models.Candle, error) {
	if symbol == "" || timeFrame == "" {
		return nil, errors.New("invalid symbol or timeframe")
	}

	var candles []models.Candle
	err := r.db.Where("symbol = ? AND time_frame = ? AND timestamp BETWEEN ? AND ?",
		symbol, timeFrame, start, end).
		Order("timestamp ASC").
		Find(&candles).Error
	return candles, err
}

// GetLatest returns the newest candle for a symbol and timeframe, or nil
// when none exists.
func (r *CandleRepository) GetLatest(symbol, timeFrame string) (*models.Candle, error) {
	if symbol == "" || timeFrame == "" {
		return nil, errors.New("invalid symbol or timeframe")
	}

	var candle models.Candle
	err := r.db.Where("symbol = ? AND time_frame = ?", symbol, timeFrame).
		Order("timestamp DESC").
		First(&candle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &candle, err
}

// Count returns the number of stored candles for a symbol and timeframe.
func (r *CandleRepository) Count(symbol, timeFrame string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Candle{}).
		Where("symbol = ? AND time_frame = ?", symbol, timeFrame).
		Count(&count).Error
	return count, err
}
