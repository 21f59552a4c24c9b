package repositories

import (
	"errors"
	"time"

	"ForexPilot/internal/models"

	"gorm.io/gorm"
)

type AnalysisLogRepository struct {
	db *gorm.DB
}

// NewAnalysisLogRepository creates a new instance of AnalysisLogRepository
func NewAnalysisLogRepository(db *gorm.DB) *AnalysisLogRepository {
	return &AnalysisLogRepository{db: db}
}

// Append inserts an analysis log entry. Entries are never updated.
func (r *AnalysisLogRepository) Append(entry *models.AnalysisLog) error {
	if entry == nil {
		return errors.New("entry cannot be nil")
	}
	return r.db.Create(entry).Error
}

// FindBySymbol returns the most recent entries for a symbol, newest first
func (r *AnalysisLogRepository) FindBySymbol(symbol string, limit int) ([]models.AnalysisLog, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var entries []models.AnalysisLog
	err := r.db.Where("symbol = ?", symbol).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// FindByDateRange returns entries within a time range, oldest first
func (r *AnalysisLogRepository) FindByDateRange(start, end time.Time) ([]models.AnalysisLog, error) {
	var entries []models.AnalysisLog
	err := r.db.Where("timestamp BETWEEN ? AND ?", start, end).
		Order("timestamp ASC").
		Find(&entries).Error
	return entries, err
}
