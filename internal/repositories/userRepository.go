package repositories

import (
	"errors"

	"ForexPilot/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a User record by its ID
func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, errors.New("invalid id")
	}
	var user models.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

// FindAutoTraders returns all users with both trading and AI analysis
// enabled; these are the candidates for auto-trade fan-out.
func (r *UserRepository) FindAutoTraders() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("trading_enabled = ? AND ai_enabled = ?", true, true).
		Find(&users).Error
	return users, err
}
