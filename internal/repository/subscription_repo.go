package repository

import (
	"brandlink/internal/models"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByCode(code string) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.Where("subscription_code = ?", code).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionRepository) Save(s *models.Subscription) error {
	return r.db.Save(s).Error
}
