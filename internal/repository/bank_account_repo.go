package repository

import (
	"brandlink/internal/models"

	"gorm.io/gorm"
)

type BankAccountRepository struct {
	db *gorm.DB
}

func NewBankAccountRepository(db *gorm.DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

func (r *BankAccountRepository) Create(a *models.InfluencerBankAccount) error {
	return r.db.Create(a).Error
}

// DeactivateAll clears the active flag on every account of the influencer.
func (r *BankAccountRepository) DeactivateAll(influencerID uint) error {
	return r.db.Model(&models.InfluencerBankAccount{}).
		Where("influencer_id = ? AND is_active = ?", influencerID, true).
		Update("is_active", false).Error
}

func (r *BankAccountRepository) GetActiveVerified(influencerID uint) (*models.InfluencerBankAccount, error) {
	var a models.InfluencerBankAccount
	err := r.db.Where("influencer_id = ? AND is_active = ? AND is_verified = ?", influencerID, true, true).
		Order("id DESC").First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *BankAccountRepository) ListByInfluencer(influencerID uint) ([]models.InfluencerBankAccount, error) {
	var out []models.InfluencerBankAccount
	err := r.db.Where("influencer_id = ?", influencerID).Order("id ASC").Find(&out).Error
	return out, err
}
