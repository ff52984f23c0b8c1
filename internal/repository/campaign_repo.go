package repository

import (
	"brandlink/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(c *models.Campaign) error {
	return r.db.Create(c).Error
}

func (r *CampaignRepository) GetByID(id uint) (*models.Campaign, error) {
	var c models.Campaign
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AddPayment increments the campaign's running totals in place.
func (r *CampaignRepository) AddPayment(id uint, amount, commission decimal.Decimal) error {
	res := r.db.Model(&models.Campaign{}).Where("id = ?", id).Updates(map[string]interface{}{
		"amount_paid":     gorm.Expr("amount_paid + ?", amount),
		"commission_paid": gorm.Expr("commission_paid + ?", commission),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
