package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Campaign keeps running payment totals; the rest of the campaign lifecycle
// is managed elsewhere.
type Campaign struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	BrandID        uint            `gorm:"not null;index" json:"brand_id"`
	Title          string          `gorm:"size:255" json:"title"`
	Budget         decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"budget"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"amount_paid"`
	CommissionPaid decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"commission_paid"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Campaign) TableName() string {
	return "campaigns"
}
