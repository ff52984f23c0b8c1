package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription mirrors the billing provider's subscription state. Plans are
// managed by the provider; this row is only updated from webhooks.
type Subscription struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"index" json:"user_id"`
	CustomerEmail    string         `gorm:"size:255;index" json:"customer_email"`
	CustomerCode     string         `gorm:"size:64;index" json:"customer_code"`
	PlanCode         string         `gorm:"size:64" json:"plan_code"`
	SubscriptionCode string         `gorm:"size:64;uniqueIndex;not null" json:"subscription_code"`
	Status           string         `gorm:"size:20;not null;index" json:"status"`
	NextPaymentDate  *time.Time     `json:"next_payment_date,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
