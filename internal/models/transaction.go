package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Transaction is one brand-to-influencer payment attempt. Rows are never
// deleted; they are the audit trail of every settlement.
//
// PaymentStatus, CommissionTransferStatus and InfluencerPayoutStatus move
// independently: the charge can succeed while either transfer fails.
type Transaction struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	CampaignID   uint `gorm:"not null;index" json:"campaign_id"`
	BrandID      uint `gorm:"not null;index" json:"brand_id"`
	InfluencerID uint `gorm:"not null;index" json:"influencer_id"`

	TotalAmount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_amount"`
	PlatformCommission decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"platform_commission"`
	InfluencerAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"influencer_amount"`
	Currency           string          `gorm:"size:3;not null" json:"currency"`

	PaymentMethod              string `gorm:"size:30;not null" json:"payment_method"`
	InfluencerPayoutPreference string `gorm:"size:20;not null" json:"influencer_payout_preference"`

	PaymentReference      string `gorm:"size:128;uniqueIndex;not null" json:"payment_reference"`
	GatewayTransactionID  string `gorm:"size:64" json:"gateway_transaction_id,omitempty"`
	AuthorizationURL      string `gorm:"size:512" json:"authorization_url,omitempty"`
	AccessCode            string `gorm:"size:128" json:"-"`
	CommissionTransferRef string `gorm:"size:160;index" json:"commission_transfer_ref,omitempty"`
	CommissionTransferID  string `gorm:"size:64" json:"commission_transfer_id,omitempty"`
	InfluencerTransferRef string `gorm:"size:160;index" json:"influencer_transfer_ref,omitempty"`
	InfluencerTransferID  string `gorm:"size:64" json:"influencer_transfer_id,omitempty"`

	PaymentStatus            string `gorm:"size:20;not null;index" json:"payment_status"`
	CommissionTransferStatus string `gorm:"size:20;not null;index" json:"commission_transfer_status"`
	CommissionAttempts       int    `gorm:"not null;default:0" json:"commission_attempts"`
	InfluencerPayoutStatus   string `gorm:"size:20;not null;index" json:"influencer_payout_status"`
	PayoutChannel            string `gorm:"size:20" json:"payout_channel,omitempty"`
	PayoutFailureReason      string `gorm:"size:255" json:"payout_failure_reason,omitempty"`

	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	SettledAt *time.Time        `json:"settled_at,omitempty"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Balanced reports whether commission and payout add up to the total.
func (t *Transaction) Balanced() bool {
	return t.PlatformCommission.Add(t.InfluencerAmount).Equal(t.TotalAmount)
}
