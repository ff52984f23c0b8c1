package models

import "time"

// InfluencerBankAccount is a payout destination registered with the gateway.
// AccountName always comes from the gateway's account resolution, never from
// the client. At most one row per influencer is active.
type InfluencerBankAccount struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InfluencerID  uint      `gorm:"not null;index" json:"influencer_id"`
	AccountNumber string    `gorm:"size:20;not null" json:"account_number"`
	BankCode      string    `gorm:"size:20;not null" json:"bank_code"`
	AccountName   string    `gorm:"size:255;not null" json:"account_name"`
	BankName      string    `gorm:"size:128" json:"bank_name"`
	RecipientCode string    `gorm:"size:64;not null" json:"-"`
	IsActive      bool      `gorm:"not null;default:false;index" json:"is_active"`
	IsVerified    bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (InfluencerBankAccount) TableName() string {
	return "influencer_bank_accounts"
}

// MaskedNumber hides all but the last four digits.
func (a *InfluencerBankAccount) MaskedNumber() string {
	n := len(a.AccountNumber)
	if n <= 4 {
		return a.AccountNumber
	}
	masked := make([]byte, n)
	for i := range masked {
		if i < n-4 {
			masked[i] = '*'
		} else {
			masked[i] = a.AccountNumber[i]
		}
	}
	return string(masked)
}
