package models

import (
	"time"

	"brandlink/internal/domain"

	"gorm.io/gorm"
)

// User is the authenticated account. Login and profile management live in
// another service; this table is read for roles, e-mail and push tokens.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role      string         `gorm:"size:20;not null;index" json:"role"` // BRAND | INFLUENCER | ADMIN
	FCMToken  string         `gorm:"size:512" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsBrand() bool      { return u.Role == domain.RoleBrand }
func (u *User) IsInfluencer() bool { return u.Role == domain.RoleInfluencer }

type Influencer struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	DisplayName      string         `gorm:"size:128" json:"display_name"`
	PayoutPreference string         `gorm:"size:20" json:"payout_preference"` // direct_bank | platform_wallet
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Preference returns the payout preference, defaulting to direct bank.
func (i *Influencer) Preference() string {
	if i.PayoutPreference == domain.PayoutPlatformWallet {
		return domain.PayoutPlatformWallet
	}
	return domain.PayoutDirectBank
}

type Brand struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	CompanyName string         `gorm:"size:128" json:"company_name"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
