package models

import (
	"time"

	"brandlink/internal/domain"

	"github.com/shopspring/decimal"
)

// WalletTransaction is one immutable ledger line. Corrections are new lines.
type WalletTransaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	WalletID      uint            `gorm:"not null;index" json:"wallet_id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Type          string          `gorm:"size:10;not null;index" json:"type"` // credit | debit
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	SourceType    string          `gorm:"size:30;not null;index" json:"source_type"`
	SourceID      *uint           `gorm:"index" json:"source_id,omitempty"`
	Reference     string          `gorm:"size:128;uniqueIndex;not null" json:"reference"`
	Status        string          `gorm:"size:20;not null" json:"status"`
	Description   string          `gorm:"size:255" json:"description"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balance_after"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// Consistent reports whether the before/after snapshot matches the amount.
func (t *WalletTransaction) Consistent() bool {
	switch t.Type {
	case domain.EntryCredit:
		return t.BalanceAfter.Sub(t.BalanceBefore).Equal(t.Amount)
	case domain.EntryDebit:
		return t.BalanceBefore.Sub(t.BalanceAfter).Equal(t.Amount)
	}
	return false
}
