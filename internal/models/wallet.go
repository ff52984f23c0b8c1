package models

import (
	"errors"
	"fmt"
	"time"

	"brandlink/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrWalletOutOfBalance  = errors.New("wallet totals out of balance")
)

// Wallet is the platform-held balance of one user. Balance always equals
// TotalEarnings minus TotalWithdrawals and never goes negative; the methods
// below are the only way the three fields change.
type Wallet struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `gorm:"not null;uniqueIndex:idx_wallet_owner,priority:1" json:"user_id"`
	UserType         string          `gorm:"size:20;not null;uniqueIndex:idx_wallet_owner,priority:2" json:"user_type"`
	Balance          decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	TotalEarnings    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_earnings"`
	TotalWithdrawals decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_withdrawals"`
	Currency         string          `gorm:"size:3;default:'NGN'" json:"currency"`
	IsActive         bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// Entry describes the ledger line a wallet mutation should produce.
type Entry struct {
	Amount      decimal.Decimal
	SourceType  string
	SourceID    *uint
	Reference   string
	Description string
}

// Credit adds e.Amount to the balance and lifetime earnings and returns the
// ledger line recording it.
func (w *Wallet) Credit(e Entry) (*WalletTransaction, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	before := w.Balance
	w.Balance = w.Balance.Add(e.Amount)
	w.TotalEarnings = w.TotalEarnings.Add(e.Amount)
	return w.entry(domain.EntryCredit, e, before), nil
}

// Debit removes e.Amount from the balance and adds it to lifetime
// withdrawals. The wallet is left untouched when the balance is too low.
func (w *Wallet) Debit(e Entry) (*WalletTransaction, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if e.Amount.GreaterThan(w.Balance) {
		return nil, ErrInsufficientBalance
	}
	before := w.Balance
	w.Balance = w.Balance.Sub(e.Amount)
	w.TotalWithdrawals = w.TotalWithdrawals.Add(e.Amount)
	return w.entry(domain.EntryDebit, e, before), nil
}

// Reverse returns a failed withdrawal to the balance. It is a credit line but
// it unwinds TotalWithdrawals rather than inflating TotalEarnings.
func (w *Wallet) Reverse(e Entry) (*WalletTransaction, error) {
	if !e.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if e.Amount.GreaterThan(w.TotalWithdrawals) {
		return nil, fmt.Errorf("reverse %s with %s withdrawn: %w", e.Amount, w.TotalWithdrawals, ErrWalletOutOfBalance)
	}
	before := w.Balance
	w.Balance = w.Balance.Add(e.Amount)
	w.TotalWithdrawals = w.TotalWithdrawals.Sub(e.Amount)
	return w.entry(domain.EntryCredit, e, before), nil
}

// Check verifies the wallet invariants.
func (w *Wallet) Check() error {
	if w.Balance.IsNegative() {
		return fmt.Errorf("negative balance %s: %w", w.Balance, ErrWalletOutOfBalance)
	}
	if !w.Balance.Equal(w.TotalEarnings.Sub(w.TotalWithdrawals)) {
		return fmt.Errorf("balance %s != %s - %s: %w", w.Balance, w.TotalEarnings, w.TotalWithdrawals, ErrWalletOutOfBalance)
	}
	return nil
}

func (w *Wallet) entry(typ string, e Entry, before decimal.Decimal) *WalletTransaction {
	return &WalletTransaction{
		WalletID:      w.ID,
		UserID:        w.UserID,
		Type:          typ,
		Amount:        e.Amount,
		SourceType:    e.SourceType,
		SourceID:      e.SourceID,
		Reference:     e.Reference,
		Status:        domain.EntryStatusCompleted,
		Description:   e.Description,
		BalanceBefore: before,
		BalanceAfter:  w.Balance,
	}
}
