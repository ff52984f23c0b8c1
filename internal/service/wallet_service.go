package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"brandlink/internal/apperror"
	"brandlink/internal/domain"
	"brandlink/internal/models"
	"brandlink/internal/repository"
	"brandlink/pkg/payment"

	"github.com/shopspring/decimal"
)

type WalletService struct {
	store    *repository.Store
	gateway  payment.Gateway
	notifier Notifier
	currency string
}

func NewWalletService(store *repository.Store, gateway payment.Gateway, notifier Notifier, currency string) *WalletService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &WalletService{store: store, gateway: gateway, notifier: notifier, currency: currency}
}

// GetWallet returns the user's wallet, or an empty one if nothing was ever
// credited to it.
func (s *WalletService) GetWallet(ctx context.Context, userID uint, userType string) (*models.Wallet, error) {
	w, err := s.store.WithContext(ctx).Wallets.GetByOwner(userID, userType)
	if notFound(err) {
		return &models.Wallet{UserID: userID, UserType: userType, Currency: s.currency, IsActive: true}, nil
	}
	return w, err
}

func (s *WalletService) ListWalletTransactions(ctx context.Context, userID uint, userType string, offset, limit int) ([]models.WalletTransaction, int64, error) {
	store := s.store.WithContext(ctx)
	w, err := store.Wallets.GetByOwner(userID, userType)
	if notFound(err) {
		return []models.WalletTransaction{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return store.Wallets.ListEntries(w.ID, offset, limit)
}

// ListTransactions pages through the campaign payments of a brand or an
// influencer profile.
func (s *WalletService) ListTransactions(ctx context.Context, role string, profileID uint, offset, limit int) ([]models.Transaction, int64, error) {
	store := s.store.WithContext(ctx)
	switch role {
	case domain.RoleBrand:
		return store.Transactions.ListByBrand(profileID, offset, limit)
	case domain.RoleInfluencer:
		return store.Transactions.ListByInfluencer(profileID, offset, limit)
	}
	return nil, 0, apperror.Validation("role must be BRAND or INFLUENCER")
}

// Withdraw sends amount from the influencer's wallet to their active bank
// account. The wallet is debited only once the processor has accepted the
// transfer; a later failure report reverses the debit.
func (s *WalletService) Withdraw(ctx context.Context, userID uint, amount decimal.Decimal) (*models.WalletTransaction, error) {
	if !validMoney(amount) {
		return nil, apperror.Validation("amount must be greater than zero with at most two decimal places")
	}
	store := s.store.WithContext(ctx)
	influencer, err := store.Influencers.GetByUserID(userID)
	if notFound(err) {
		return nil, apperror.NotFound("influencer profile not found", err)
	}
	if err != nil {
		return nil, err
	}
	w, err := store.Wallets.GetByOwner(userID, domain.UserTypeInfluencer)
	if notFound(err) {
		return nil, apperror.NotFound("wallet not found", err)
	}
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(w.Balance) {
		return nil, apperror.Validation("insufficient wallet balance")
	}
	account, err := store.BankAccounts.GetActiveVerified(influencer.ID)
	if notFound(err) {
		return nil, apperror.Validation("no verified bank account on file")
	}
	if err != nil {
		return nil, err
	}

	ref := newReference(domain.RefWithdrawal)
	var entry *models.WalletTransaction
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		w, err := tx.Wallets.GetForUpdate(userID, domain.UserTypeInfluencer)
		if err != nil {
			return err
		}
		entry, err = w.Debit(models.Entry{
			Amount:      amount,
			SourceType:  domain.SourceWalletWithdrawal,
			SourceID:    &account.ID,
			Reference:   ref,
			Description: fmt.Sprintf("Withdrawal to %s %s", account.BankName, account.MaskedNumber()),
		})
		if errors.Is(err, models.ErrInsufficientBalance) {
			return apperror.Validation("insufficient wallet balance")
		}
		if err != nil {
			return err
		}
		tr, err := s.gateway.InitiateTransfer(ctx, payment.TransferRequest{
			Amount:        amount,
			Currency:      w.Currency,
			RecipientCode: account.RecipientCode,
			Reference:     ref,
			Reason:        "Wallet withdrawal",
		})
		if err == nil {
			err = transferRefused(tr)
		}
		if err != nil {
			return apperror.Gateway("withdrawal transfer failed", err)
		}
		if err := tx.Wallets.Save(w); err != nil {
			return err
		}
		return tx.Wallets.CreateEntry(entry)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Wallet] user=%d withdrew %s ref=%s balance=%s", userID, amount, ref, entry.BalanceAfter)
	s.notifier.WalletDebited(ctx, influencer, entry)
	return entry, nil
}
