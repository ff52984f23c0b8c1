package service

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"brandlink/internal/apperror"
	"brandlink/internal/models"
	"brandlink/internal/repository"
	"brandlink/pkg/payment"
)

var accountNumberPattern = regexp.MustCompile(`^\d{10}$`)

type BankAccountService struct {
	store    *repository.Store
	gateway  payment.Gateway
	currency string
}

func NewBankAccountService(store *repository.Store, gateway payment.Gateway, currency string) *BankAccountService {
	return &BankAccountService{store: store, gateway: gateway, currency: currency}
}

// AddInfluencerBankAccount verifies the account with the processor, registers
// it as a transfer recipient and makes it the influencer's only active
// payout account.
func (s *BankAccountService) AddInfluencerBankAccount(ctx context.Context, influencerID uint, accountNumber, bankCode, bankName string) (*models.InfluencerBankAccount, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	bankCode = strings.TrimSpace(bankCode)
	if !accountNumberPattern.MatchString(accountNumber) {
		return nil, apperror.Validation("account number must be 10 digits")
	}
	if bankCode == "" {
		return nil, apperror.Validation("bank code is required")
	}
	if _, err := s.store.WithContext(ctx).Influencers.GetByID(influencerID); err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("influencer not found", err)
		}
		return nil, err
	}

	resolved, err := s.gateway.ResolveAccount(ctx, accountNumber, bankCode)
	if err != nil || resolved.AccountName == "" {
		return nil, apperror.New(http.StatusBadRequest, "invalid bank details", err)
	}
	recipient, err := s.gateway.CreateTransferRecipient(ctx, payment.RecipientRequest{
		Name:          resolved.AccountName,
		AccountNumber: accountNumber,
		BankCode:      bankCode,
		Currency:      s.currency,
	})
	if err != nil {
		return nil, apperror.Gateway("could not register payout account", err)
	}
	if bankName == "" {
		bankName = recipient.BankName
	}

	account := &models.InfluencerBankAccount{
		InfluencerID:  influencerID,
		AccountNumber: accountNumber,
		BankCode:      bankCode,
		AccountName:   resolved.AccountName,
		BankName:      bankName,
		RecipientCode: recipient.RecipientCode,
		IsActive:      true,
		IsVerified:    true,
	}
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		if _, err := tx.Influencers.GetForUpdate(influencerID); err != nil {
			return err
		}
		if err := tx.BankAccounts.DeactivateAll(influencerID); err != nil {
			return err
		}
		return tx.BankAccounts.Create(account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *BankAccountService) GetActiveAccount(ctx context.Context, influencerID uint) (*models.InfluencerBankAccount, error) {
	account, err := s.store.WithContext(ctx).BankAccounts.GetActiveVerified(influencerID)
	if notFound(err) {
		return nil, apperror.NotFound("no active bank account", err)
	}
	return account, err
}

func (s *BankAccountService) ListBanks(ctx context.Context) ([]payment.Bank, error) {
	banks, err := s.gateway.ListBanks(ctx, s.currency)
	if err != nil {
		return nil, apperror.Gateway("could not load banks", err)
	}
	return banks, nil
}
