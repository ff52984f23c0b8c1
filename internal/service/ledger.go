package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"brandlink/internal/domain"
	"brandlink/internal/models"
	"brandlink/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// newReference returns a fresh, globally unique gateway reference.
func newReference(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func commissionRef(paymentRef string, attempt int) string {
	return fmt.Sprintf("%s_%s_%d", domain.RefCommission, paymentRef, attempt)
}

func payoutRef(paymentRef string) string { return domain.RefPayout + "_" + paymentRef }
func creditRef(paymentRef string) string { return domain.RefWalletCredit + "_" + paymentRef }
func reversalRef(withdrawRef string) string { return domain.RefReversal + "_" + withdrawRef }

// validMoney reports whether amount is positive and has no more than two
// decimal places.
func validMoney(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(models.MoneyPlaces))
}

// parseCommissionRef splits a commission reference into the payment
// reference and the attempt number.
func parseCommissionRef(ref string) (string, int, bool) {
	rest := strings.TrimPrefix(ref, domain.RefCommission+"_")
	i := strings.LastIndex(rest, "_")
	if rest == ref || i <= 0 {
		return "", 0, false
	}
	attempt, err := strconv.Atoi(rest[i+1:])
	if err != nil {
		return "", 0, false
	}
	return rest[:i], attempt, true
}

// truncate cuts s to at most n bytes without splitting a character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// creditInfluencerWallet moves t's influencer amount into the influencer's
// wallet. A credit already recorded under the same reference is not repeated.
// Must run inside Store.Atomic.
func creditInfluencerWallet(tx *repository.Store, influencer *models.Influencer, t *models.Transaction) error {
	ref := creditRef(t.PaymentReference)
	exists, err := tx.Wallets.EntryExists(ref)
	if err != nil {
		return err
	}
	if !exists {
		w, err := tx.Wallets.GetOrCreateForUpdate(influencer.UserID, domain.UserTypeInfluencer, t.Currency)
		if err != nil {
			return fmt.Errorf("load wallet: %w", err)
		}
		campaignID := t.CampaignID
		entry, err := w.Credit(models.Entry{
			Amount:      t.InfluencerAmount,
			SourceType:  domain.SourceCampaignPayment,
			SourceID:    &campaignID,
			Reference:   ref,
			Description: fmt.Sprintf("Payment for campaign #%d", t.CampaignID),
		})
		if err != nil {
			return err
		}
		if err := tx.Wallets.Save(w); err != nil {
			return fmt.Errorf("save wallet: %w", err)
		}
		if err := tx.Wallets.CreateEntry(entry); err != nil {
			return fmt.Errorf("write ledger entry: %w", err)
		}
	}
	t.InfluencerPayoutStatus = domain.TransferStatusCompleted
	t.PayoutChannel = domain.PayoutPlatformWallet
	return nil
}

// reverseWithdrawal returns a failed withdrawal to the wallet. Reporting the
// same failure twice reverses once. Must run inside Store.Atomic.
func reverseWithdrawal(tx *repository.Store, withdrawRef, reason string) (*models.WalletTransaction, error) {
	debit, err := tx.Wallets.GetEntryByReference(withdrawRef)
	if err != nil {
		return nil, err
	}
	if debit.Type != domain.EntryDebit {
		return nil, fmt.Errorf("entry %s is not a debit", withdrawRef)
	}
	ref := reversalRef(withdrawRef)
	exists, err := tx.Wallets.EntryExists(ref)
	if err != nil || exists {
		return nil, err
	}
	w, err := tx.Wallets.GetForUpdate(debit.UserID, domain.UserTypeInfluencer)
	if err != nil {
		return nil, err
	}
	desc := "Reversal of withdrawal " + withdrawRef
	if reason = strings.TrimSpace(reason); reason != "" {
		desc += ": " + reason
	}
	entry, err := w.Reverse(models.Entry{
		Amount:      debit.Amount,
		SourceType:  domain.SourceWithdrawalReversal,
		SourceID:    &debit.ID,
		Reference:   ref,
		Description: truncate(desc, 255),
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Wallets.Save(w); err != nil {
		return nil, err
	}
	if err := tx.Wallets.CreateEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
