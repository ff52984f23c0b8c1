package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"brandlink/internal/apperror"
	"brandlink/internal/domain"
	"brandlink/internal/models"
	"brandlink/internal/repository"
	"brandlink/pkg/payment"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	errNoBankAccount = errors.New("no verified bank account")
	// errTransferNotRecorded marks a transfer outcome that arrived before
	// the transfer's reference was committed. The event is kept for replay.
	errTransferNotRecorded = errors.New("transfer reference not recorded yet")
)

type SettlementConfig struct {
	CommissionRate        decimal.Decimal
	PlatformRecipientCode string
	Currency              string
}

// SettlementService takes a brand's campaign payment from checkout to the
// influencer: it opens the charge, and once the processor confirms it, pays
// the platform commission and the influencer's share.
type SettlementService struct {
	store    *repository.Store
	gateway  payment.Gateway
	notifier Notifier
	cfg      SettlementConfig
}

func NewSettlementService(store *repository.Store, gateway payment.Gateway, notifier Notifier, cfg SettlementConfig) *SettlementService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.Currency == "" {
		cfg.Currency = "NGN"
	}
	return &SettlementService{store: store, gateway: gateway, notifier: notifier, cfg: cfg}
}

type InitiatePaymentInput struct {
	CampaignID   uint
	BrandID      uint
	InfluencerID uint
	Amount       decimal.Decimal
	BrandEmail   string
	CallbackURL  string
}

func (in InitiatePaymentInput) validate() error {
	switch {
	case !validMoney(in.Amount):
		return apperror.Validation("amount must be greater than zero with at most two decimal places")
	case in.CampaignID == 0:
		return apperror.Validation("campaign_id is required")
	case in.BrandID == 0:
		return apperror.Validation("brand_id is required")
	case in.InfluencerID == 0:
		return apperror.Validation("influencer_id is required")
	case strings.TrimSpace(in.BrandEmail) == "":
		return apperror.Validation("brand email is required")
	}
	return nil
}

// InitiatePayment records a pending transaction and opens a hosted checkout
// for it. Nothing is persisted if the processor refuses the charge.
func (s *SettlementService) InitiatePayment(ctx context.Context, in InitiatePaymentInput) (*models.Transaction, string, error) {
	if err := in.validate(); err != nil {
		return nil, "", err
	}
	var t *models.Transaction
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		influencer, err := tx.Influencers.GetByID(in.InfluencerID)
		if notFound(err) {
			return apperror.NotFound("influencer not found", err)
		}
		if err != nil {
			return err
		}
		campaign, err := tx.Campaigns.GetByID(in.CampaignID)
		if notFound(err) {
			return apperror.NotFound("campaign not found", err)
		}
		if err != nil {
			return err
		}
		if campaign.BrandID != in.BrandID {
			return apperror.Validation("campaign does not belong to this brand")
		}

		commission, share := models.SplitCommission(in.Amount, s.cfg.CommissionRate)
		t = &models.Transaction{
			CampaignID:                 in.CampaignID,
			BrandID:                    in.BrandID,
			InfluencerID:               in.InfluencerID,
			TotalAmount:                in.Amount,
			PlatformCommission:         commission,
			InfluencerAmount:           share,
			Currency:                   s.cfg.Currency,
			PaymentMethod:              domain.PaymentMethodImmediateSplit,
			InfluencerPayoutPreference: influencer.Preference(),
			PaymentReference:           newReference(domain.RefPurposeCampaign),
			PaymentStatus:              domain.PaymentStatusPending,
			CommissionTransferStatus:   domain.TransferStatusPending,
			InfluencerPayoutStatus:     domain.TransferStatusPending,
			Metadata: datatypes.JSONMap{
				"campaign_id":   in.CampaignID,
				"brand_id":      in.BrandID,
				"influencer_id": in.InfluencerID,
			},
		}
		if err := tx.Transactions.Create(t); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		charge, err := s.gateway.InitializeCharge(ctx, payment.ChargeRequest{
			Email:       in.BrandEmail,
			Amount:      in.Amount,
			Currency:    s.cfg.Currency,
			Reference:   t.PaymentReference,
			CallbackURL: in.CallbackURL,
			Metadata: map[string]interface{}{
				"campaign_id":   in.CampaignID,
				"brand_id":      in.BrandID,
				"influencer_id": in.InfluencerID,
			},
		})
		if err != nil {
			return apperror.Gateway("could not initialize payment", err)
		}
		t.AuthorizationURL = charge.AuthorizationURL
		t.AccessCode = charge.AccessCode
		return tx.Transactions.Update(t)
	})
	if err != nil {
		return nil, "", err
	}
	log.Printf("[Settlement] initiated %s total=%s commission=%s influencer=%s",
		t.PaymentReference, t.TotalAmount, t.PlatformCommission, t.InfluencerAmount)
	return t, t.AuthorizationURL, nil
}

// ChargeEvent is the processor's verdict on a checkout.
type ChargeEvent struct {
	Reference            string
	Success              bool
	GatewayTransactionID string
	Amount               decimal.Decimal // zero when not reported
}

// HandlePaymentWebhook settles a confirmed charge. Repeated or concurrent
// deliveries for the same reference settle it once.
//
// The pending to processing claim commits before settlement starts, so a
// settlement that fails midway leaves the row in processing for the
// reconciliation job to report instead of settling it a second time.
func (s *SettlementService) HandlePaymentWebhook(ctx context.Context, ev ChargeEvent) error {
	store := s.store.WithContext(ctx)
	t, err := store.Transactions.GetByReference(ev.Reference)
	if notFound(err) {
		return apperror.NotFound("transaction not found", err)
	}
	if err != nil {
		return err
	}
	switch t.PaymentStatus {
	case domain.PaymentStatusCompleted, domain.PaymentStatusProcessing:
		log.Printf("[Settlement] %s already %s, ignoring", t.PaymentReference, t.PaymentStatus)
		return nil
	case domain.PaymentStatusFailed:
		log.Printf("[Settlement] %s already failed, ignoring", t.PaymentReference)
		return nil
	}

	if ev.Success && !ev.Amount.IsZero() && !ev.Amount.Equal(t.TotalAmount) {
		log.Printf("[Settlement] %s charged %s, expected %s", t.PaymentReference, ev.Amount, t.TotalAmount)
		ev.Success = false
	}
	if !ev.Success {
		marked, err := store.Transactions.MarkFailed(t.ID, ev.GatewayTransactionID)
		if err != nil {
			return err
		}
		if marked {
			log.Printf("[Settlement] %s charge failed", t.PaymentReference)
		}
		return nil
	}

	claimed, err := store.Transactions.Claim(t.ID, ev.GatewayTransactionID)
	if err != nil {
		return err
	}
	if !claimed {
		log.Printf("[Settlement] %s claimed by another delivery", t.PaymentReference)
		return nil
	}

	var influencer *models.Influencer
	var settled *models.Transaction
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		t, err := tx.Transactions.GetForUpdate(t.ID)
		if err != nil {
			return err
		}
		influencer, err = tx.Influencers.GetByID(t.InfluencerID)
		if err != nil {
			return fmt.Errorf("load influencer: %w", err)
		}
		if err := s.transferCommission(ctx, t); err != nil {
			log.Printf("[Settlement] %s commission transfer failed, will retry: %v", t.PaymentReference, err)
		}
		if err := s.payInfluencer(ctx, tx, influencer, t); err != nil {
			return err
		}
		now := time.Now()
		t.PaymentStatus = domain.PaymentStatusCompleted
		t.SettledAt = &now
		if err := tx.Transactions.Update(t); err != nil {
			return err
		}
		if err := tx.Campaigns.AddPayment(t.CampaignID, t.TotalAmount, t.PlatformCommission); err != nil {
			return fmt.Errorf("update campaign totals: %w", err)
		}
		settled = t
		return nil
	})
	if err != nil {
		log.Printf("[Settlement] %s settlement aborted, left in processing: %v", t.PaymentReference, err)
		return err
	}
	log.Printf("[Settlement] %s completed commission=%s payout=%s via %s",
		settled.PaymentReference, settled.CommissionTransferStatus, settled.InfluencerPayoutStatus, settled.PayoutChannel)
	s.notifier.PayoutReceived(ctx, influencer, settled)
	return nil
}

// transferCommission sends the platform's cut. Each attempt gets its own
// reference so the processor can tell a retry from a replay. The outcome is
// recorded on t; the caller persists it.
func (s *SettlementService) transferCommission(ctx context.Context, t *models.Transaction) error {
	if !t.PlatformCommission.IsPositive() {
		t.CommissionTransferStatus = domain.TransferStatusCompleted
		return nil
	}
	t.CommissionAttempts++
	t.CommissionTransferRef = commissionRef(t.PaymentReference, t.CommissionAttempts)
	if s.cfg.PlatformRecipientCode == "" {
		t.CommissionTransferStatus = domain.TransferStatusFailed
		return errors.New("platform recipient code not configured")
	}
	tr, err := s.gateway.InitiateTransfer(ctx, payment.TransferRequest{
		Amount:        t.PlatformCommission,
		Currency:      t.Currency,
		RecipientCode: s.cfg.PlatformRecipientCode,
		Reference:     t.CommissionTransferRef,
		Reason:        "Platform commission " + t.PaymentReference,
	})
	if err == nil {
		err = transferRefused(tr)
	}
	if err != nil {
		t.CommissionTransferStatus = domain.TransferStatusFailed
		return err
	}
	t.CommissionTransferID = transferID(tr)
	t.CommissionTransferStatus = domain.TransferStatusCompleted
	return nil
}

// payInfluencer pays the influencer's share to their bank when they asked
// for that and can be paid there, and to their wallet otherwise.
func (s *SettlementService) payInfluencer(ctx context.Context, tx *repository.Store, influencer *models.Influencer, t *models.Transaction) error {
	if !t.InfluencerAmount.IsPositive() {
		t.InfluencerPayoutStatus = domain.TransferStatusCompleted
		return nil
	}
	if t.InfluencerPayoutPreference == domain.PayoutDirectBank {
		err := s.payToBank(ctx, tx, t)
		if err == nil {
			return nil
		}
		log.Printf("[Settlement] %s bank payout failed, crediting wallet: %v", t.PaymentReference, err)
		t.PayoutFailureReason = truncate(err.Error(), 255)
	}
	if err := creditInfluencerWallet(tx, influencer, t); err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	return nil
}

func (s *SettlementService) payToBank(ctx context.Context, tx *repository.Store, t *models.Transaction) error {
	account, err := tx.BankAccounts.GetActiveVerified(t.InfluencerID)
	if notFound(err) {
		return errNoBankAccount
	}
	if err != nil {
		return err
	}
	t.InfluencerTransferRef = payoutRef(t.PaymentReference)
	tr, err := s.gateway.InitiateTransfer(ctx, payment.TransferRequest{
		Amount:        t.InfluencerAmount,
		Currency:      t.Currency,
		RecipientCode: account.RecipientCode,
		Reference:     t.InfluencerTransferRef,
		Reason:        fmt.Sprintf("Campaign #%d payment", t.CampaignID),
	})
	if err == nil {
		err = transferRefused(tr)
	}
	if err != nil {
		t.InfluencerPayoutStatus = domain.TransferStatusFailed
		return err
	}
	t.InfluencerTransferID = transferID(tr)
	t.InfluencerPayoutStatus = domain.TransferStatusCompleted
	t.PayoutChannel = domain.PayoutDirectBank
	return nil
}

// TransferEvent is the processor's final word on a transfer it accepted
// earlier.
type TransferEvent struct {
	Reference    string
	TransferCode string
	Success      bool
	Reason       string
}

// HandleTransferEvent applies an asynchronous transfer outcome. The
// reference prefix tells commission, payout and withdrawal transfers apart.
func (s *SettlementService) HandleTransferEvent(ctx context.Context, ev TransferEvent) error {
	switch {
	case strings.HasPrefix(ev.Reference, domain.RefCommission+"_"):
		return s.commissionOutcome(ctx, ev)
	case strings.HasPrefix(ev.Reference, domain.RefPayout+"_"):
		return s.payoutOutcome(ctx, ev)
	case strings.HasPrefix(ev.Reference, domain.RefWithdrawal+"_"):
		return s.withdrawalOutcome(ctx, ev)
	}
	log.Printf("[Settlement] transfer %s: unknown reference, ignoring", ev.Reference)
	return nil
}

func (s *SettlementService) commissionOutcome(ctx context.Context, ev TransferEvent) error {
	store := s.store.WithContext(ctx)
	row, err := store.Transactions.GetByCommissionRef(ev.Reference)
	if notFound(err) {
		return s.unmatchedCommission(store, ev.Reference)
	}
	if err != nil {
		return err
	}
	return s.store.Atomic(ctx, func(tx *repository.Store) error {
		t, err := tx.Transactions.GetForUpdate(row.ID)
		if err != nil {
			return err
		}
		if t.CommissionTransferRef != ev.Reference {
			// an older attempt; the current one decides
			return nil
		}
		if ev.Success {
			t.CommissionTransferStatus = domain.TransferStatusCompleted
		} else {
			t.CommissionTransferStatus = domain.TransferStatusFailed
			log.Printf("[Settlement] commission %s failed: %s", ev.Reference, ev.Reason)
		}
		if ev.TransferCode != "" {
			t.CommissionTransferID = ev.TransferCode
		}
		return tx.Transactions.Update(t)
	})
}

// unmatchedCommission tells a superseded attempt, which is ignored, from
// one whose settlement has not committed yet.
func (s *SettlementService) unmatchedCommission(store *repository.Store, ref string) error {
	paymentRef, attempt, ok := parseCommissionRef(ref)
	if !ok {
		log.Printf("[Settlement] commission transfer %s: malformed reference, ignoring", ref)
		return nil
	}
	t, err := store.Transactions.GetByReference(paymentRef)
	if notFound(err) {
		return fmt.Errorf("commission %s: %w", ref, errTransferNotRecorded)
	}
	if err != nil {
		return err
	}
	if attempt <= t.CommissionAttempts {
		log.Printf("[Settlement] commission transfer %s superseded by attempt %d, ignoring", ref, t.CommissionAttempts)
		return nil
	}
	return fmt.Errorf("commission %s: %w", ref, errTransferNotRecorded)
}

// payoutOutcome handles a bank payout the processor accepted and later
// resolved. A failed or reversed payout is credited to the wallet instead.
func (s *SettlementService) payoutOutcome(ctx context.Context, ev TransferEvent) error {
	row, err := s.store.WithContext(ctx).Transactions.GetByInfluencerTransferRef(ev.Reference)
	if notFound(err) {
		return fmt.Errorf("payout %s: %w", ev.Reference, errTransferNotRecorded)
	}
	if err != nil {
		return err
	}
	var influencer *models.Influencer
	var credited *models.Transaction
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		t, err := tx.Transactions.GetForUpdate(row.ID)
		if err != nil {
			return err
		}
		if t.PayoutChannel != domain.PayoutDirectBank {
			return nil
		}
		if ev.Success {
			t.InfluencerPayoutStatus = domain.TransferStatusCompleted
			return tx.Transactions.Update(t)
		}
		influencer, err = tx.Influencers.GetByID(t.InfluencerID)
		if err != nil {
			return err
		}
		log.Printf("[Settlement] payout %s failed (%s), crediting wallet", ev.Reference, ev.Reason)
		t.PayoutFailureReason = truncate(ev.Reason, 255)
		if err := creditInfluencerWallet(tx, influencer, t); err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}
		if err := tx.Transactions.Update(t); err != nil {
			return err
		}
		credited = t
		return nil
	})
	if err != nil {
		return err
	}
	if credited != nil {
		s.notifier.PayoutReceived(ctx, influencer, credited)
	}
	return nil
}

func (s *SettlementService) withdrawalOutcome(ctx context.Context, ev TransferEvent) error {
	if ev.Success {
		log.Printf("[Settlement] withdrawal %s paid out", ev.Reference)
		return nil
	}
	var reversal *models.WalletTransaction
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		var err error
		reversal, err = reverseWithdrawal(tx, ev.Reference, ev.Reason)
		return err
	})
	if notFound(err) {
		return fmt.Errorf("withdrawal %s: %w", ev.Reference, errTransferNotRecorded)
	}
	if err != nil {
		return err
	}
	if reversal != nil {
		log.Printf("[Settlement] withdrawal %s reversed, %s returned to wallet %d", ev.Reference, reversal.Amount, reversal.WalletID)
	}
	return nil
}

// VerifyPayment asks the processor about a pending charge and settles it
// when the outcome is final. Used by the checkout return page, where the
// webhook may not have arrived yet.
func (s *SettlementService) VerifyPayment(ctx context.Context, reference string) (*models.Transaction, error) {
	store := s.store.WithContext(ctx)
	t, err := store.Transactions.GetByReference(reference)
	if notFound(err) {
		return nil, apperror.NotFound("transaction not found", err)
	}
	if err != nil {
		return nil, err
	}
	if t.PaymentStatus != domain.PaymentStatusPending {
		return t, nil
	}
	v, err := s.gateway.VerifyCharge(ctx, reference)
	if err != nil {
		return nil, apperror.Gateway("could not verify payment", err)
	}
	if !v.Final() {
		return t, nil
	}
	err = s.HandlePaymentWebhook(ctx, ChargeEvent{
		Reference:            reference,
		Success:              v.Succeeded(),
		GatewayTransactionID: v.GatewayID,
		Amount:               v.Amount,
	})
	if err != nil {
		return nil, err
	}
	return store.Transactions.GetByID(t.ID)
}

func transferRefused(tr *payment.Transfer) error {
	if tr.Status == payment.TransferFailed || tr.Status == payment.TransferReversed {
		return fmt.Errorf("transfer %s %s", tr.Reference, tr.Status)
	}
	return nil
}

func transferID(tr *payment.Transfer) string {
	if tr.TransferCode != "" {
		return tr.TransferCode
	}
	return tr.ID
}
