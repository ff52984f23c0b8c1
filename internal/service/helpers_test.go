package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"brandlink/internal/database"
	"brandlink/internal/domain"
	"brandlink/internal/models"
	"brandlink/internal/repository"
	"brandlink/pkg/payment"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection: transactions serialize like row locks would
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeGateway records every call. Hooks decide outcomes; nil hooks succeed.
type fakeGateway struct {
	mu        sync.Mutex
	charges   []payment.ChargeRequest
	transfers []payment.TransferRequest
	resolves  int
	recipient int

	chargeErr   error
	transferErr func(req payment.TransferRequest) error
	// transferStatus overrides the status of an accepted transfer
	transferStatus func(req payment.TransferRequest) string
	resolveErr  error
	verify      *payment.ChargeVerification
}

func (g *fakeGateway) InitializeCharge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeInit, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges = append(g.charges, req)
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	return &payment.ChargeInit{
		AuthorizationURL: "https://checkout.test/" + req.Reference,
		AccessCode:       "ac_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (g *fakeGateway) VerifyCharge(ctx context.Context, reference string) (*payment.ChargeVerification, error) {
	if g.verify == nil {
		return &payment.ChargeVerification{Reference: reference, Status: "ongoing"}, nil
	}
	v := *g.verify
	v.Reference = reference
	return &v, nil
}

func (g *fakeGateway) CreateTransferRecipient(ctx context.Context, req payment.RecipientRequest) (*payment.TransferRecipient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recipient++
	return &payment.TransferRecipient{
		RecipientCode: fmt.Sprintf("RCP_%s_%d", req.AccountNumber, g.recipient),
		Name:          req.Name,
		AccountNumber: req.AccountNumber,
		BankName:      "Test Bank",
	}, nil
}

func (g *fakeGateway) InitiateTransfer(ctx context.Context, req payment.TransferRequest) (*payment.Transfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transfers = append(g.transfers, req)
	if g.transferErr != nil {
		if err := g.transferErr(req); err != nil {
			return nil, err
		}
	}
	status := payment.TransferSuccess
	if g.transferStatus != nil {
		status = g.transferStatus(req)
	}
	return &payment.Transfer{
		ID:           fmt.Sprintf("%d", len(g.transfers)),
		TransferCode: "TRF_" + req.Reference,
		Reference:    req.Reference,
		Status:       status,
	}, nil
}

func (g *fakeGateway) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*payment.AccountResolution, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resolves++
	if g.resolveErr != nil {
		return nil, g.resolveErr
	}
	return &payment.AccountResolution{AccountNumber: accountNumber, AccountName: "ADA LOVELACE"}, nil
}

func (g *fakeGateway) ListBanks(ctx context.Context, currency string) ([]payment.Bank, error) {
	return []payment.Bank{{Name: "Test Bank", Code: "058", Currency: currency}}, nil
}

func (g *fakeGateway) transfersWithPrefix(prefix string) []payment.TransferRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []payment.TransferRequest
	for _, tr := range g.transfers {
		if strings.HasPrefix(tr.Reference, prefix) {
			out = append(out, tr)
		}
	}
	return out
}

func (g *fakeGateway) transferCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.transfers)
}

func failRefsWithPrefix(prefix string) func(payment.TransferRequest) error {
	return func(req payment.TransferRequest) error {
		if strings.HasPrefix(req.Reference, prefix) {
			return &payment.APIError{StatusCode: 400, Message: "Insufficient balance"}
		}
		return nil
	}
}

// recordingNotifier remembers what it was told.
type recordingNotifier struct {
	mu      sync.Mutex
	payouts []string
	debits  []string
}

func (n *recordingNotifier) PayoutReceived(ctx context.Context, influencer *models.Influencer, t *models.Transaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payouts = append(n.payouts, t.PaymentReference)
}

func (n *recordingNotifier) WalletDebited(ctx context.Context, influencer *models.Influencer, entry *models.WalletTransaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.debits = append(n.debits, entry.Reference)
}

type fixture struct {
	db         *gorm.DB
	store      *repository.Store
	gateway    *fakeGateway
	notifier   *recordingNotifier
	settlement *SettlementService
	wallets    *WalletService
	banks      *BankAccountService

	brandUser      models.User
	brand          models.Brand
	influencerUser models.User
	influencer     models.Influencer
	campaign       models.Campaign
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:       db,
		store:    repository.NewStore(db),
		gateway:  &fakeGateway{},
		notifier: &recordingNotifier{},
	}
	f.settlement = NewSettlementService(f.store, f.gateway, f.notifier, SettlementConfig{
		CommissionRate:        dec("0.08"),
		PlatformRecipientCode: "RCP_platform",
		Currency:              "NGN",
	})
	f.wallets = NewWalletService(f.store, f.gateway, f.notifier, "NGN")
	f.banks = NewBankAccountService(f.store, f.gateway, "NGN")

	f.brandUser = models.User{Email: "brand@example.com", Role: domain.RoleBrand}
	require.NoError(t, f.store.Users.Create(&f.brandUser))
	f.brand = models.Brand{UserID: f.brandUser.ID, CompanyName: "Acme"}
	require.NoError(t, f.store.Brands.Create(&f.brand))
	f.influencerUser = models.User{Email: "ada@example.com", Role: domain.RoleInfluencer}
	require.NoError(t, f.store.Users.Create(&f.influencerUser))
	f.influencer = models.Influencer{UserID: f.influencerUser.ID, DisplayName: "Ada", PayoutPreference: domain.PayoutDirectBank}
	require.NoError(t, f.store.Influencers.Create(&f.influencer))
	f.campaign = models.Campaign{BrandID: f.brand.ID, Title: "Launch", Budget: dec("5000")}
	require.NoError(t, f.store.Campaigns.Create(&f.campaign))
	return f
}

func (f *fixture) addBankAccount(t *testing.T) *models.InfluencerBankAccount {
	t.Helper()
	acct, err := f.banks.AddInfluencerBankAccount(context.Background(), f.influencer.ID, "0123456789", "058", "GTBank")
	require.NoError(t, err)
	return acct
}

func (f *fixture) initiate(t *testing.T, amount string) *models.Transaction {
	t.Helper()
	tx, _, err := f.settlement.InitiatePayment(context.Background(), InitiatePaymentInput{
		CampaignID:   f.campaign.ID,
		BrandID:      f.brand.ID,
		InfluencerID: f.influencer.ID,
		Amount:       dec(amount),
		BrandEmail:   f.brandUser.Email,
	})
	require.NoError(t, err)
	return tx
}

func (f *fixture) settle(t *testing.T, tx *models.Transaction) *models.Transaction {
	t.Helper()
	require.NoError(t, f.settlement.HandlePaymentWebhook(context.Background(), ChargeEvent{
		Reference:            tx.PaymentReference,
		Success:              true,
		GatewayTransactionID: "4099",
		Amount:               tx.TotalAmount,
	}))
	return f.reload(t, tx.ID)
}

func (f *fixture) reload(t *testing.T, id uint) *models.Transaction {
	t.Helper()
	got, err := f.store.Transactions.GetByID(id)
	require.NoError(t, err)
	return got
}

func (f *fixture) wallet(t *testing.T) *models.Wallet {
	t.Helper()
	w, err := f.store.Wallets.GetByOwner(f.influencerUser.ID, domain.UserTypeInfluencer)
	require.NoError(t, err)
	return w
}

// fundWallet credits the influencer's wallet through a settled wallet payout.
func (f *fixture) fundWallet(t *testing.T, amount string) {
	t.Helper()
	f.setPreference(t, domain.PayoutPlatformWallet)
	f.settle(t, f.initiate(t, amount))
	f.setPreference(t, domain.PayoutDirectBank)
}

func (f *fixture) setPreference(t *testing.T, pref string) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Influencer{}).Where("id = ?", f.influencer.ID).
		Update("payout_preference", pref).Error)
}

func waitPast(d time.Duration) {
	time.Sleep(d + 5*time.Millisecond)
}
