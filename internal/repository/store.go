package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories over one database handle. Inside Atomic the
// handle is the open transaction, so every repository call made through the
// callback's Store commits or rolls back together.
type Store struct {
	db *gorm.DB

	Users         *UserRepository
	Influencers   *InfluencerRepository
	Brands        *BrandRepository
	Campaigns     *CampaignRepository
	Transactions  *TransactionRepository
	Wallets       *WalletRepository
	BankAccounts  *BankAccountRepository
	Subscriptions *SubscriptionRepository
	WebhookEvents *WebhookEventRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Influencers:   NewInfluencerRepository(db),
		Brands:        NewBrandRepository(db),
		Campaigns:     NewCampaignRepository(db),
		Transactions:  NewTransactionRepository(db),
		Wallets:       NewWalletRepository(db),
		BankAccounts:  NewBankAccountRepository(db),
		Subscriptions: NewSubscriptionRepository(db),
		WebhookEvents: NewWebhookEventRepository(db),
	}
}

// WithContext returns a Store whose queries carry ctx.
func (s *Store) WithContext(ctx context.Context) *Store {
	return NewStore(s.db.WithContext(ctx))
}

// Atomic runs fn in a database transaction. It commits when fn returns nil
// and rolls back on an error or panic.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
