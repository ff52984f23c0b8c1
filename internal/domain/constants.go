package domain

const (
	RoleBrand      = "BRAND"
	RoleInfluencer = "INFLUENCER"
	RoleAdmin      = "ADMIN"
)

// Wallet owner types.
const (
	UserTypeInfluencer = "influencer"
	UserTypeBrand      = "brand"
)

const (
	PaymentMethodImmediateSplit = "immediate_split"
	PaymentMethodEscrow         = "escrow"         // reserved
	PaymentMethodManualRelease  = "manual_release" // reserved
)

const (
	PayoutDirectBank     = "direct_bank"
	PayoutPlatformWallet = "platform_wallet"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
)

// Commission transfer and influencer payout share these.
const (
	TransferStatusPending   = "pending"
	TransferStatusCompleted = "completed"
	TransferStatusFailed    = "failed"
)

const (
	EntryCredit = "credit"
	EntryDebit  = "debit"
)

const (
	SourceCampaignPayment    = "campaign_payment"
	SourceWalletWithdrawal   = "wallet_withdrawal"
	SourceWithdrawalReversal = "withdrawal_reversal"
)

const (
	EntryStatusCompleted = "completed"
)

// Reference prefixes.
const (
	RefPurposeCampaign = "CAMPAIGN"
	RefCommission      = "comm"
	RefPayout          = "payout"
	RefWalletCredit    = "credit"
	RefWithdrawal      = "wdr"
	RefReversal        = "rev"
)

const (
	SubscriptionActive       = "active"
	SubscriptionNonRenewing  = "non-renewing"
	SubscriptionAttention    = "attention"
	SubscriptionCancelled    = "cancelled"
	SubscriptionPaymentIssue = "payment_failed"
)

const ProviderPaystack = "paystack"
