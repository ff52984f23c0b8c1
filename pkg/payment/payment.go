package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway is the payment processor as seen by the settlement engine. Calls
// are single attempts; retrying is the caller's decision.
type Gateway interface {
	InitializeCharge(ctx context.Context, req ChargeRequest) (*ChargeInit, error)
	VerifyCharge(ctx context.Context, reference string) (*ChargeVerification, error)
	CreateTransferRecipient(ctx context.Context, req RecipientRequest) (*TransferRecipient, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error)
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*AccountResolution, error)
	ListBanks(ctx context.Context, currency string) ([]Bank, error)
}

type ChargeRequest struct {
	Email       string
	Amount      decimal.Decimal // major unit
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]interface{}
}

type ChargeInit struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Charge statuses reported by the processor.
const (
	ChargeSuccess   = "success"
	ChargeFailed    = "failed"
	ChargeAbandoned = "abandoned"
	ChargeReversed  = "reversed"
)

type ChargeVerification struct {
	GatewayID string
	Reference string
	Status    string
	Amount    decimal.Decimal // major unit
	Currency  string
	PaidAt    *time.Time
	Message   string
}

func (v *ChargeVerification) Succeeded() bool { return v.Status == ChargeSuccess }

// Final reports whether the charge can no longer change outcome.
func (v *ChargeVerification) Final() bool {
	return v.Status == ChargeSuccess || v.Status == ChargeFailed || v.Status == ChargeReversed
}

type RecipientRequest struct {
	Name          string
	AccountNumber string
	BankCode      string
	Currency      string
}

type TransferRecipient struct {
	RecipientCode string
	Name          string
	AccountNumber string
	BankName      string
}

type TransferRequest struct {
	Amount        decimal.Decimal // major unit
	Currency      string
	RecipientCode string
	Reference     string
	Reason        string
}

// Transfer statuses reported by the processor.
const (
	TransferSuccess  = "success"
	TransferPending  = "pending"
	TransferFailed   = "failed"
	TransferReversed = "reversed"
)

type Transfer struct {
	ID           string
	TransferCode string
	Reference    string
	Status       string
}

type AccountResolution struct {
	AccountNumber string
	AccountName   string
	BankID        int64
}

type Bank struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Slug     string `json:"slug"`
	Currency string `json:"currency"`
}

// APIError carries the processor's own message for a rejected call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: %d %s", e.StatusCode, e.Message)
}

// Rejected reports whether the processor refused the request itself (4xx),
// as opposed to being unreachable or failing internally.
func Rejected(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount (e.g. naira) to the minor unit
// (kobo) the processor works in.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts processor minor units back to the major unit.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
