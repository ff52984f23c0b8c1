package payment

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StubGateway approves everything; used in development when no Paystack
// secret is configured.
type StubGateway struct{}

func (s *StubGateway) InitializeCharge(ctx context.Context, req ChargeRequest) (*ChargeInit, error) {
	return &ChargeInit{
		AuthorizationURL: "https://checkout.stub.local/" + req.Reference,
		AccessCode:       fmt.Sprintf("stub_%d", time.Now().UnixNano()),
		Reference:        req.Reference,
	}, nil
}

func (s *StubGateway) VerifyCharge(ctx context.Context, reference string) (*ChargeVerification, error) {
	now := time.Now()
	return &ChargeVerification{
		GatewayID: fmt.Sprintf("stub_%d", now.UnixNano()),
		Reference: reference,
		Status:    ChargeSuccess,
		PaidAt:    &now,
	}, nil
}

func (s *StubGateway) CreateTransferRecipient(ctx context.Context, req RecipientRequest) (*TransferRecipient, error) {
	return &TransferRecipient{
		RecipientCode: "RCP_stub_" + req.AccountNumber,
		Name:          req.Name,
		AccountNumber: req.AccountNumber,
	}, nil
}

func (s *StubGateway) InitiateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	return &Transfer{
		ID:           fmt.Sprintf("%d", time.Now().UnixNano()),
		TransferCode: "TRF_stub_" + strings.ToLower(req.Reference),
		Reference:    req.Reference,
		Status:       TransferSuccess,
	}, nil
}

func (s *StubGateway) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*AccountResolution, error) {
	return &AccountResolution{AccountNumber: accountNumber, AccountName: "STUB ACCOUNT HOLDER"}, nil
}

func (s *StubGateway) ListBanks(ctx context.Context, currency string) ([]Bank, error) {
	return []Bank{
		{Name: "Stub Bank", Code: "000", Slug: "stub-bank", Currency: currency},
	}, nil
}
