package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// PaystackClient talks to the Paystack REST API. The secret key rides on
// every request as a bearer token.
type PaystackClient struct {
	BaseURL string
	client  *http.Client
}

func NewPaystackClient(baseURL, secretKey string, timeout time.Duration) *PaystackClient {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: secretKey, TokenType: "Bearer"})
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	hc := oauth2.NewClient(ctx, src)
	hc.Timeout = timeout
	return &PaystackClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  hc,
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *PaystackClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("paystack %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("[Paystack] %s %s status=%d", method, path, resp.StatusCode)

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("paystack %s: decode: %w", path, decodeErr)
	}
	if !env.Status {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("paystack %s: decode data: %w", path, err)
	}
	return nil
}

type initializeReq struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"`
	Currency    string                 `json:"currency,omitempty"`
	Reference   string                 `json:"reference"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type initializeResp struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

func (p *PaystackClient) InitializeCharge(ctx context.Context, req ChargeRequest) (*ChargeInit, error) {
	payload := initializeReq{
		Email:       req.Email,
		Amount:      ToMinorUnits(req.Amount),
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}
	var out initializeResp
	if err := p.do(ctx, http.MethodPost, "/transaction/initialize", payload, &out); err != nil {
		return nil, err
	}
	return &ChargeInit{
		AuthorizationURL: out.AuthorizationURL,
		AccessCode:       out.AccessCode,
		Reference:        out.Reference,
	}, nil
}

type verifyResp struct {
	ID              int64      `json:"id"`
	Status          string     `json:"status"`
	Reference       string     `json:"reference"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	PaidAt          *time.Time `json:"paid_at"`
	GatewayResponse string     `json:"gateway_response"`
}

func (p *PaystackClient) VerifyCharge(ctx context.Context, reference string) (*ChargeVerification, error) {
	var out verifyResp
	if err := p.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &out); err != nil {
		return nil, err
	}
	return &ChargeVerification{
		GatewayID: strconv.FormatInt(out.ID, 10),
		Reference: out.Reference,
		Status:    out.Status,
		Amount:    FromMinorUnits(out.Amount),
		Currency:  out.Currency,
		PaidAt:    out.PaidAt,
		Message:   out.GatewayResponse,
	}, nil
}

type recipientReq struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Currency      string `json:"currency,omitempty"`
}

type recipientResp struct {
	RecipientCode string `json:"recipient_code"`
	Name          string `json:"name"`
	Details       struct {
		AccountNumber string `json:"account_number"`
		BankName      string `json:"bank_name"`
	} `json:"details"`
}

func (p *PaystackClient) CreateTransferRecipient(ctx context.Context, req RecipientRequest) (*TransferRecipient, error) {
	payload := recipientReq{
		Type:          "nuban",
		Name:          req.Name,
		AccountNumber: req.AccountNumber,
		BankCode:      req.BankCode,
		Currency:      req.Currency,
	}
	var out recipientResp
	if err := p.do(ctx, http.MethodPost, "/transferrecipient", payload, &out); err != nil {
		return nil, err
	}
	return &TransferRecipient{
		RecipientCode: out.RecipientCode,
		Name:          out.Name,
		AccountNumber: out.Details.AccountNumber,
		BankName:      out.Details.BankName,
	}, nil
}

type transferReq struct {
	Source    string `json:"source"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency,omitempty"`
	Recipient string `json:"recipient"`
	Reference string `json:"reference"`
	Reason    string `json:"reason,omitempty"`
}

type transferResp struct {
	ID           int64  `json:"id"`
	TransferCode string `json:"transfer_code"`
	Reference    string `json:"reference"`
	Status       string `json:"status"`
}

func (p *PaystackClient) InitiateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	payload := transferReq{
		Source:    "balance",
		Amount:    ToMinorUnits(req.Amount),
		Currency:  req.Currency,
		Recipient: req.RecipientCode,
		Reference: req.Reference,
		Reason:    req.Reason,
	}
	var out transferResp
	if err := p.do(ctx, http.MethodPost, "/transfer", payload, &out); err != nil {
		return nil, err
	}
	log.Printf("[Paystack] transfer reference=%s code=%s status=%s", out.Reference, out.TransferCode, out.Status)
	return &Transfer{
		ID:           strconv.FormatInt(out.ID, 10),
		TransferCode: out.TransferCode,
		Reference:    out.Reference,
		Status:       out.Status,
	}, nil
}

type resolveResp struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankID        int64  `json:"bank_id"`
}

func (p *PaystackClient) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*AccountResolution, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)
	var out resolveResp
	if err := p.do(ctx, http.MethodGet, "/bank/resolve?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &AccountResolution{
		AccountNumber: out.AccountNumber,
		AccountName:   out.AccountName,
		BankID:        out.BankID,
	}, nil
}

func (p *PaystackClient) ListBanks(ctx context.Context, currency string) ([]Bank, error) {
	path := "/bank"
	if currency != "" {
		path += "?currency=" + url.QueryEscape(currency)
	}
	var out []Bank
	if err := p.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
