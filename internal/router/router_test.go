package router

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brandlink/config"
	"brandlink/internal/auth"
	"brandlink/internal/database"
	"brandlink/internal/domain"
	"brandlink/internal/models"
	"brandlink/internal/repository"
	"brandlink/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const webhookSecret = "whsec_test"

type testServer struct {
	t      *testing.T
	cfg    *config.Config
	engine *gin.Engine
	store  *repository.Store

	brandToken, influencerToken, adminToken string
	brand                                   models.Brand
	influencer                              models.Influencer
	campaign                                models.Campaign
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
		Server:     config.ServerConfig{Env: "test", RateLimit: 1000, RateWindow: time.Minute},
		JWT:        config.JWTConfig{AccessSecret: "jwt_test", AccessExpiry: time.Hour, Issuer: "brandlink"},
		Paystack:   config.PaystackConfig{WebhookSecret: webhookSecret, PlatformRecipientCode: "RCP_platform", Currency: "NGN"},
		Settlement: config.SettlementConfig{CommissionRate: decimal.RequireFromString("0.08"), MaxCommissionAttempts: 3, StuckAfter: time.Hour},
		Cloudinary: config.CloudinaryConfig{Folder: "statements"},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	engine, _ := Setup(cfg, db, &payment.StubGateway{}, nil)
	s := &testServer{t: t, cfg: cfg, engine: engine, store: repository.NewStore(db)}

	brandUser := models.User{Email: "brand@example.com", Role: domain.RoleBrand}
	require.NoError(t, s.store.Users.Create(&brandUser))
	s.brand = models.Brand{UserID: brandUser.ID, CompanyName: "Acme"}
	require.NoError(t, s.store.Brands.Create(&s.brand))
	infUser := models.User{Email: "ada@example.com", Role: domain.RoleInfluencer}
	require.NoError(t, s.store.Users.Create(&infUser))
	s.influencer = models.Influencer{UserID: infUser.ID, DisplayName: "Ada"}
	require.NoError(t, s.store.Influencers.Create(&s.influencer))
	s.campaign = models.Campaign{BrandID: s.brand.ID, Title: "Launch", Budget: decimal.RequireFromString("5000")}
	require.NoError(t, s.store.Campaigns.Create(&s.campaign))

	s.brandToken = s.token(brandUser.ID, brandUser.Email, domain.RoleBrand)
	s.influencerToken = s.token(infUser.ID, infUser.Email, domain.RoleInfluencer)
	s.adminToken = s.token(999, "ops@example.com", domain.RoleAdmin)
	return s
}

func (s *testServer) token(id uint, email, role string) string {
	tok, err := auth.GenerateAccessToken(&s.cfg.JWT, id, email, role)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) webhook(body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", signature)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func signBody(body []byte) string {
	mac := hmac.New(sha512.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v))
	}
	return env
}

// initiate opens a payment as the brand and returns its reference.
func (s *testServer) initiate(amount string) string {
	w := s.do(http.MethodPost, "/api/v1/payment/initiate", s.brandToken, gin.H{
		"campaign_id":   s.campaign.ID,
		"influencer_id": s.influencer.ID,
		"amount":        amount,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Reference        string `json:"reference"`
		AuthorizationURL string `json:"authorization_url"`
	}
	decode(s.t, w, &out)
	require.NotEmpty(s.t, out.AuthorizationURL)
	return out.Reference
}

func (s *testServer) chargeSuccess(ref string, kobo int64) *httptest.ResponseRecorder {
	body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":%d,"reference":%q,"status":"success","amount":%d}}`,
		time.Now().UnixNano(), ref, kobo))
	return s.webhook(body, signBody(body))
}

func TestInitiateRequiresBrand(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"campaign_id": s.campaign.ID, "influencer_id": s.influencer.ID, "amount": "100"}

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/payment/initiate", "", body).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/payment/initiate", s.influencerToken, body).Code)

	w := s.do(http.MethodPost, "/api/v1/payment/initiate", s.brandToken, gin.H{"campaign_id": s.campaign.ID, "influencer_id": s.influencer.ID, "amount": "-5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/v1/payment/initiate", s.brandToken, gin.H{"influencer_id": s.influencer.ID, "amount": "5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ref := s.initiate("1000")

	// bad signature is rejected and changes nothing
	body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":1,"reference":%q,"amount":100000}}`, ref))
	assert.Equal(t, http.StatusBadRequest, s.webhook(body, "deadbeef").Code)

	w := s.chargeSuccess(ref, 100000)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/payment/verify/"+ref, s.brandToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tx models.Transaction
	decode(t, w, &tx)
	assert.Equal(t, domain.PaymentStatusCompleted, tx.PaymentStatus)
	assert.Equal(t, domain.TransferStatusCompleted, tx.CommissionTransferStatus)
	assert.Equal(t, domain.PayoutPlatformWallet, tx.PayoutChannel, "no bank account yet")

	// the influencer sees the credit
	w = s.do(http.MethodGet, "/api/v1/payment/wallet", s.influencerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var wallet models.Wallet
	decode(t, w, &wallet)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("920")), wallet.Balance.String())

	// register a bank account and withdraw part of the balance
	w = s.do(http.MethodPost, "/api/v1/payment/wallet/add-bank-account", s.influencerToken, gin.H{"account_number": "0123456789", "bank_code": "058"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(http.MethodGet, "/api/v1/payment/wallet/bank-account", s.influencerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/payment/wallet/withdraw", s.influencerToken, gin.H{"amount": "5000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/v1/payment/wallet/withdraw", s.influencerToken, gin.H{"amount": "120.50"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/payment/wallet/transactions?limit=1", s.influencerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data       []models.WalletTransaction `json:"data"`
		Pagination struct {
			Total      int64 `json:"total"`
			TotalPages int64 `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.EqualValues(t, 2, page.Pagination.Total)
	assert.EqualValues(t, 2, page.Pagination.TotalPages)
	require.Len(t, page.Data, 1)

	w = s.do(http.MethodGet, "/api/v1/payment/wallet", s.influencerToken, nil)
	decode(t, w, &wallet)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("799.50")), wallet.Balance.String())
}

func TestBrandWalletDefaultsToZero(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/v1/payment/wallet", s.brandToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var wallet models.Wallet
	decode(t, w, &wallet)
	assert.True(t, wallet.Balance.IsZero())
	assert.Equal(t, domain.UserTypeBrand, wallet.UserType)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/payment/wallet", s.adminToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/payment/wallet/withdraw", s.brandToken, gin.H{"amount": "1"}).Code)
}

func TestTransactionListsAndExport(t *testing.T) {
	s := newTestServer(t)
	s.initiate("100")
	s.initiate("200")

	w := s.do(http.MethodGet, "/api/v1/payment/transactions/brand?page=1&limit=10", s.brandToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data []models.Transaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/payment/transactions/influencer", s.brandToken, nil).Code)

	w = s.do(http.MethodGet, "/api/v1/payment/transactions/brand/export?format=csv", s.brandToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), "Reference,Date")

	w = s.do(http.MethodGet, "/api/v1/payment/transactions/brand/export?format=pdf", s.brandToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/payment/transactions/influencer/export", s.brandToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/payment/transactions/brand/export?format=doc", s.brandToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/payment/transactions/admin/export", s.adminToken, nil).Code)

	path := fmt.Sprintf("/api/v1/payment/transactions/brand/export?format=xlsx&profile_id=%d", s.brand.ID)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, s.adminToken, nil).Code)

	// archive needs Cloudinary
	w = s.do(http.MethodGet, "/api/v1/payment/transactions/brand/export?archive=true", s.brandToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/admin/payments/stuck", s.brandToken, nil).Code)

	w := s.do(http.MethodGet, "/api/v1/admin/payments/stuck?older_than=1m", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Count int `json:"count"`
	}
	decode(t, w, &out)
	assert.Zero(t, out.Count)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/admin/payments/stuck?older_than=soon", s.adminToken, nil).Code)

	w = s.do(http.MethodPost, "/api/v1/admin/payments/reconcile", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec struct {
		Recovered      int `json:"recovered"`
		EventsReplayed int `json:"events_replayed"`
	}
	decode(t, w, &rec)
	assert.Zero(t, rec.Recovered)
	assert.Zero(t, rec.EventsReplayed)
}

func TestVerifyLimitedToPaymentParties(t *testing.T) {
	s := newTestServer(t)
	ref := s.initiate("1000")

	otherUser := models.User{Email: "rival@example.com", Role: domain.RoleBrand}
	require.NoError(t, s.store.Users.Create(&otherUser))
	require.NoError(t, s.store.Brands.Create(&models.Brand{UserID: otherUser.ID, CompanyName: "Rival"}))
	rival := s.token(otherUser.ID, otherUser.Email, domain.RoleBrand)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/payment/verify/"+ref, rival, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/payment/verify/CAMPAIGN_missing", s.brandToken, nil).Code)

	for _, tok := range []string{s.brandToken, s.influencerToken, s.adminToken} {
		w := s.do(http.MethodGet, "/api/v1/payment/verify/"+ref, tok, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var tx models.Transaction
		decode(t, w, &tx)
		assert.Equal(t, ref, tx.PaymentReference)
	}
}

func TestRateLimitPerUserAndWebhookExempt(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.RateLimit = 2 })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/payment/wallet", s.brandToken, nil).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/api/v1/payment/wallet", s.brandToken, nil).Code)

	// same client address, own budget
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/payment/wallet", s.influencerToken, nil).Code)

	body := []byte(`{"event":"charge.success","data":{"id":1}}`)
	for i := 0; i < 4; i++ {
		assert.Equal(t, http.StatusBadRequest, s.webhook(body, "deadbeef").Code)
	}
}

func TestListBanksAndFCMToken(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/v1/payment/banks", s.brandToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var banks []payment.Bank
	decode(t, w, &banks)
	require.NotEmpty(t, banks)

	w = s.do(http.MethodPost, "/api/v1/me/fcm-token", s.influencerToken, gin.H{"token": "device-1"})
	require.Equal(t, http.StatusOK, w.Code)
	u, err := s.store.Users.GetByID(s.influencer.UserID)
	require.NoError(t, err)
	assert.Equal(t, "device-1", u.FCMToken)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/me/fcm-token", s.influencerToken, gin.H{}).Code)
}
