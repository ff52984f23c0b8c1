package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"brandlink/internal/apperror"
	"brandlink/internal/domain"
	"brandlink/internal/middleware"
	"brandlink/internal/repository"
	"brandlink/internal/response"
	"brandlink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	store      *repository.Store
	settlement *service.SettlementService
	wallets    *service.WalletService
	export     *service.ExportService
}

func NewPaymentHandler(store *repository.Store, settlement *service.SettlementService, wallets *service.WalletService, export *service.ExportService) *PaymentHandler {
	return &PaymentHandler{store: store, settlement: settlement, wallets: wallets, export: export}
}

type initiatePaymentRequest struct {
	CampaignID   uint            `json:"campaign_id" binding:"required"`
	InfluencerID uint            `json:"influencer_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	CallbackURL  string          `json:"callback_url"`
}

// Initiate handles POST /payment/initiate (BRAND).
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "campaign_id, influencer_id and amount are required")
		return
	}
	brandID, err := profileID(c, h.store)
	if err != nil {
		response.FromError(c, err)
		return
	}
	tx, authURL, err := h.settlement.InitiatePayment(c.Request.Context(), service.InitiatePaymentInput{
		CampaignID:   req.CampaignID,
		BrandID:      brandID,
		InfluencerID: req.InfluencerID,
		Amount:       req.Amount,
		BrandEmail:   c.GetString("email"),
		CallbackURL:  req.CallbackURL,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, "payment initialized", gin.H{
		"authorization_url":   authURL,
		"access_code":         tx.AccessCode,
		"reference":           tx.PaymentReference,
		"transaction_id":      tx.ID,
		"total_amount":        tx.TotalAmount,
		"platform_commission": tx.PlatformCommission,
		"influencer_amount":   tx.InfluencerAmount,
	})
}

// Verify handles GET /payment/verify/:reference. Only the payment's brand,
// its influencer or an admin may check it.
func (h *PaymentHandler) Verify(c *gin.Context) {
	ref := c.Param("reference")
	if err := h.ownsPayment(c, ref); err != nil {
		response.FromError(c, err)
		return
	}
	tx, err := h.settlement.VerifyPayment(c.Request.Context(), ref)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "payment status", tx)
}

// ownsPayment answers not found for other users' payments so references
// cannot be enumerated.
func (h *PaymentHandler) ownsPayment(c *gin.Context, ref string) error {
	t, err := h.store.WithContext(c.Request.Context()).Transactions.GetByReference(ref)
	if err != nil {
		return profileErr(err, "transaction not found")
	}
	role := middleware.GetRole(c)
	if role == domain.RoleAdmin {
		return nil
	}
	id, err := profileID(c, h.store)
	if err != nil {
		return err
	}
	if (role == domain.RoleBrand && t.BrandID == id) || (role == domain.RoleInfluencer && t.InfluencerID == id) {
		return nil
	}
	return apperror.NotFound("transaction not found", nil)
}

func (h *PaymentHandler) ListBrandTransactions(c *gin.Context) {
	h.list(c, domain.RoleBrand)
}

func (h *PaymentHandler) ListInfluencerTransactions(c *gin.Context) {
	h.list(c, domain.RoleInfluencer)
}

func (h *PaymentHandler) list(c *gin.Context, role string) {
	id, err := profileID(c, h.store)
	if err != nil {
		response.FromError(c, err)
		return
	}
	p := response.NewPage(c)
	rows, total, err := h.wallets.ListTransactions(c.Request.Context(), role, id, p.Offset(), p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paginated(c, "transactions", rows, total, p)
}

// Export handles GET /payment/transactions/:role/export. The caller's own
// statement is exported; admins name the profile with ?profile_id=.
func (h *PaymentHandler) Export(c *gin.Context) {
	role, ok := map[string]string{"brand": domain.RoleBrand, "influencer": domain.RoleInfluencer}[c.Param("role")]
	if !ok {
		response.BadRequest(c, "role must be brand or influencer")
		return
	}
	format := c.DefaultQuery("format", service.FormatCSV)
	if service.ContentType(format) == "" {
		response.BadRequest(c, "format must be csv, pdf or xlsx")
		return
	}

	var id uint
	if middleware.GetRole(c) == domain.RoleAdmin {
		n, err := strconv.ParseUint(c.Query("profile_id"), 10, 64)
		if err != nil || n == 0 {
			response.BadRequest(c, "profile_id is required")
			return
		}
		id = uint(n)
	} else {
		if middleware.GetRole(c) != role {
			response.Error(c, http.StatusForbidden, "forbidden")
			return
		}
		var err error
		if id, err = profileID(c, h.store); err != nil {
			response.FromError(c, err)
			return
		}
	}

	st, err := h.export.Statement(c.Request.Context(), role, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if c.Query("archive") == "true" {
		url, err := h.export.ArchivePDF(c.Request.Context(), st)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, "statement archived", gin.H{"url": url})
		return
	}

	var buf bytes.Buffer
	if err := h.export.Write(&buf, format, st); err != nil {
		response.FromError(c, apperror.Internal("could not render statement", err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+st.Filename(format)+`"`)
	c.Data(http.StatusOK, service.ContentType(format), buf.Bytes())
}
