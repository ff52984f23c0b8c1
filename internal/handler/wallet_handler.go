package handler

import (
	"brandlink/internal/middleware"
	"brandlink/internal/repository"
	"brandlink/internal/response"
	"brandlink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	store   *repository.Store
	wallets *service.WalletService
	banks   *service.BankAccountService
}

func NewWalletHandler(store *repository.Store, wallets *service.WalletService, banks *service.BankAccountService) *WalletHandler {
	return &WalletHandler{store: store, wallets: wallets, banks: banks}
}

// GetWallet returns the current user's wallet; users with no wallet yet see
// zero balances.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	w, err := h.wallets.GetWallet(c.Request.Context(), middleware.GetUserID(c), walletOwnerType(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "wallet", w)
}

func (h *WalletHandler) Transactions(c *gin.Context) {
	p := response.NewPage(c)
	rows, total, err := h.wallets.ListWalletTransactions(c.Request.Context(), middleware.GetUserID(c), walletOwnerType(c), p.Offset(), p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paginated(c, "wallet transactions", rows, total, p)
}

// Withdraw handles POST /payment/wallet/withdraw (INFLUENCER).
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "amount is required")
		return
	}
	entry, err := h.wallets.Withdraw(c.Request.Context(), middleware.GetUserID(c), req.Amount)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "withdrawal initiated", entry)
}

func (h *WalletHandler) AddBankAccount(c *gin.Context) {
	var req struct {
		AccountNumber string `json:"account_number" binding:"required"`
		BankCode      string `json:"bank_code" binding:"required"`
		BankName      string `json:"bank_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "account_number and bank_code are required")
		return
	}
	influencerID, err := profileID(c, h.store)
	if err != nil {
		response.FromError(c, err)
		return
	}
	account, err := h.banks.AddInfluencerBankAccount(c.Request.Context(), influencerID, req.AccountNumber, req.BankCode, req.BankName)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, "bank account added", account)
}

func (h *WalletHandler) GetBankAccount(c *gin.Context) {
	influencerID, err := profileID(c, h.store)
	if err != nil {
		response.FromError(c, err)
		return
	}
	account, err := h.banks.GetActiveAccount(c.Request.Context(), influencerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "bank account", account)
}

func (h *WalletHandler) ListBanks(c *gin.Context) {
	banks, err := h.banks.ListBanks(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "banks", banks)
}
