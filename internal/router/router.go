package router

import (
	"log"

	"brandlink/config"
	"brandlink/internal/domain"
	"brandlink/internal/handler"
	"brandlink/internal/middleware"
	"brandlink/internal/repository"
	"brandlink/internal/service"
	"brandlink/internal/ws"
	"brandlink/pkg/cloudinary"
	"brandlink/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers. It also returns the
// reconciliation service so the caller can run its background sweep.
func Setup(cfg *config.Config, db *gorm.DB, gateway payment.Gateway, cloud cloudinary.Client) (*gin.Engine, *service.ReconcileService) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	store := repository.NewStore(db)
	hub := ws.NewHub()

	// Services
	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath)
	if fcmSvc != nil {
		log.Printf("[FCM] Push notifications enabled")
	} else if cfg.Firebase.ServiceAccountPath != "" {
		log.Printf("[FCM] Push notifications disabled: failed to init (check service account file)")
	} else {
		log.Printf("[FCM] Push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	mailSvc := service.NewMailService(cfg.SMTP)
	notifier := service.NewNotificationService(hub, fcmSvc, mailSvc)

	currency := cfg.Paystack.Currency
	settlementSvc := service.NewSettlementService(store, gateway, notifier, service.SettlementConfig{
		CommissionRate:        cfg.Settlement.CommissionRate,
		PlatformRecipientCode: cfg.Paystack.PlatformRecipientCode,
		Currency:              currency,
	})
	walletSvc := service.NewWalletService(store, gateway, notifier, currency)
	bankSvc := service.NewBankAccountService(store, gateway, currency)
	subscriptionSvc := service.NewSubscriptionService(store)
	webhookSvc := service.NewWebhookService(cfg.Paystack.WebhookSecret, store, settlementSvc, subscriptionSvc)
	reconcileSvc := service.NewReconcileService(store, settlementSvc, webhookSvc, service.ReconcileConfig{
		MaxCommissionAttempts: cfg.Settlement.MaxCommissionAttempts,
		MaxEventAttempts:      cfg.Settlement.MaxWebhookAttempts,
		StuckAfter:            cfg.Settlement.StuckAfter,
	})
	exportSvc := service.NewExportService(store, cloud, cfg.Cloudinary.Folder)

	// Handlers
	paymentHandler := handler.NewPaymentHandler(store, settlementSvc, walletSvc, exportSvc)
	walletHandler := handler.NewWalletHandler(store, walletSvc, bankSvc)
	webhookHandler := handler.NewWebhookHandler(webhookSvc)
	adminHandler := handler.NewAdminHandler(reconcileSvc)
	meHandler := handler.NewMeHandler(store)

	authMw := middleware.AuthRequired(&cfg.JWT)
	// per user, so it runs after authMw; the signed webhook is not limited
	rateLimit := middleware.RateLimit(middleware.NewInMemoryRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow))
	brandOnly := middleware.RequireRole(domain.RoleBrand)
	influencerOnly := middleware.RequireRole(domain.RoleInfluencer)
	walletOwner := middleware.RequireRole(domain.RoleBrand, domain.RoleInfluencer)

	api := r.Group("/api/v1")
	{
		pay := api.Group("/payment")
		pay.POST("/webhook", webhookHandler.Handle)

		authed := pay.Group("")
		authed.Use(authMw, rateLimit)
		{
			authed.POST("/initiate", brandOnly, paymentHandler.Initiate)
			authed.GET("/verify/:reference", paymentHandler.Verify)
			authed.GET("/banks", walletHandler.ListBanks)

			authed.GET("/wallet", walletOwner, walletHandler.GetWallet)
			authed.GET("/wallet/transactions", walletOwner, walletHandler.Transactions)
			authed.POST("/wallet/withdraw", influencerOnly, walletHandler.Withdraw)
			authed.POST("/wallet/add-bank-account", influencerOnly, walletHandler.AddBankAccount)
			authed.GET("/wallet/bank-account", influencerOnly, walletHandler.GetBankAccount)

			authed.GET("/transactions/brand", brandOnly, paymentHandler.ListBrandTransactions)
			authed.GET("/transactions/influencer", influencerOnly, paymentHandler.ListInfluencerTransactions)
			authed.GET("/transactions/:role/export", paymentHandler.Export)
		}

		api.POST("/me/fcm-token", authMw, rateLimit, meHandler.RegisterFCMToken)

		admin := api.Group("/admin/payments")
		admin.Use(authMw, rateLimit, middleware.RequireRole(domain.RoleAdmin))
		{
			admin.GET("/stuck", adminHandler.Stuck)
			admin.POST("/reconcile", adminHandler.Reconcile)
		}
	}

	r.GET("/ws/wallet", ws.UpgradeWalletWS(&cfg.JWT, hub))

	return r, reconcileSvc
}
