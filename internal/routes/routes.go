// Package routes wires repositories, services and handlers onto the fiber
// app. All dependencies flow through constructors; nothing reaches for a
// package-level instance.
package routes

import (
	"dailychow/internal/config"
	"dailychow/internal/gateway/korapay"
	"dailychow/internal/gateway/monnify"
	"dailychow/internal/handlers"
	"dailychow/internal/middleware"
	"dailychow/internal/repositories"
	"dailychow/internal/repositories/cache"
	"dailychow/internal/services/disbursement"
	"dailychow/internal/services/ledger"
	"dailychow/internal/services/payment"
	"dailychow/internal/services/transfer"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB, cacheService *cache.CacheService) {
	// Repositories
	ledgerRepo := repositories.NewLedgerRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	transferRepo := repositories.NewTransferRepository(db)
	bankAccountRepo := repositories.NewBankAccountRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Provider clients
	korapayClient := korapay.NewClient(
		config.GetEnv("KORAPAY_BASE_URL", "https://api.korapay.com/merchant/api/v1"),
		config.GetEnv("KORAPAY_SECRET_KEY", ""),
	)
	monnifyClient := monnify.NewClient(
		config.GetEnv("MONNIFY_BASE_URL", "https://api.monnify.com"),
		config.GetEnv("MONNIFY_API_KEY", ""),
		config.GetEnv("MONNIFY_SECRET_KEY", ""),
		config.GetEnv("MONNIFY_SOURCE_ACCOUNT", ""),
	)

	// Services
	ledgerService := ledger.NewService(ledgerRepo, cacheService, ledger.Config{
		MinMonthlyBudget: config.GetDecimalEnv("MIN_MONTHLY_BUDGET", decimal.NewFromInt(1000)),
		MaxMonthlyBudget: config.GetDecimalEnv("MAX_MONTHLY_BUDGET", decimal.NewFromInt(10_000_000)),
	})
	paymentService := payment.NewService(paymentRepo, ledgerRepo, auditRepo, cacheService, korapayClient, payment.Config{
		WebhookSecret: config.GetEnv("KORAPAY_WEBHOOK_SECRET", ""),
		RedirectURL:   config.GetEnv("TOPUP_REDIRECT_URL", ""),
		Currency:      "NGN",
	})
	transferService := transfer.NewService(transferRepo, bankAccountRepo, auditRepo, cacheService, monnifyClient,
		config.GetEnv("MONNIFY_SECRET_KEY", ""))
	disbursementService := disbursement.NewService(ledgerRepo, ledgerService, transferService, auditRepo, disbursement.Config{
		Workers: config.GetIntEnv("DISBURSEMENT_WORKERS", 5),
	})

	// Handlers
	walletHandler := handlers.NewWalletHandler(ledgerService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	bankHandler := handlers.NewBankHandler(transferService)
	webhookHandler := handlers.NewWebhookHandler(paymentService, transferService)
	adminHandler := handlers.NewAdminHandler(disbursementService, transferService, auditRepo)

	authMiddleware := middleware.NewAuthMiddleware(config.GetEnv("JWT_SECRET", "dailychow"))

	app.Get("/health", handlers.HealthCheck)

	// Webhooks authenticate by signature, not bearer token.
	webhooks := app.Group("/webhooks")
	webhooks.Post("/korapay", webhookHandler.HandlePaymentWebhook)
	webhooks.Post("/monnify", webhookHandler.HandleTransferWebhook)

	api := app.Group("/api", authMiddleware.Handler)

	api.Get("/wallet/balance", walletHandler.GetBalance)
	api.Post("/wallet/budget", walletHandler.SetBudget)
	api.Get("/wallet/transactions", walletHandler.GetHistory)

	api.Post("/topups", paymentHandler.InitiateTopUp)
	api.Get("/topups/:reference/verify", paymentHandler.VerifyTopUp)

	api.Get("/banks", bankHandler.ListBanks)
	api.Post("/bank-account", bankHandler.SetBankAccount)
	api.Get("/bank-account", bankHandler.GetBankAccount)

	admin := api.Group("/admin", middleware.AdminOnly)
	admin.Post("/disbursements/run", adminHandler.RunDisbursement)
	admin.Get("/transfers/:reference", adminHandler.GetTransferStatus)
	admin.Get("/audit-events", adminHandler.GetAuditEvents)
}
