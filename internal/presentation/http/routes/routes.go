package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/pharmadesk/pharmacy-api/internal/config"
	"github.com/pharmadesk/pharmacy-api/internal/domain/repository"
	"github.com/pharmadesk/pharmacy-api/internal/presentation/http/handler"
	"github.com/pharmadesk/pharmacy-api/internal/presentation/http/middleware"
	"github.com/pharmadesk/pharmacy-api/pkg/utils"
)

// Handlers bundles the HTTP handlers wired into the router
type Handlers struct {
	Auth    *handler.AuthHandler
	Billing *handler.BillingHandler
	Returns *handler.ReturnsHandler
	Printer *handler.PrinterHandler
}

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	cfg *config.Config,
	jwtManager *utils.JWTManager,
	idempotencyRepo repository.IdempotencyRepository,
	h Handlers,
) {
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(&cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	rateLimiter := middleware.NewOperatorRateLimiter(&cfg.RateLimit)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		protected := v1.Group("")
		protected.Use(middleware.Auth(jwtManager))
		protected.Use(rateLimiter.Middleware())
		{
			protected.GET("/auth/me", h.Auth.Profile)

			protected.GET("/medicines/search", h.Billing.SearchMedicines)

			sessions := protected.Group("/billing/sessions")
			{
				sessions.POST("", h.Billing.StartSession)
				sessions.GET("/:id", h.Billing.GetSession)
				sessions.DELETE("/:id", h.Billing.CloseSession)
				sessions.POST("/:id/items", h.Billing.AddToCart)
				sessions.PUT("/:id/items/:medicineId", h.Billing.UpdateCartQuantity)
				sessions.DELETE("/:id/items/:medicineId", h.Billing.RemoveFromCart)
				sessions.DELETE("/:id/items", h.Billing.ClearCart)
				sessions.PUT("/:id/customer", h.Billing.SetCustomer)
				sessions.PUT("/:id/payment-method", h.Billing.SetPaymentMethod)
				// A retried checkout must never double-create an invoice
				sessions.POST("/:id/checkout",
					middleware.IdempotencyRequired(idempotencyRepo), h.Billing.Checkout)
			}

			invoices := protected.Group("/billing/invoices")
			{
				invoices.GET("/pending", h.Billing.ListPendingInvoices)
				invoices.GET("/:id", h.Billing.GetInvoice)
				invoices.POST("/:id/finalize", h.Billing.FinalizeInvoice)
			}

			returns := protected.Group("/returns")
			{
				returns.GET("/invoices/search", h.Returns.SearchInvoices)
				returns.GET("/invoices/:id", h.Returns.GetReturnableInvoice)
				returns.GET("", h.Returns.ListReturns)
				returns.GET("/:id", h.Returns.GetReturn)
				returns.POST("", middleware.Idempotency(idempotencyRepo), h.Returns.CreateReturn)
				returns.POST("/batch", middleware.Idempotency(idempotencyRepo), h.Returns.CreateReturnBatch)
			}

			refunds := protected.Group("/refunds")
			{
				refunds.GET("", h.Returns.ListRefunds)
				refunds.POST("", middleware.Idempotency(idempotencyRepo), h.Returns.CreateRefund)
			}

			printer := protected.Group("/printer")
			{
				printer.GET("/status", h.Printer.Status)
				printer.POST("/test", h.Printer.TestPrint)
				printer.POST("/receipts/:id", h.Printer.ReprintReceipt)
			}
		}
	}
}
