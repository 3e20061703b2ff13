package main

import (
	"github.com/MicahParks/keyfunc/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"gstbill/internal/analytics"
	"gstbill/internal/caching"
	"gstbill/internal/handlers"
	"gstbill/internal/jobs/background"
	"gstbill/internal/middleware"
	"gstbill/internal/models"
	"gstbill/internal/services"
)

type routeDeps struct {
	auth       services.AuthService
	audit      services.AuditLogsService
	customers  services.CustomerService
	invoices   services.InvoiceService
	quotations services.QuotationService
	challans   services.ChallanService
	payments   services.PaymentService
	reports    services.ReportService
	dashboard  *analytics.AnalyticsService
	cache      caching.CacheService
	jwks       *keyfunc.JWKS
	database   *pgxpool.Pool
	storage    services.DocumentStorage
	scheduler  *background.JobScheduler
}

func registerRoutes(e *echo.Echo, d routeDeps) {
	limiter := middleware.NewRateLimiter(d.cache)
	auditMiddleware := middleware.NewAuditMiddleware(d.audit)

	authHandlers := handlers.NewAuthHandlers(d.auth)
	customerHandlers := handlers.NewCustomerHandlers(d.customers, d.payments)
	invoiceHandlers := handlers.NewInvoiceHandlers(d.invoices)
	quotationHandlers := handlers.NewQuotationHandlers(d.quotations)
	challanHandlers := handlers.NewChallanHandlers(d.challans)
	paymentHandlers := handlers.NewPaymentHandlers(d.payments)
	reportHandlers := handlers.NewReportHandlers(d.reports)
	dashboardHandlers := handlers.NewDashboardHandlers(d.dashboard)
	auditLogsHandlers := handlers.NewAuditLogsHandlers(d.audit)
	healthHandlers := handlers.NewHealthHandlers(d.database, d.cache, d.storage, d.scheduler, version)

	e.Use(middleware.RequestLogger())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	v1 := e.Group("/v1", limiter.Limit(middleware.APIRateLimit))

	registerAuthRoutes(v1, authHandlers, limiter)

	protected := v1.Group("",
		middleware.JWTMiddleware(d.auth, d.jwks),
		middleware.RequireActor(),
		auditMiddleware.AuditRequest(middleware.SensitivityLow),
	)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	managers := middleware.RequireRole(models.RoleAdmin, models.RoleManager)

	protected.GET("/me", authHandlers.Me)
	protected.PUT("/auth/password", authHandlers.ChangePassword, limiter.Limit(middleware.AuthRateLimit))
	protected.GET("/issuer", authHandlers.GetIssuer)
	protected.PUT("/issuer", authHandlers.UpdateIssuer, adminOnly)
	protected.GET("/users", authHandlers.ListUsers, managers)
	protected.POST("/users", authHandlers.CreateUser, adminOnly)
	protected.PUT("/users/:id/role", authHandlers.UpdateUserRole, adminOnly)
	protected.DELETE("/users/:id", authHandlers.DeleteUser, adminOnly)

	protected.GET("/customers", customerHandlers.ListCustomers)
	protected.POST("/customers", customerHandlers.CreateCustomer)
	protected.GET("/customers/:id", customerHandlers.GetCustomer)
	protected.PUT("/customers/:id", customerHandlers.UpdateCustomer)
	protected.GET("/customers/:id/payments", customerHandlers.ListCustomerPayments)

	protected.GET("/invoices", invoiceHandlers.ListInvoices)
	protected.POST("/invoices", invoiceHandlers.CreateInvoice)
	protected.GET("/invoices/stats", invoiceHandlers.InvoiceStats)
	protected.GET("/invoices/:id", invoiceHandlers.GetInvoice)
	protected.PUT("/invoices/:id", invoiceHandlers.UpdateInvoice)
	protected.DELETE("/invoices/:id", invoiceHandlers.DeleteInvoice)
	protected.PUT("/invoices/:id/status", invoiceHandlers.UpdateInvoiceStatus)
	protected.POST("/invoices/:id/pdf", invoiceHandlers.GenerateInvoicePDF, limiter.Limit(middleware.PDFRateLimit))
	protected.POST("/invoices/:id/send", invoiceHandlers.SendInvoice, limiter.Limit(middleware.PDFRateLimit))

	protected.GET("/quotations", quotationHandlers.ListQuotations)
	protected.POST("/quotations", quotationHandlers.CreateQuotation)
	protected.GET("/quotations/:id", quotationHandlers.GetQuotation)
	protected.PUT("/quotations/:id", quotationHandlers.UpdateQuotation)
	protected.DELETE("/quotations/:id", quotationHandlers.DeleteQuotation)
	protected.PUT("/quotations/:id/status", quotationHandlers.UpdateQuotationStatus)
	protected.POST("/quotations/:id/convert", quotationHandlers.ConvertToInvoice)

	protected.GET("/challans", challanHandlers.ListChallans)
	protected.POST("/challans", challanHandlers.CreateChallan)
	protected.GET("/challans/stats", challanHandlers.DeliveryStats)
	protected.GET("/challans/:id", challanHandlers.GetChallan)
	protected.PUT("/challans/:id", challanHandlers.UpdateChallan)
	protected.DELETE("/challans/:id", challanHandlers.DeleteChallan)
	protected.PUT("/challans/:id/delivery", challanHandlers.UpdateDelivery)

	protected.GET("/payments", paymentHandlers.ListPayments)
	protected.POST("/payments", paymentHandlers.RecordPayment)

	protected.GET("/dashboard", dashboardHandlers.GetDashboard)

	reports := protected.Group("/reports", managers)
	reports.GET("/monthly-revenue", reportHandlers.MonthlyRevenue)
	reports.GET("/gst", reportHandlers.GSTReport)
	reports.GET("/customers", reportHandlers.CustomerReport)
	reports.GET("/invoices/export", reportHandlers.ExportInvoices, limiter.Limit(middleware.ExportRateLimit))

	audit := protected.Group("/audit-logs", adminOnly)
	audit.GET("", auditLogsHandlers.ListAuditLogs)
	audit.GET("/:table/:id", auditLogsHandlers.GetEntityHistory)
}

// registerAuthRoutes mounts the endpoints that need no JWT. Signup and login carry
// the strict credential limit; refresh and logout only the API-wide one.
func registerAuthRoutes(v1 *echo.Group, h *handlers.AuthHandlers, limiter *middleware.RateLimiter) {
	auth := v1.Group("/auth")
	credentials := limiter.Limit(middleware.AuthRateLimit)
	auth.POST("/signup", h.Signup, credentials)
	auth.POST("/login", h.Login, credentials)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/logout", h.Logout)
}
