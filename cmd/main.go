package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"gstbill/internal/analytics"
	"gstbill/internal/caching"
	"gstbill/internal/common"
	"gstbill/internal/config"
	"gstbill/internal/jobs"
	"gstbill/internal/jobs/background"
	"gstbill/internal/repositories"
	"gstbill/internal/services"
	"gstbill/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	policy, err := config.LoadBillingPolicy(cfg.BillingPolicyFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.BillingPolicyFile).Msg("failed to load billing policy")
	}

	// Amounts are rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer cacheSvc.Close()

	storage, err := services.NewMinioStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize MinIO client")
	}
	if err := storage.EnsureBucketExists(ctx); err != nil {
		log.Warn().Err(err).Str("bucket", cfg.MinioBucket).Msg("document bucket unavailable, PDF generation will fail")
	}

	mailer := services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)

	var jwks *keyfunc.JWKS
	if cfg.JWKSURL != "" {
		jwks, err = keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Error().Err(err).Msg("failed to refresh JWKS")
			},
		})
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.JWKSURL).Msg("failed to load JWKS")
		}
		defer jwks.EndBackground()
	}

	// Create repositories
	customerRepo := repositories.NewCustomerRepo(pool)
	issuerRepo := repositories.NewIssuerRepo(pool)
	sequenceRepo := repositories.NewSequenceRepo(pool)
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	quotationRepo := repositories.NewQuotationRepo(pool)
	challanRepo := repositories.NewChallanRepo(pool)
	paymentRepo := repositories.NewPaymentRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	auditLogRepo := repositories.NewAuditLogsRepo(pool)
	reportRepo := repositories.NewReportRepo(pool)

	// Create services
	auditSvc := services.NewAuditLogsService(auditLogRepo)
	deps := services.DocumentDeps{
		Customers: customerRepo,
		Issuers:   issuerRepo,
		Sequences: sequenceRepo,
		Audit:     auditSvc,
		Cache:     cacheSvc,
		Policy:    policy,
	}
	invoiceSvc := services.NewInvoiceService(invoiceRepo, deps, services.NewPDFRenderer(), storage, mailer)
	quotationSvc := services.NewQuotationService(quotationRepo, deps)
	challanSvc := services.NewChallanService(challanRepo, deps)
	customerSvc := services.NewCustomerService(customerRepo, auditSvc)
	paymentSvc := services.NewPaymentService(paymentRepo, invoiceRepo, auditSvc, cacheSvc)
	reportSvc := services.NewReportService(reportRepo, jobs.NewInvoiceExporter(reportRepo))
	authSvc := services.NewAuthService(userRepo, issuerRepo, cacheSvc, cfg.JWTSecret,
		cfg.JWTExpirationHours*3600, cfg.JWTRefreshHours*3600)
	analyticsSvc := analytics.NewAnalyticsService(reportRepo, cacheSvc, policy.Dashboard.CacheTTL.Duration)

	scheduler, err := background.NewJobScheduler(invoiceSvc, quotationSvc,
		jobs.NewAnalyticsRefreshService(analyticsSvc, issuerRepo), policy.Jobs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create job scheduler")
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = common.HTTPErrorHandler
	e.Validator = common.NewRequestValidator()

	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	registerRoutes(e, routeDeps{
		auth:       authSvc,
		audit:      auditSvc,
		customers:  customerSvc,
		invoices:   invoiceSvc,
		quotations: quotationSvc,
		challans:   challanSvc,
		payments:   paymentSvc,
		reports:    reportSvc,
		dashboard:  analyticsSvc,
		cache:      cacheSvc,
		jwks:       jwks,
		database:   pool,
		storage:    storage,
		scheduler:  scheduler,
	})

	scheduler.Start()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("version", version).Str("addr", cfg.Addr()).Msg("gstbill API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if err := scheduler.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop job scheduler")
	}
	log.Info().Msg("server exited")
}

// setupLogger writes human readable logs in development and JSON in production.
func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
