package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	accountingapp "github.com/shivfurniture/erp/internal/application/accounting"
	financeapp "github.com/shivfurniture/erp/internal/application/finance"
	partnerapp "github.com/shivfurniture/erp/internal/application/partner"
	"github.com/shivfurniture/erp/internal/application/scope"
	tradeapp "github.com/shivfurniture/erp/internal/application/trade"
	"github.com/shivfurniture/erp/internal/infrastructure/auth"
	"github.com/shivfurniture/erp/internal/infrastructure/cache"
	"github.com/shivfurniture/erp/internal/infrastructure/config"
	"github.com/shivfurniture/erp/internal/infrastructure/export"
	"github.com/shivfurniture/erp/internal/infrastructure/logger"
	"github.com/shivfurniture/erp/internal/infrastructure/payment"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence"
	"github.com/shivfurniture/erp/internal/infrastructure/storage"
	"github.com/shivfurniture/erp/internal/infrastructure/telemetry"
	"github.com/shivfurniture/erp/internal/interfaces/http/handler"
	"github.com/shivfurniture/erp/internal/interfaces/http/middleware"
	"github.com/shivfurniture/erp/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/shivfurniture/erp/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// application holds the HTTP handlers and the middleware settings they share
type application struct {
	handlers router.Handlers
	auth     middleware.AuthConfig
}

func newApplication(ctx context.Context, cfg *config.Config, store scope.Store, stores *cache.Stores, metrics *telemetry.LedgerMetrics, log *zap.Logger) (*application, error) {
	hasher := auth.NewBcryptHasher(0)
	tokens := auth.NewJWTService(cfg.JWT)

	transactions := tradeapp.NewTransactionService(tradeapp.TransactionServiceConfig{
		Store: store,
		Policy: tradeapp.Policy{
			ReverseBudgetOnCancel:        cfg.Ledger.ReverseBudgetOnCancel,
			PaidRequiresConfirmedPayment: cfg.Ledger.PaidRequiresConfirmedPayment,
			SingleDerivedDocument:        cfg.Ledger.SingleDerivedDocument,
		},
		Recorder: metrics,
		Logger:   log,
	})
	payments := financeapp.NewPaymentService(financeapp.PaymentServiceConfig{
		Store:                        store,
		PaidRequiresConfirmedPayment: cfg.Ledger.PaidRequiresConfirmedPayment,
		Recorder:                     metrics,
		Logger:                       log,
	})

	var gateway *financeapp.GatewayService
	if cfg.Gateway.Enabled {
		razorpay, err := payment.NewRazorpayAdapter(&payment.RazorpayConfig{
			KeyID:     cfg.Gateway.KeyID,
			KeySecret: cfg.Gateway.KeySecret,
			BaseURL:   cfg.Gateway.BaseURL,
			Timeout:   cfg.Gateway.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure payment gateway: %w", err)
		}
		gateway = financeapp.NewGatewayService(financeapp.GatewayServiceConfig{
			Gateway:     payment.NewObservedGateway(razorpay, metrics),
			Payments:    payments,
			Store:       store,
			Idempotency: stores.Idempotency,
			ClaimTTL:    cfg.Gateway.ClaimTTL,
			Currency:    cfg.Gateway.Currency,
			KeyID:       cfg.Gateway.KeyID,
			Logger:      log,
		})
		log.Info("Payment gateway enabled", zap.String("currency", cfg.Gateway.Currency))
	}

	var budgetOpts []accountingapp.BudgetServiceOption
	if cfg.Storage.Enabled {
		archive, err := storage.NewS3ReportArchive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("failed to configure report storage: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		budgetOpts = append(budgetOpts, accountingapp.WithReportArchive(archive))
		log.Info("Report archive enabled", zap.String("bucket", archive.Bucket()))
	}

	contacts := partnerapp.NewContactService(store.Contacts(), hasher)
	return &application{
		handlers: router.Handlers{
			Auth: handler.NewAuthHandler(partnerapp.NewAuthService(partnerapp.AuthServiceConfig{
				AdminUsername:     cfg.Auth.AdminUsername,
				AdminPasswordHash: cfg.Auth.AdminPasswordHash,
				Contacts:          store.Contacts(),
				Hasher:            hasher,
				Tokens:            tokens,
				Blacklist:         stores.Blacklist,
				Logger:            log,
			})),
			Accounts: handler.NewAccountHandler(accountingapp.NewRegistryService(store.Accounts(), store.Budgets())),
			AutoRules: handler.NewAutoRuleHandler(
				accountingapp.NewAutoAssignmentService(store.AutoRules(), store.Accounts())),
			Budgets: handler.NewBudgetHandler(
				accountingapp.NewBudgetService(store.Budgets(), store.Accounts(), export.NewBudgetExcelExporter(), budgetOpts...)),
			Contacts:     handler.NewContactHandler(contacts),
			Products:     handler.NewProductHandler(partnerapp.NewProductService(store.Products())),
			Transactions: handler.NewTransactionHandler(transactions),
			Payments:     handler.NewPaymentHandler(payments, gateway),
			Portal: handler.NewPortalHandler(handler.PortalHandlerConfig{
				Contacts:     contacts,
				Transactions: transactions,
				Payments:     payments,
				Gateway:      gateway,
			}),
		},
		auth: middleware.AuthConfig{Tokens: tokens, Blacklist: stores.Blacklist, Logger: log},
	}, nil
}

// newEngine applies the middleware stack in order: request id, recovery,
// access log, tracing, metrics, security headers, CORS, body limit and the
// optional global rate limit
func newEngine(cfg *config.Config, app *application, db *persistence.Database, metrics *telemetry.LedgerMetrics, log *zap.Logger) (*gin.Engine, error) {
	if err := middleware.SetupValidator(); err != nil {
		return nil, fmt.Errorf("failed to set up validation: %w", err)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		metrics.GinMiddleware(),
		middleware.Secure(),
		middleware.CORS(middleware.CORSConfig{
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
			AllowMethods: cfg.HTTP.CORSAllowMethods,
			AllowHeaders: cfg.HTTP.CORSAllowHeaders,
			MaxAge:       12 * time.Hour,
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	system := handler.NewSystemHandler(db, version)
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(router.APIGroups(app.handlers, router.APIConfig{
			Auth:          app.auth,
			PortalLimiter: middleware.NewRateLimiter(cfg.HTTP.PortalRateLimitRequests, cfg.HTTP.PortalRateLimitWindow),
		})...).
		Setup()
	return engine, nil
}
