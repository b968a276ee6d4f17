package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shivfurniture/erp/internal/infrastructure/auth"
	"github.com/shivfurniture/erp/internal/interfaces/http/handler"
	"github.com/shivfurniture/erp/internal/interfaces/http/middleware"
)

// Handlers bundles the API handlers
type Handlers struct {
	Auth         *handler.AuthHandler
	Accounts     *handler.AccountHandler
	AutoRules    *handler.AutoRuleHandler
	Budgets      *handler.BudgetHandler
	Contacts     *handler.ContactHandler
	Products     *handler.ProductHandler
	Transactions *handler.TransactionHandler
	Payments     *handler.PaymentHandler
	Portal       *handler.PortalHandler
}

// APIConfig holds the cross-cutting middleware of the API groups
type APIConfig struct {
	Auth middleware.AuthConfig
	// PortalLimiter throttles login and portal routes per client. Nil disables it.
	PortalLimiter *middleware.RateLimiter
}

// APIGroups builds the route groups of the API: login is public, the
// back-office requires an admin token and the portal accepts portal and
// admin tokens
func APIGroups(h Handlers, cfg APIConfig) []RouteRegistrar {
	authenticate := middleware.Authenticate(cfg.Auth)
	tag := middleware.TagSpan()
	admin := middleware.RequireRole(auth.RoleAdmin)
	throttle := func(c *gin.Context) { c.Next() }
	if cfg.PortalLimiter != nil {
		throttle = middleware.RateLimit(cfg.PortalLimiter)
	}

	login := NewDomainGroup("auth", "/auth")
	login.POST("/login", throttle, h.Auth.AdminLogin)
	login.POST("/logout", authenticate, h.Auth.Logout)

	portalLogin := NewDomainGroup("portal-login", "/portal")
	portalLogin.POST("/login", throttle, h.Auth.PortalLogin)

	accounts := NewDomainGroup("analytical-accounts", "/analytical-accounts").Use(authenticate, tag, admin)
	accounts.GET("", h.Accounts.List).
		GET("/tree", h.Accounts.Tree).
		GET("/:id", h.Accounts.Get).
		POST("", h.Accounts.Create).
		PUT("/:id", h.Accounts.Update).
		DELETE("/:id", h.Accounts.Archive).
		POST("/:id/restore", h.Accounts.Restore)

	rules := NewDomainGroup("auto-analytical-models", "/auto-analytical-models").Use(authenticate, tag, admin)
	rules.GET("", h.AutoRules.List).
		GET("/resolve", h.AutoRules.Resolve).
		GET("/:id", h.AutoRules.Get).
		POST("", h.AutoRules.Create).
		PUT("/:id", h.AutoRules.Update).
		DELETE("/:id", h.AutoRules.Delete)

	budgets := NewDomainGroup("budgets", "/budgets").Use(authenticate, tag, admin)
	budgets.GET("", h.Budgets.List).
		GET("/summary", h.Budgets.Summary).
		GET("/summary/export", h.Budgets.Export).
		POST("/summary/archive", h.Budgets.Archive).
		GET("/:id", h.Budgets.Get).
		POST("", h.Budgets.Create).
		PUT("/:id", h.Budgets.Update).
		DELETE("/:id", h.Budgets.Delete)

	contacts := NewDomainGroup("contacts", "/contacts").Use(authenticate, tag, admin)
	contacts.GET("", h.Contacts.List).
		GET("/:id", h.Contacts.Get).
		POST("", h.Contacts.Create).
		PUT("/:id", h.Contacts.Update).
		POST("/:id/activate", h.Contacts.Activate).
		POST("/:id/deactivate", h.Contacts.Deactivate).
		POST("/:id/portal", h.Contacts.EnablePortal).
		DELETE("/:id/portal", h.Contacts.DisablePortal)

	products := NewDomainGroup("products", "/products").Use(authenticate, tag, admin)
	products.GET("", h.Products.List).
		GET("/:id", h.Products.Get).
		POST("", h.Products.Create).
		PUT("/:id", h.Products.Update).
		POST("/:id/activate", h.Products.Activate).
		POST("/:id/deactivate", h.Products.Deactivate)

	transactions := NewDomainGroup("transactions", "/transactions").Use(authenticate, tag, admin)
	transactions.GET("", h.Transactions.List).
		GET("/:id", h.Transactions.Get).
		GET("/:id/children", h.Transactions.Children).
		GET("/:id/budget-warnings", h.Transactions.BudgetWarnings).
		POST("", h.Transactions.Create).
		PUT("/:id", h.Transactions.Update).
		DELETE("/:id", h.Transactions.Delete).
		POST("/:id/confirm", h.Transactions.Confirm).
		POST("/:id/cancel", h.Transactions.Cancel).
		POST("/:id/derive", h.Transactions.Derive).
		POST("/:id/payment-status", h.Transactions.RecomputePaymentStatus)

	payments := NewDomainGroup("payments", "/payments").Use(authenticate, tag, admin)
	payments.GET("", h.Payments.List).
		GET("/outstanding", h.Payments.Outstanding).
		GET("/:id", h.Payments.Get).
		POST("", h.Payments.Create).
		PUT("/:id", h.Payments.Update).
		DELETE("/:id", h.Payments.Delete).
		POST("/:id/confirm", h.Payments.Confirm).
		POST("/:id/void", h.Payments.Void).
		POST("/:id/refund", h.Payments.Refund)

	portal := NewDomainGroup("portal", "/portal").
		Use(throttle, authenticate, tag, middleware.RequireRole(auth.RolePortal, auth.RoleAdmin))
	portal.GET("/me", h.Portal.Profile).
		GET("/invoices", h.Portal.Invoices).
		GET("/invoices/:id", h.Portal.Invoice).
		POST("/invoices/:id/pay", h.Portal.Pay).
		GET("/outstanding", h.Portal.Outstanding).
		POST("/payments/verify", h.Portal.VerifyPayment)

	return []RouteRegistrar{login, portalLogin, accounts, rules, budgets, contacts, products, transactions, payments, portal}
}
