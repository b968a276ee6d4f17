package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/infrastructure/auth"
	"github.com/shivfurniture/erp/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const claimsKey = "auth_claims"

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthConfig configures Authenticate
type AuthConfig struct {
	Tokens    TokenValidator
	Blacklist auth.TokenBlacklist // optional
	Logger    *zap.Logger
}

// Authenticate requires a valid bearer token and stores its claims.
// A blacklist lookup failure lets the request through and is logged.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abort(c, shared.CodeUnauthorized, "missing bearer token")
			return
		}

		claims, err := cfg.Tokens.ValidateToken(strings.TrimSpace(raw))
		if err != nil {
			abort(c, shared.CodeUnauthorized, err.Error())
			return
		}

		if cfg.Blacklist != nil && claims.ID != "" {
			revoked, err := cfg.Blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				log.Error("Token blacklist lookup failed", zap.String("jti", claims.ID), zap.Error(err))
			case revoked:
				abort(c, shared.CodeUnauthorized, auth.ErrTokenBlacklisted.Error())
				return
			}
		}

		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), logger.Actor{
			Subject:   claims.Subject,
			Role:      string(claims.Role),
			ContactID: claims.ContactID,
		}))
		c.Next()
	}
}

// RequireRole admits only callers holding one of roles. It must run after Authenticate.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			abort(c, shared.CodeUnauthorized, "authentication required")
			return
		}
		if !slices.Contains(roles, claims.Role) {
			abort(c, shared.CodeForbidden, "role "+string(claims.Role)+" may not access this resource")
			return
		}
		c.Next()
	}
}

// Claims returns the authenticated caller's claims, or nil
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// PortalContactID returns the contact a portal token is scoped to.
// Admin callers get nil, meaning no ownership restriction.
func PortalContactID(c *gin.Context) (*uuid.UUID, bool) {
	claims := Claims(c)
	if claims == nil {
		return nil, false
	}
	if claims.IsAdmin() {
		return nil, true
	}
	id, err := claims.ContactUUID()
	if err != nil {
		return nil, false
	}
	return &id, true
}
