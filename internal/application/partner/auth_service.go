package partner

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/partner"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// TokenIssuer signs access tokens for the two caller roles
type TokenIssuer interface {
	IssueAdminToken(username string) (*auth.Token, error)
	IssuePortalToken(contactID uuid.UUID) (*auth.Token, error)
}

var errInvalidCredentials = shared.NewDomainError(shared.CodeUnauthorized, "invalid credentials")

// AuthServiceConfig wires the authentication service
type AuthServiceConfig struct {
	AdminUsername     string
	AdminPasswordHash string
	Contacts          partner.ContactRepository
	Hasher            PasswordHasher
	Tokens            TokenIssuer
	Blacklist         auth.TokenBlacklist
	Logger            *zap.Logger
}

// AuthService authenticates back-office staff and portal customers
type AuthService struct {
	adminUsername     string
	adminPasswordHash string
	contacts          partner.ContactRepository
	hasher            PasswordHasher
	tokens            TokenIssuer
	blacklist         auth.TokenBlacklist
	logger            *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		adminUsername:     cfg.AdminUsername,
		adminPasswordHash: cfg.AdminPasswordHash,
		contacts:          cfg.Contacts,
		hasher:            cfg.Hasher,
		tokens:            cfg.Tokens,
		blacklist:         cfg.Blacklist,
		logger:            logger,
	}
}

// AdminLogin checks the configured back-office credentials
func (s *AuthService) AdminLogin(_ context.Context, req LoginRequest) (*LoginResponse, error) {
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.adminUsername)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password
	passOK := s.hasher.Verify(s.adminPasswordHash, req.Password)
	if !userOK || !passOK {
		s.logger.Warn("Admin login failed", zap.String("username", req.Username))
		return nil, errInvalidCredentials
	}

	token, err := s.tokens.IssueAdminToken(req.Username)
	if err != nil {
		s.logger.Error("Failed to issue admin token", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Admin logged in", zap.String("username", req.Username))
	return &LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		Role:        string(token.Role),
	}, nil
}

// PortalLogin authenticates an active customer with portal access
func (s *AuthService) PortalLogin(ctx context.Context, req PortalLoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	contact, err := s.contacts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Portal login for unknown email", zap.String("email", email))
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if !contact.IsPortalUser || !contact.Active || !contact.IsCustomer() ||
		!s.hasher.Verify(contact.PortalPasswordHash, req.Password) {
		s.logger.Warn("Portal login failed", zap.String("contact_id", contact.ID.String()))
		return nil, errInvalidCredentials
	}

	token, err := s.tokens.IssuePortalToken(contact.ID)
	if err != nil {
		s.logger.Error("Failed to issue portal token", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Portal user logged in", zap.String("contact_id", contact.ID.String()))

	resp := ToContactResponse(contact)
	return &LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		Role:        string(token.Role),
		Contact:     &resp,
	}, nil
}

// Logout revokes a token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, jti string, remaining time.Duration) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	return s.blacklist.AddToBlacklist(ctx, jti, remaining)
}
