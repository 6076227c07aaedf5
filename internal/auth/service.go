package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aggies-attic/internal/apperr"
	"aggies-attic/internal/database"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/models"
)

type DBLayer interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	Create(ctx context.Context, a *models.Admin) error
}

type Service struct {
	DB     DBLayer
	Tokens *TokenManager
	Logger *logger.Logger
}

func NewService(db DBLayer, tokens *TokenManager, log *logger.Logger) *Service {
	return &Service{DB: db, Tokens: tokens, Logger: log}
}

func validateCredentials(c models.Credentials) (models.Credentials, error) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Email == "" || c.Password == "" {
		return c, apperr.Validation("Email and password are required")
	}
	return c, nil
}

// Login checks the credentials and returns a signed session token. Unknown
// email and wrong password give the same error.
func (s *Service) Login(ctx context.Context, c models.Credentials) (*models.TokenResponse, error) {
	c, err := validateCredentials(c)
	if err != nil {
		return nil, err
	}

	admin, err := s.DB.FindByEmail(ctx, c.Email)
	if errors.Is(err, database.ErrNotFound) {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("unknown email %s", c.Email))
		return nil, apperr.Auth("Invalid credentials")
	}
	if err != nil {
		return nil, apperr.Unexpected("find admin", err)
	}
	if !CheckPassword(admin.PasswordHash, c.Password) {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("bad password for %s", c.Email))
		return nil, apperr.Auth("Invalid credentials")
	}

	token, err := s.Tokens.Issue(admin.ID.Hex(), admin.Email)
	if err != nil {
		return nil, apperr.Unexpected("issue token", err)
	}
	s.Logger.Info("AUTH", fmt.Sprintf("admin %s logged in", admin.Email))

	return &models.TokenResponse{
		Token:     token,
		ExpiresIn: int(s.Tokens.TTL().Seconds()),
		Admin:     models.AdminSummary{ID: admin.ID.Hex(), Email: admin.Email},
	}, nil
}

func (s *Service) Register(ctx context.Context, c models.Credentials) (*models.Admin, error) {
	c, err := validateCredentials(c)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(c.Password)
	if err != nil {
		return nil, apperr.Unexpected("hash password", err)
	}

	admin := &models.Admin{Email: c.Email, PasswordHash: hash}
	if err := s.DB.Create(ctx, admin); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperr.Conflict("Admin already exists")
		}
		return nil, apperr.Unexpected("create admin", err)
	}
	s.Logger.Info("AUTH", fmt.Sprintf("admin %s registered", admin.Email))
	return admin, nil
}

// Logout revokes the caller's token.
func (s *Service) Logout(ctx context.Context, c *Claims) error {
	if c == nil {
		return apperr.Auth("No token, authorization denied")
	}
	if err := s.Tokens.Revoke(ctx, c); err != nil {
		return apperr.Unexpected("revoke token", err)
	}
	s.Logger.Info("AUTH", fmt.Sprintf("admin %s logged out", c.Email))
	return nil
}
