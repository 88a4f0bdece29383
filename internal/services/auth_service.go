package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/internal/session"
)

// AuthService logs users in and out.
type AuthService struct {
	api     AuthAPI
	manager *session.Manager
	logger  zerolog.Logger
}

// NewAuthService creates an AuthService storing sessions through manager.
func NewAuthService(api AuthAPI, manager *session.Manager, logger zerolog.Logger) *AuthService {
	return &AuthService{
		api:     api,
		manager: manager,
		logger:  logger,
	}
}

// Login authenticates and starts a new session.
func (a *AuthService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("email", "Please enter email and password.")
	}

	resp, err := a.api.Login(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		a.logger.Warn().Err(err).Str("email", email).Msg("Login failed")
		return nil, err
	}
	return a.manager.Create(resp.User, resp.Token)
}

// Signup registers an account and logs straight into it.
func (a *AuthService) Signup(ctx context.Context, reg models.Registration) (*session.Session, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if err := a.api.Register(ctx, reg); err != nil {
		a.logger.Warn().Err(err).Str("email", reg.Email).Msg("Signup failed")
		return nil, err
	}

	a.logger.Info().Str("email", reg.Email).Str("role", reg.Role).Msg("Account registered")
	return a.Login(ctx, reg.Email, reg.Password)
}

// Current returns the stored session, or session.ErrNoSession.
func (a *AuthService) Current() (*session.Session, error) {
	return a.manager.Restore()
}

// Logout destroys the current session.
func (a *AuthService) Logout() error {
	return a.manager.Destroy()
}
