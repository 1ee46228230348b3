package service

import (
	"context"
	"errors"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"attendance/internal/config"
	"attendance/internal/models"
	"attendance/internal/repository"
	"attendance/internal/security"
)

type AuthService struct {
	users *repository.UserRepository
	clock quartz.Clock
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewAuthService(users *repository.UserRepository, clock quartz.Clock, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, clock: clock, cfg: cfg, log: log}
}

type AuthResult struct {
	AccessToken string
	User        models.User
}

// Login checks the password of the user and issues an access token.
func (s *AuthService) Login(ctx context.Context, userID int64, password string) (AuthResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if user.Password == nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(password, *user.Password)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}
	if user.Status == models.UserStatusBlocked {
		return AuthResult{}, ErrAccountInactive
	}

	token, err := s.Issue(user.ID)
	if err != nil {
		return AuthResult{}, err
	}
	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")

	user.Password = nil
	return AuthResult{AccessToken: token, User: user}, nil
}

// Issue signs an access token for the user without checking a password.
func (s *AuthService) Issue(userID int64) (string, error) {
	return security.GenerateAccessToken(s.cfg.Security.JWTSecret, userID, s.clock.Now(), s.cfg.Security.JWTTTL)
}
