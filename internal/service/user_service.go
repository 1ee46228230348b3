package service

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"attendance/internal/config"
	"attendance/internal/models"
	"attendance/internal/repository"
	"attendance/internal/security"
)

type UserService struct {
	users *repository.UserRepository
	clock quartz.Clock
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewUserService(users *repository.UserRepository, clock quartz.Clock, cfg *config.AppConfig, log zerolog.Logger) *UserService {
	return &UserService{users: users, clock: clock, cfg: cfg, log: log}
}

type RegisterInput struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	Password  string
	// AdminSecret must match security.adminbootstrapsecret for a configured
	// admin id to start active.
	AdminSecret string
}

// Register records the first contact of a user. New users start pending; a
// configured admin id starts active only when it presents the bootstrap
// secret. For known users only drifted profile fields are written back, and a
// user that already has a password must present it.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	var hash *string
	if input.Password != "" {
		encoded, err := security.HashPassword(input.Password)
		if err != nil {
			return models.User{}, err
		}
		hash = &encoded
	}

	now := s.clock.Now()
	var created bool
	user, err := s.users.Claim(ctx, input.ID, func(existing *models.User) (models.User, bool, error) {
		if existing == nil {
			status := models.UserStatusPending
			if s.bootstrapsAdmin(input) {
				status = models.UserStatusActive
			}
			created = true
			return models.User{
				ID:        input.ID,
				Username:  input.Username,
				FirstName: input.FirstName,
				LastName:  input.LastName,
				Status:    status,
				Password:  hash,
				CreatedAt: now,
				UpdatedAt: now,
			}, true, nil
		}

		if existing.Password != nil {
			ok, err := security.VerifyPassword(input.Password, *existing.Password)
			if err != nil || !ok {
				return models.User{}, false, ErrInvalidCredentials
			}
		}

		changed := false
		if existing.Username != input.Username || existing.FirstName != input.FirstName || existing.LastName != input.LastName {
			existing.Username = input.Username
			existing.FirstName = input.FirstName
			existing.LastName = input.LastName
			changed = true
		}
		if hash != nil && existing.Password == nil {
			existing.Password = hash
			changed = true
		}
		if changed {
			existing.UpdatedAt = now
		}
		return *existing, changed, nil
	})
	if err != nil {
		return models.User{}, err
	}

	if created {
		s.log.Info().Int64("user_id", user.ID).Str("status", string(user.Status)).Msg("user registered")
	}
	return user, nil
}

func (s *UserService) bootstrapsAdmin(input RegisterInput) bool {
	secret := s.cfg.Security.AdminBootstrapSecret
	if secret == "" || !s.cfg.Security.IsAdmin(input.ID) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(input.AdminSecret), []byte(secret)) == 1
}

func (s *UserService) Get(ctx context.Context, id int64) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) ListByStatus(ctx context.Context, status models.UserStatus) ([]models.User, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.users.ListByStatus(ctx, status)
}

func (s *UserService) SetStatus(ctx context.Context, id int64, status models.UserStatus) (models.User, error) {
	if !status.Valid() {
		return models.User{}, ErrInvalidStatus
	}
	if err := s.users.UpdateStatus(ctx, id, status, s.clock.Now()); err != nil {
		return models.User{}, err
	}
	s.log.Info().Int64("user_id", id).Str("status", string(status)).Msg("user status changed")
	return s.users.GetByID(ctx, id)
}

func (s *UserService) SetPassword(ctx context.Context, id int64, password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrInvalidCredentials
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash, s.clock.Now())
}

func (s *UserService) IsAdmin(id int64) bool {
	return s.cfg.Security.IsAdmin(id)
}

// CanAct reports whether the user may use attendance features. Only active
// users can.
func (s *UserService) CanAct(user models.User) bool {
	return user.Status == models.UserStatusActive
}

// CanAdminister reports whether the user may use admin features: an active
// user whose id is configured as an admin.
func (s *UserService) CanAdminister(user models.User) bool {
	return s.CanAct(user) && s.IsAdmin(user.ID)
}
