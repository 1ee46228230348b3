package service

import (
	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"attendance/internal/config"
	"attendance/internal/docstore"
	"attendance/internal/repository"
)

// Services wires every service over one record store.
type Services struct {
	Store      *docstore.Store
	Users      *UserService
	Auth       *AuthService
	Sessions   *SessionService
	Reports    *ReportService
	Statistics *StatisticsService
	Settings   *SettingsService
}

func NewServices(store *docstore.Store, clock quartz.Clock, cfg *config.AppConfig, log zerolog.Logger) *Services {
	users := repository.NewUserRepository(store)
	sessions := repository.NewSessionRepository(store)
	locations := repository.NewLocationRepository(store)
	reports := repository.NewReportRepository(store)
	settings := repository.NewSettingsRepository(store, clock, log.With().Str("component", "settings").Logger())

	return &Services{
		Store:      store,
		Users:      NewUserService(users, clock, cfg, log.With().Str("component", "users").Logger()),
		Auth:       NewAuthService(users, clock, cfg, log.With().Str("component", "auth").Logger()),
		Sessions:   NewSessionService(sessions, locations, settings, clock, cfg, log.With().Str("component", "sessions").Logger()),
		Reports:    NewReportService(reports, users, clock, cfg, log.With().Str("component", "reports").Logger()),
		Statistics: NewStatisticsService(sessions, users, log.With().Str("component", "statistics").Logger()),
		Settings:   NewSettingsService(settings, log.With().Str("component", "settings").Logger()),
	}
}
