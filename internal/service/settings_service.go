package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"attendance/internal/geo"
	"attendance/internal/models"
	"attendance/internal/repository"
)

type SettingsService struct {
	settings *repository.SettingsRepository
	log      zerolog.Logger
}

func NewSettingsService(settings *repository.SettingsRepository, log zerolog.Logger) *SettingsService {
	return &SettingsService{settings: settings, log: log}
}

// SettingsPatch carries the fields to change; nil fields are left as they are.
type SettingsPatch struct {
	WorkStart    *string  `json:"work_start"`
	WorkEnd      *string  `json:"work_end"`
	LunchStart   *string  `json:"lunch_start"`
	LunchEnd     *string  `json:"lunch_end"`
	CenterLat    *float64 `json:"center_lat"`
	CenterLng    *float64 `json:"center_lng"`
	RadiusMeters *float64 `json:"radius_meters"`
}

func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	return s.settings.Get(ctx)
}

// Update applies the patch over the current settings, validates the result
// and saves it whole.
func (s *SettingsService) Update(ctx context.Context, patch SettingsPatch) (models.Settings, error) {
	current, err := s.settings.Get(ctx)
	if err != nil {
		return models.Settings{}, err
	}

	assign(&current.WorkStart, patch.WorkStart)
	assign(&current.WorkEnd, patch.WorkEnd)
	assign(&current.LunchStart, patch.LunchStart)
	assign(&current.LunchEnd, patch.LunchEnd)
	assign(&current.Geofence.CenterLat, patch.CenterLat)
	assign(&current.Geofence.CenterLng, patch.CenterLng)
	assign(&current.Geofence.RadiusMeters, patch.RadiusMeters)

	if err := validateSettings(current); err != nil {
		return models.Settings{}, err
	}

	saved, err := s.settings.Save(ctx, current)
	if err != nil {
		return models.Settings{}, err
	}
	s.log.Info().
		Str("work_start", saved.WorkStart).
		Str("work_end", saved.WorkEnd).
		Float64("radius_meters", saved.Geofence.RadiusMeters).
		Msg("settings updated")
	return saved, nil
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func validateSettings(settings models.Settings) error {
	for name, value := range map[string]string{
		"work_start":  settings.WorkStart,
		"work_end":    settings.WorkEnd,
		"lunch_start": settings.LunchStart,
		"lunch_end":   settings.LunchEnd,
	} {
		if !validClock(value) {
			return fmt.Errorf("%w: %s must be HH:MM, got %q", ErrInvalidSettings, name, value)
		}
	}
	if settings.WorkStart >= settings.WorkEnd {
		return fmt.Errorf("%w: work_start must be before work_end", ErrInvalidSettings)
	}
	if settings.LunchStart > settings.LunchEnd {
		return fmt.Errorf("%w: lunch_start must not be after lunch_end", ErrInvalidSettings)
	}
	fence := settings.Geofence
	if !geo.ValidCoordinates(fence.CenterLat, fence.CenterLng) {
		return fmt.Errorf("%w: geofence center out of range", ErrInvalidSettings)
	}
	if !(fence.RadiusMeters > 0) {
		return fmt.Errorf("%w: radius_meters must be positive", ErrInvalidSettings)
	}
	return nil
}
