package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"attendance/internal/config"
	"attendance/internal/geo"
	"attendance/internal/models"
	"attendance/internal/repository"
)

// SessionService drives the per-day attendance state machine:
// absent -> online -> offline, with offline -> online on re-entry.
type SessionService struct {
	sessions         *repository.SessionRepository
	locations        *repository.LocationRepository
	settings         *repository.SettingsRepository
	clock            quartz.Clock
	loc              *time.Location
	minutesPerSample int
	log              zerolog.Logger
}

func NewSessionService(
	sessions *repository.SessionRepository,
	locations *repository.LocationRepository,
	settings *repository.SettingsRepository,
	clock quartz.Clock,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *SessionService {
	minutesPerSample := cfg.Attendance.MinutesPerSample
	if minutesPerSample <= 0 {
		minutesPerSample = 1
	}
	return &SessionService{
		sessions:         sessions,
		locations:        locations,
		settings:         settings,
		clock:            clock,
		loc:              cfg.Attendance.Location(),
		minutesPerSample: minutesPerSample,
		log:              log,
	}
}

func (s *SessionService) now() time.Time {
	return s.clock.Now().In(s.loc)
}

// Today returns the current date in the configured timezone.
func (s *SessionService) Today() string {
	return s.now().Format(models.DateLayout)
}

func (s *SessionService) IsWorkHours(ctx context.Context) (bool, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return false, err
	}
	return withinWorkHours(settings, s.now()), nil
}

// Start clocks the user in. Outside work hours it fails with
// ErrOutsideWorkHours. An online session for today is returned unchanged, an
// offline one is switched back to online keeping its lateness, and otherwise a
// new session is created with its late arrival minutes.
func (s *SessionService) Start(ctx context.Context, userID int64) (models.Session, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return models.Session{}, err
	}

	now := s.now()
	if !withinWorkHours(settings, now) {
		return models.Session{}, ErrOutsideWorkHours
	}

	date := now.Format(models.DateLayout)
	at := now.Format(models.ClockLayout)

	var created, resumed bool
	session, err := s.sessions.Claim(ctx, userID, date, func(existing *models.Session) (models.Session, bool, error) {
		if existing != nil {
			if existing.Status == models.SessionStatusOnline {
				return *existing, false, nil
			}
			existing.Status = models.SessionStatusOnline
			resumed = true
			return *existing, true, nil
		}
		created = true
		return models.Session{
			ID:                 uuid.NewString(),
			UserID:             userID,
			Date:               date,
			StartTime:          at,
			Status:             models.SessionStatusOnline,
			LateArrivalMinutes: lateMinutes(settings.WorkStart, at),
			CreatedAt:          now,
		}, true, nil
	})
	if err != nil {
		return models.Session{}, fmt.Errorf("start session: %w", err)
	}

	switch {
	case created:
		s.log.Info().
			Int64("user_id", userID).
			Str("session_id", session.ID).
			Int("late_minutes", session.LateArrivalMinutes).
			Msg("session started")
	case resumed:
		s.log.Info().Int64("user_id", userID).Str("session_id", session.ID).Msg("session resumed")
	}
	return session, nil
}

// End clocks the user out of today's session, recording the early leave.
func (s *SessionService) End(ctx context.Context, userID int64) (models.Session, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return models.Session{}, err
	}

	now := s.now()
	date := now.Format(models.DateLayout)
	at := now.Format(models.ClockLayout)

	session, err := s.sessions.Claim(ctx, userID, date, func(existing *models.Session) (models.Session, bool, error) {
		if existing == nil {
			return models.Session{}, false, repository.ErrSessionNotFound
		}
		existing.Status = models.SessionStatusOffline
		existing.EndTime = &at
		existing.EarlyLeaveMinutes = earlyLeaveMinutes(settings.WorkEnd, at)
		return *existing, true, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.Session{}, err
		}
		return models.Session{}, fmt.Errorf("end session: %w", err)
	}

	s.log.Info().
		Int64("user_id", userID).
		Str("session_id", session.ID).
		Int("early_leave_minutes", session.EarlyLeaveMinutes).
		Msg("session ended")
	return session, nil
}

// TodaySession returns the user's session for the current date.
func (s *SessionService) TodaySession(ctx context.Context, userID int64) (models.Session, error) {
	return s.sessions.FindByUserAndDate(ctx, userID, s.Today())
}

func (s *SessionService) Range(ctx context.Context, userID int64, start, end string) ([]models.Session, error) {
	if _, _, err := validateRange(start, end); err != nil {
		return nil, err
	}
	return s.sessions.ListByRange(ctx, userID, start, end)
}

// RecordLocation stores a position sample for the user's session and
// refreshes the session's online and office minutes.
//
// The sample and the session totals live in different collections and are
// written separately. Totals are always recomputed from all samples, so a
// failed totals write is repaired by the next sample or by Reconcile.
func (s *SessionService) RecordLocation(ctx context.Context, userID int64, sessionID string, lat, lng float64) (models.Location, error) {
	if !geo.ValidCoordinates(lat, lng) {
		return models.Location{}, ErrInvalidCoordinates
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return models.Location{}, err
	}

	now := s.now()
	if !withinWorkHours(settings, now) {
		return models.Location{}, ErrOutsideWorkHours
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return models.Location{}, err
	}
	if session.UserID != userID {
		return models.Location{}, repository.ErrSessionNotFound
	}
	if session.Status != models.SessionStatusOnline {
		return models.Location{}, ErrSessionClosed
	}

	location := models.Location{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Latitude:  lat,
		Longitude: lng,
		IsInsideOffice: geo.IsInside(lat, lng, geo.Fence{
			CenterLat:    settings.Geofence.CenterLat,
			CenterLng:    settings.Geofence.CenterLng,
			RadiusMeters: settings.Geofence.RadiusMeters,
		}),
		Timestamp: now,
	}
	if err := s.locations.Create(ctx, location); err != nil {
		return models.Location{}, err
	}

	if _, err := s.Reconcile(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("session totals not refreshed")
	}
	return location, nil
}

func (s *SessionService) Get(ctx context.Context, sessionID string) (models.Session, error) {
	return s.sessions.GetByID(ctx, sessionID)
}

// Locations returns the samples recorded for a session.
func (s *SessionService) Locations(ctx context.Context, sessionID string) ([]models.Location, error) {
	return s.locations.ListBySession(ctx, sessionID)
}

// Reconcile recomputes a session's totals from its location samples. Each
// sample counts as minutesPerSample minutes online, and as many office
// minutes when it was taken inside the geofence.
func (s *SessionService) Reconcile(ctx context.Context, sessionID string) (models.Session, error) {
	samples, err := s.locations.ListBySession(ctx, sessionID)
	if err != nil {
		return models.Session{}, err
	}

	online := len(samples) * s.minutesPerSample
	office := 0
	for _, sample := range samples {
		if sample.IsInsideOffice {
			office += s.minutesPerSample
		}
	}

	if err := s.sessions.UpdateTotals(ctx, sessionID, online, office); err != nil {
		return models.Session{}, err
	}
	return s.sessions.GetByID(ctx, sessionID)
}

// ReconcileDate reconciles every session on date and returns how many were
// refreshed.
func (s *SessionService) ReconcileDate(ctx context.Context, date string) (int, error) {
	if _, err := parseDate(date); err != nil {
		return 0, err
	}
	sessions, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return 0, err
	}

	var failed error
	count := 0
	for _, session := range sessions {
		if _, err := s.Reconcile(ctx, session.ID); err != nil {
			failed = errors.Join(failed, fmt.Errorf("session %s: %w", session.ID, err))
			continue
		}
		count++
	}
	return count, failed
}
