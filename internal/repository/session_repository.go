package repository

import (
	"context"
	"errors"
	"fmt"

	"attendance/internal/docstore"
	"attendance/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct {
	store *docstore.Store
}

func NewSessionRepository(store *docstore.Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// Claim runs fn against the user's session for date inside the sessions lock,
// so two concurrent clock-ins cannot both create a session for the same day.
func (r *SessionRepository) Claim(ctx context.Context, userID int64, date string, fn func(existing *models.Session) (models.Session, bool, error)) (models.Session, error) {
	return claim(ctx, r.store, CollectionSessions, docstore.Filter{"user_id": userID, "date": date}, fn)
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (models.Session, error) {
	return findFirst[models.Session](ctx, r.store, CollectionSessions, docstore.Filter{"id": id}, ErrSessionNotFound)
}

func (r *SessionRepository) FindByUserAndDate(ctx context.Context, userID int64, date string) (models.Session, error) {
	return findFirst[models.Session](ctx, r.store, CollectionSessions, docstore.Filter{"user_id": userID, "date": date}, ErrSessionNotFound)
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]models.Session, error) {
	return decodeAll[models.Session](r.store.FindMany(ctx, CollectionSessions, docstore.Filter{"user_id": userID}))
}

// ListByRange returns the user's sessions with start <= date <= end. Dates are
// "YYYY-MM-DD" so string order is calendar order.
func (r *SessionRepository) ListByRange(ctx context.Context, userID int64, start, end string) ([]models.Session, error) {
	sessions, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := sessions[:0]
	for _, session := range sessions {
		if start <= session.Date && session.Date <= end {
			out = append(out, session)
		}
	}
	return out, nil
}

func (r *SessionRepository) ListByDate(ctx context.Context, date string) ([]models.Session, error) {
	return decodeAll[models.Session](r.store.FindMany(ctx, CollectionSessions, docstore.Filter{"date": date}))
}

func (r *SessionRepository) UpdateTotals(ctx context.Context, id string, onlineMinutes, officeMinutes int) error {
	err := r.store.Update(ctx, CollectionSessions, "id", id, docstore.Document{
		"total_online_minutes": onlineMinutes,
		"total_office_minutes": officeMinutes,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	return nil
}
