package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance/internal/docstore"
	"attendance/internal/models"
	"attendance/internal/repository"
)

func newStore(t *testing.T) *docstore.Store {
	t.Helper()
	backend, err := docstore.NewFileBackend(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	return docstore.New(backend, docstore.NewLockManager(), zerolog.Nop())
}

func TestSettingsDefaultsArePersisted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)
	clock := quartz.NewMock(t)
	settings := repository.NewSettingsRepository(store, clock, zerolog.Nop())

	got, err := settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)
	assert.Len(t, store.ReadAll(ctx, repository.CollectionSettings), 1)

	got.WorkStart = "08:30"
	got.Geofence.RadiusMeters = 250
	saved, err := settings.Save(ctx, got)
	require.NoError(t, err)
	require.NotNil(t, saved.UpdatedAt)
	assert.True(t, clock.Now().Equal(*saved.UpdatedAt))

	again, err := settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "08:30", again.WorkStart)
	assert.Equal(t, float64(250), again.Geofence.RadiusMeters)
	require.NotNil(t, again.UpdatedAt)
	assert.Len(t, store.ReadAll(ctx, repository.CollectionSettings), 1)
}

func TestReportUpsertKeepsOnePerDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reports := repository.NewReportRepository(newStore(t))
	at := time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)

	first, err := reports.Upsert(ctx, models.Report{ID: "r1", UserID: 5, Date: "2024-01-01", Content: "hello", SubmittedAt: at})
	require.NoError(t, err)
	second, err := reports.Upsert(ctx, models.Report{ID: "r2", UserID: 5, Date: "2024-01-01", Content: "world", SubmittedAt: at.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := reports.ListByUser(ctx, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "world", list[0].Content)
	assert.True(t, at.Add(time.Hour).Equal(list[0].SubmittedAt))

	_, err = reports.Get(ctx, 5, "2024-01-02")
	assert.ErrorIs(t, err, repository.ErrReportNotFound)
}

func TestSessionClaimIsSerialized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions := repository.NewSessionRepository(newStore(t))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sessions.Claim(ctx, 9, "2024-03-04", func(existing *models.Session) (models.Session, bool, error) {
				if existing != nil {
					return *existing, false, nil
				}
				return models.Session{ID: "s", UserID: 9, Date: "2024-03-04", Status: models.SessionStatusOnline}, true, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := sessions.ListByUser(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUserUpdateStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := repository.NewUserRepository(newStore(t))
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	err := users.UpdateStatus(ctx, 1, models.UserStatusActive, now)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = users.Claim(ctx, 1, func(existing *models.User) (models.User, bool, error) {
		return models.User{ID: 1, FirstName: "Aziz", Status: models.UserStatusPending, CreatedAt: now, UpdatedAt: now}, true, nil
	})
	require.NoError(t, err)
	require.NoError(t, users.UpdateStatus(ctx, 1, models.UserStatusActive, now.Add(time.Minute)))

	user, err := users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, user.Status)

	pending, err := users.ListByStatus(ctx, models.UserStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
