package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance/internal/config"
	"attendance/internal/docstore"
	"attendance/internal/models"
	"attendance/internal/repository"
	"attendance/internal/service"
)

const officeLat, officeLng = 41.311081, 69.240562

const bootstrapSecret = "let-me-in"

type fixture struct {
	clock     *quartz.Mock
	store     *docstore.Store
	cfg       *config.AppConfig
	users     *repository.UserRepository
	sessions  *service.SessionService
	reports   *service.ReportService
	stats     *service.StatisticsService
	settings  *service.SettingsService
	userSvc   *service.UserService
	auth      *service.AuthService
	sessionDB *repository.SessionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend, err := docstore.NewFileBackend(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	store := docstore.New(backend, docstore.NewLockManager(), zerolog.Nop())

	cfg := &config.AppConfig{
		Attendance: config.AttendanceConfig{Timezone: "UTC", MinutesPerSample: 1},
		Security: config.SecurityConfig{
			JWTSecret:            "test-secret",
			JWTTTL:               time.Hour,
			AdminIDs:             []int64{1},
			AdminBootstrapSecret: bootstrapSecret,
		},
	}
	clock := quartz.NewMock(t)
	log := zerolog.Nop()

	users := repository.NewUserRepository(store)
	sessionRepo := repository.NewSessionRepository(store)
	settingsRepo := repository.NewSettingsRepository(store, clock, log)

	return &fixture{
		clock:     clock,
		store:     store,
		cfg:       cfg,
		users:     users,
		sessionDB: sessionRepo,
		sessions:  service.NewSessionService(sessionRepo, repository.NewLocationRepository(store), settingsRepo, clock, cfg, log),
		reports:   service.NewReportService(repository.NewReportRepository(store), users, clock, cfg, log),
		stats:     service.NewStatisticsService(sessionRepo, users, log),
		settings:  service.NewSettingsService(settingsRepo, log),
		userSvc:   service.NewUserService(users, clock, cfg, log),
		auth:      service.NewAuthService(users, clock, cfg, log),
	}
}

func (f *fixture) at(date, clock string) {
	ts, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.UTC)
	if err != nil {
		panic(err)
	}
	f.clock.Set(ts)
}

func TestLateArrivalAndEarlyLeave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.at("2024-05-06", "09:15")
	session, err := f.sessions.Start(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 15, session.LateArrivalMinutes)
	assert.Equal(t, "09:15", session.StartTime)
	assert.Equal(t, models.SessionStatusOnline, session.Status)

	f.at("2024-05-06", "17:45")
	ended, err := f.sessions.End(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, session.ID, ended.ID)
	assert.Equal(t, 15, ended.EarlyLeaveMinutes)
	assert.Equal(t, models.SessionStatusOffline, ended.Status)
	require.NotNil(t, ended.EndTime)
	assert.Equal(t, "17:45", *ended.EndTime)

	stats, err := f.stats.ForRange(ctx, 7, "2024-05-06", "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDays)
	assert.Equal(t, 15, stats.TotalLateMinutes)
	assert.Equal(t, 15, stats.TotalEarlyLeaveMinutes)
}

func TestStartIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.at("2024-05-06", "09:05")
	first, err := f.sessions.Start(ctx, 7)
	require.NoError(t, err)

	f.at("2024-05-06", "10:00")
	second, err := f.sessions.Start(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "09:05", second.StartTime)
	assert.Equal(t, 5, second.LateArrivalMinutes)

	list, err := f.sessionDB.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReentryFlipsOfflineSessionOnline(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.at("2024-05-06", "09:30")
	started, err := f.sessions.Start(ctx, 7)
	require.NoError(t, err)

	f.at("2024-05-06", "12:00")
	_, err = f.sessions.End(ctx, 7)
	require.NoError(t, err)

	f.at("2024-05-06", "13:00")
	resumed, err := f.sessions.Start(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, started.ID, resumed.ID)
	assert.Equal(t, models.SessionStatusOnline, resumed.Status)
	assert.Equal(t, 30, resumed.LateArrivalMinutes)

	list, err := f.sessionDB.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStartOutsideWorkHours(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.at("2024-05-06", "08:59")
	_, err := f.sessions.Start(ctx, 7)
	assert.ErrorIs(t, err, service.ErrOutsideWorkHours)
	assert.ErrorIs(t, err, service.ErrNotPermitted)

	f.at("2024-05-06", "18:01")
	_, err = f.sessions.Start(ctx, 7)
	assert.ErrorIs(t, err, service.ErrOutsideWorkHours)

	f.at("2024-05-06", "18:00")
	ok, err := f.sessions.IsWorkHours(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEndWithoutSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.at("2024-05-06", "17:00")

	_, err := f.sessions.End(context.Background(), 7)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestConcurrentStartsCreateOneSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.at("2024-05-06", "09:00")

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session, err := f.sessions.Start(ctx, 7)
			assert.NoError(t, err)
			ids[i] = session.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	list, err := f.sessionDB.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRecordLocationCountsSamples(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.at("2024-05-06", "09:00")
	session, err := f.sessions.Start(ctx, 7)
	require.NoError(t, err)

	inside, err := f.sessions.RecordLocation(ctx, 7, session.ID, officeLat, officeLng)
	require.NoError(t, err)
	assert.True(t, inside.IsInsideOffice)

	f.clock.Advance(time.Minute)
	_, err = f.sessions.RecordLocation(ctx, 7, session.ID, officeLat, officeLng)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	outside, err := f.sessions.RecordLocation(ctx, 7, session.ID, officeLat+0.045, officeLng)
	require.NoError(t, err)
	assert.False(t, outside.IsInsideOffice)

	today, err := f.sessions.TodaySession(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, today.TotalOnlineMinutes)
	assert.Equal(t, 2, today.TotalOfficeMinutes)

	samples, err := f.sessions.Locations(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, samples, 3)
}

func TestRecordLocationRejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.at("2024-05-06", "09:00")
	session, err := f.sessions.Start(ctx, 7)
	require.NoError(t, err)

	_, err = f.sessions.RecordLocation(ctx, 7, session.ID, 91, 0)
	assert.ErrorIs(t, err, service.ErrInvalidCoordinates)

	_, err = f.sessions.RecordLocation(ctx, 8, session.ID, officeLat, officeLng)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	_, err = f.sessions.RecordLocation(ctx, 7, "missing", officeLat, officeLng)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	_, err = f.sessions.End(ctx, 7)
	require.NoError(t, err)
	_, err = f.sessions.RecordLocation(ctx, 7, session.ID, officeLat, officeLng)
	assert.ErrorIs(t, err, service.ErrSessionClosed)

	f.at("2024-05-06", "19:00")
	_, err = f.sessions.RecordLocation(ctx, 7, session.ID, officeLat, officeLng)
	assert.ErrorIs(t, err, service.ErrOutsideWorkHours)

	samples, err := f.sessions.Locations(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestMinutesPerSample(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.cfg.Attendance.MinutesPerSample = 5
	settingsRepo := repository.NewSettingsRepository(f.store, f.clock, zerolog.Nop())
	sessions := service.NewSessionService(f.sessionDB, repository.NewLocationRepository(f.store), settingsRepo, f.clock, f.cfg, zerolog.Nop())

	f.at("2024-05-06", "10:00")
	session, err := sessions.Start(ctx, 7)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := sessions.RecordLocation(ctx, 7, session.ID, officeLat, officeLng)
		require.NoError(t, err)
	}

	reconciled, err := sessions.Reconcile(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, reconciled.TotalOnlineMinutes)
	assert.Equal(t, 20, reconciled.TotalOfficeMinutes)
}

func TestReconcileDateRepairsTotals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.at("2024-05-06", "09:00")
	session, err := f.sessions.Start(ctx, 7)
	require.NoError(t, err)
	_, err = f.sessions.RecordLocation(ctx, 7, session.ID, officeLat, officeLng)
	require.NoError(t, err)

	require.NoError(t, f.sessionDB.UpdateTotals(ctx, session.ID, 0, 0))

	count, err := f.sessions.ReconcileDate(ctx, "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	repaired, err := f.sessionDB.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired.TotalOnlineMinutes)
	assert.Equal(t, 1, repaired.TotalOfficeMinutes)

	_, err = f.sessions.ReconcileDate(ctx, "2024-13-01")
	assert.ErrorIs(t, err, service.ErrInvalidDate)
}

func TestReportResubmissionReplacesContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.at("2024-01-01", "17:00")

	first, err := f.reports.Submit(ctx, 7, "hello", "2024-01-01")
	require.NoError(t, err)
	second, err := f.reports.Submit(ctx, 7, "world", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := f.reports.ListByDate(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "world", list[0].Content)
}

func TestReportValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.at("2024-01-02", "17:00")

	_, err := f.reports.Submit(ctx, 7, "   \n\t", "")
	assert.ErrorIs(t, err, service.ErrEmptyReport)
	assert.ErrorIs(t, err, service.ErrNotPermitted)

	_, err = f.reports.Submit(ctx, 7, "done", "02-01-2024")
	assert.ErrorIs(t, err, service.ErrInvalidDate)

	report, err := f.reports.Submit(ctx, 7, "  done\n- fixed login  ", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", report.Date)
	assert.Equal(t, "  done\n- fixed login  ", report.Content)

	got, err := f.reports.Get(ctx, 7, "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, report.Content, got.Content)

	_, err = f.reports.Get(ctx, 7, "2024-01-03")
	assert.ErrorIs(t, err, repository.ErrReportNotFound)
}

func TestMissingReports(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.at("2024-01-02", "17:00")

	for _, id := range []int64{1, 2, 3} {
		_, err := f.userSvc.Register(ctx, service.RegisterInput{ID: id, FirstName: "u"})
		require.NoError(t, err)
	}
	for _, id := range []int64{1, 2, 3} {
		_, err := f.userSvc.SetStatus(ctx, id, models.UserStatusActive)
		require.NoError(t, err)
	}
	_, err := f.reports.Submit(ctx, 2, "done", "")
	require.NoError(t, err)

	missing, err := f.reports.MissingForDate(ctx, "2024-01-02")
	require.NoError(t, err)
	ids := make([]int64, 0, len(missing))
	for _, user := range missing {
		ids = append(ids, user.ID)
	}
	assert.ElementsMatch(t, []int64{1, 3}, ids)
}

func TestStatisticsRangeSplits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	days := []struct {
		date, start, end string
	}{
		{"2024-02-05", "09:10", "18:00"},
		{"2024-02-06", "09:00", "17:30"},
		{"2024-02-08", "09:45", "16:00"},
		{"2024-02-09", "09:02", "17:59"},
	}
	for _, day := range days {
		f.at(day.date, day.start)
		session, err := f.sessions.Start(ctx, 7)
		require.NoError(t, err)
		_, err = f.sessions.RecordLocation(ctx, 7, session.ID, officeLat, officeLng)
		require.NoError(t, err)
		f.at(day.date, day.end)
		_, err = f.sessions.End(ctx, 7)
		require.NoError(t, err)
	}

	whole, err := f.stats.ForRange(ctx, 7, "2024-02-05", "2024-02-09")
	require.NoError(t, err)
	assert.Equal(t, 4, whole.TotalDays)
	assert.Equal(t, 10+45+2, whole.TotalLateMinutes)
	assert.Equal(t, 30+120+1, whole.TotalEarlyLeaveMinutes)
	assert.Equal(t, float64(100), whole.AttendanceRate)

	for _, mid := range []string{"2024-02-05", "2024-02-06", "2024-02-07", "2024-02-08"} {
		next, err := time.Parse(models.DateLayout, mid)
		require.NoError(t, err)
		left, err := f.stats.ForRange(ctx, 7, "2024-02-05", mid)
		require.NoError(t, err)
		right, err := f.stats.ForRange(ctx, 7, next.AddDate(0, 0, 1).Format(models.DateLayout), "2024-02-09")
		require.NoError(t, err)

		assert.Equal(t, whole.TotalDays, left.TotalDays+right.TotalDays, mid)
		assert.Equal(t, whole.TotalOnlineMinutes, left.TotalOnlineMinutes+right.TotalOnlineMinutes, mid)
		assert.Equal(t, whole.TotalOfficeMinutes, left.TotalOfficeMinutes+right.TotalOfficeMinutes, mid)
		assert.Equal(t, whole.TotalLateMinutes, left.TotalLateMinutes+right.TotalLateMinutes, mid)
		assert.Equal(t, whole.TotalEarlyLeaveMinutes, left.TotalEarlyLeaveMinutes+right.TotalEarlyLeaveMinutes, mid)
	}
}

func TestAggregateWithoutSessions(t *testing.T) {
	t.Parallel()
	stats := service.Aggregate(7, "2024-01-01", "2024-01-31", nil)
	assert.Zero(t, stats.TotalDays)
	assert.Zero(t, stats.AverageOnlineMinutes)
	assert.Zero(t, stats.AttendanceRate)

	stats = service.Aggregate(7, "2024-01-01", "2024-01-31", []models.Session{{LateArrivalMinutes: 4}})
	assert.Equal(t, 4, stats.TotalLateMinutes)
	assert.Zero(t, stats.AttendanceRate)
}

func TestStatisticsRejectsBadRange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.stats.ForRange(ctx, 7, "2024-02-09", "2024-02-05")
	assert.ErrorIs(t, err, service.ErrInvalidRange)
	_, err = f.stats.Chart(ctx, 7, "2024-02-30", "2024-03-05")
	assert.ErrorIs(t, err, service.ErrInvalidDate)
	_, err = f.stats.Chart(ctx, 7, "2020-01-01", "2024-01-01")
	assert.ErrorIs(t, err, service.ErrInvalidRange)
}

func TestChartIsZeroFilled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.at("2024-02-28", "09:20")
	_, err := f.sessions.Start(ctx, 7)
	require.NoError(t, err)

	chart, err := f.stats.Chart(ctx, 7, "2024-02-27", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}, chart.Labels)
	assert.Equal(t, []int{0, 20, 0, 0}, chart.Late)
	assert.Equal(t, []int{0, 0, 0, 0}, chart.Online)
	assert.Len(t, chart.Office, 4)
	require.Len(t, chart.Datasets, 3)
	assert.Equal(t, chart.Late, chart.Datasets[2].Data)
}

func TestSettingsUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	start, end := "08:00", "17:00"
	radius := 250.0
	updated, err := f.settings.Update(ctx, service.SettingsPatch{WorkStart: &start, WorkEnd: &end, RadiusMeters: &radius})
	require.NoError(t, err)
	assert.Equal(t, "08:00", updated.WorkStart)
	assert.Equal(t, "17:00", updated.WorkEnd)
	assert.Equal(t, "13:00", updated.LunchStart)
	assert.Equal(t, 250.0, updated.Geofence.RadiusMeters)
	require.NotNil(t, updated.UpdatedAt)

	bad := "8:00"
	_, err = f.settings.Update(ctx, service.SettingsPatch{WorkStart: &bad})
	assert.ErrorIs(t, err, service.ErrInvalidSettings)

	late := "19:00"
	_, err = f.settings.Update(ctx, service.SettingsPatch{WorkStart: &late})
	assert.ErrorIs(t, err, service.ErrInvalidSettings)

	zero := 0.0
	_, err = f.settings.Update(ctx, service.SettingsPatch{RadiusMeters: &zero})
	assert.ErrorIs(t, err, service.ErrInvalidSettings)

	got, err := f.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "08:00", got.WorkStart)

	f.at("2024-05-06", "08:10")
	session, err := f.sessions.Start(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, session.LateArrivalMinutes)
}

func TestRegisterAndStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	admin, err := f.userSvc.Register(ctx, service.RegisterInput{ID: 1, FirstName: "Admin", AdminSecret: bootstrapSecret})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, admin.Status)
	assert.True(t, f.userSvc.CanAdminister(admin))

	user, err := f.userSvc.Register(ctx, service.RegisterInput{ID: 2, Username: "aziz", FirstName: "Aziz", AdminSecret: bootstrapSecret})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusPending, user.Status)
	assert.False(t, f.userSvc.CanAct(user))
	assert.False(t, f.userSvc.CanAdminister(user))
	assert.False(t, f.userSvc.CanAdminister(models.User{ID: 1, Status: models.UserStatusPending}))

	f.clock.Advance(time.Hour)
	renamed, err := f.userSvc.Register(ctx, service.RegisterInput{ID: 2, Username: "aziz", FirstName: "Aziz", LastName: "K"})
	require.NoError(t, err)
	assert.Equal(t, "Aziz K", renamed.FullName())
	assert.True(t, renamed.UpdatedAt.After(renamed.CreatedAt))

	_, err = f.userSvc.SetStatus(ctx, 2, models.UserStatus("ghost"))
	assert.ErrorIs(t, err, service.ErrInvalidStatus)
	_, err = f.userSvc.SetStatus(ctx, 99, models.UserStatusActive)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	blocked, err := f.userSvc.SetStatus(ctx, 2, models.UserStatusBlocked)
	require.NoError(t, err)
	assert.False(t, f.userSvc.CanAct(blocked))

	all, err := f.userSvc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.userSvc.Register(ctx, service.RegisterInput{ID: 5, FirstName: "Dilnoza", Password: "s3cret"})
	require.NoError(t, err)

	result, err := f.auth.Login(ctx, 5, "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Nil(t, result.User.Password)

	_, err = f.auth.Login(ctx, 5, "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, 6, "s3cret")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.userSvc.SetStatus(ctx, 5, models.UserStatusBlocked)
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, 5, "s3cret")
	assert.ErrorIs(t, err, service.ErrAccountInactive)
}

func TestReregistrationNeedsPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.userSvc.Register(ctx, service.RegisterInput{ID: 4, FirstName: "Old", Password: "pw"})
	require.NoError(t, err)

	_, err = f.userSvc.Register(ctx, service.RegisterInput{ID: 4, FirstName: "Mallory", Password: "guess"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	user, err := f.userSvc.Register(ctx, service.RegisterInput{ID: 4, FirstName: "New", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "New", user.FirstName)
}

func TestAdminIDNeedsBootstrapSecret(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	squatter, err := f.userSvc.Register(ctx, service.RegisterInput{ID: 1, FirstName: "Eve", Password: "hunter2", AdminSecret: "guess"})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusPending, squatter.Status)
	assert.False(t, f.userSvc.CanAdminister(squatter))

	result, err := f.auth.Login(ctx, 1, "hunter2")
	require.NoError(t, err)
	assert.False(t, f.userSvc.CanAdminister(result.User))

	f.cfg.Security.AdminBootstrapSecret = ""
	_, err = f.userSvc.Register(ctx, service.RegisterInput{ID: 1, FirstName: "Eve", Password: "hunter2"})
	require.NoError(t, err)
	stored, err := f.userSvc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusPending, stored.Status)
}

func TestConcurrentFirstRegistrationsKeepOneOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	names := []string{"alpha", "bravo", "charlie", "delta"}
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.userSvc.Register(ctx, service.RegisterInput{ID: 9, FirstName: name, Password: "pw-" + name})
		}()
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "only one registration may succeed")
			winner = i
			continue
		}
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	}
	require.NotEqual(t, -1, winner)

	stored, err := f.userSvc.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, names[winner], stored.FirstName)
	_, err = f.auth.Login(ctx, 9, "pw-"+names[winner])
	assert.NoError(t, err)
}

type flakyBackend struct {
	docstore.Backend
	mu       sync.Mutex
	failLoad bool
	saves    int
}

func (b *flakyBackend) Load(ctx context.Context, collection string) ([]docstore.Document, error) {
	b.mu.Lock()
	fail := b.failLoad
	b.mu.Unlock()
	if fail {
		return nil, errors.New("permission denied")
	}
	return b.Backend.Load(ctx, collection)
}

func (b *flakyBackend) Save(ctx context.Context, collection string, docs []docstore.Document) error {
	b.mu.Lock()
	b.saves++
	b.mu.Unlock()
	return b.Backend.Save(ctx, collection, docs)
}

func TestSettingsUpdateKeepsStoredSettingsWhenReadFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	files, err := docstore.NewFileBackend(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	backend := &flakyBackend{Backend: files}
	store := docstore.New(backend, docstore.NewLockManager(), zerolog.Nop())
	clock := quartz.NewMock(t)
	settings := service.NewSettingsService(repository.NewSettingsRepository(store, clock, zerolog.Nop()), zerolog.Nop())

	start, radius := "07:30", 250.0
	_, err = settings.Update(ctx, service.SettingsPatch{WorkStart: &start, RadiusMeters: &radius})
	require.NoError(t, err)
	saves := backend.saves

	backend.failLoad = true
	smaller := 50.0
	_, err = settings.Update(ctx, service.SettingsPatch{RadiusMeters: &smaller})
	require.ErrorContains(t, err, "permission denied")
	assert.NotErrorIs(t, err, service.ErrNotPermitted)
	assert.Equal(t, saves, backend.saves)

	_, err = settings.Get(ctx)
	require.Error(t, err)

	backend.failLoad = false
	got, err := settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "07:30", got.WorkStart)
	assert.Equal(t, 250.0, got.Geofence.RadiusMeters)
}
