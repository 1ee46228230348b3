package tasks_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance/internal/models"
	"attendance/internal/queue"
	"attendance/internal/service"
	"attendance/internal/tasks"
)

type fakeReports struct{ dates []string }

func (f *fakeReports) MissingForDate(_ context.Context, date string) ([]models.User, error) {
	f.dates = append(f.dates, date)
	return []models.User{{ID: 3, Username: "late"}}, nil
}

type fakeSessions struct {
	dates []string
	err   error
}

func (f *fakeSessions) ReconcileDate(_ context.Context, date string) (int, error) {
	f.dates = append(f.dates, date)
	return 2, f.err
}

type fakeBackups struct{ runs int }

func (f *fakeBackups) Run(context.Context) (service.BackupResult, error) {
	f.runs++
	return service.BackupResult{RunID: "run"}, nil
}

func newProcessor(t *testing.T, backups tasks.BackupRunner) (*tasks.Processor, *fakeReports, *fakeSessions) {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2024, 5, 6, 0, 5, 0, 0, time.UTC))
	reports, sessions := &fakeReports{}, &fakeSessions{}
	return tasks.NewProcessor(reports, sessions, backups, clock, time.UTC, zerolog.Nop()), reports, sessions
}

func TestProcessorDispatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backups := &fakeBackups{}
	processor, reports, sessions := newProcessor(t, backups)

	require.NoError(t, processor.Handle(ctx, queue.Task{Type: queue.TaskReportReminder}))
	require.NoError(t, processor.Handle(ctx, queue.Task{Type: queue.TaskReportReminder, Date: "2024-05-03"}))
	require.NoError(t, processor.Handle(ctx, queue.Task{Type: queue.TaskReconcile}))
	require.NoError(t, processor.Handle(ctx, queue.Task{Type: queue.TaskBackup}))
	require.NoError(t, processor.Handle(ctx, queue.Task{Type: "unknown"}))

	assert.Equal(t, []string{"2024-05-06", "2024-05-03"}, reports.dates)
	assert.Equal(t, []string{"2024-05-05"}, sessions.dates)
	assert.Equal(t, 1, backups.runs)
}

func TestProcessorErrorsKeepTaskPending(t *testing.T) {
	t.Parallel()
	processor, _, sessions := newProcessor(t, nil)
	sessions.err = errors.New("disk full")

	err := processor.Handle(context.Background(), queue.Task{Type: queue.TaskReconcile, Date: "2024-05-01"})
	assert.ErrorContains(t, err, "disk full")

	assert.NoError(t, processor.Handle(context.Background(), queue.Task{Type: queue.TaskBackup}))
}

func TestProcessorMarksRefusedTasksPermanent(t *testing.T) {
	t.Parallel()
	processor, _, sessions := newProcessor(t, nil)
	sessions.err = fmt.Errorf("%w: \"2024-13-40\"", service.ErrInvalidDate)

	err := processor.Handle(context.Background(), queue.Task{Type: queue.TaskReconcile, Date: "2024-13-40"})
	assert.ErrorIs(t, err, queue.ErrPermanent)
	assert.ErrorIs(t, err, service.ErrInvalidDate)

	sessions.err = errors.New("disk full")
	err = processor.Handle(context.Background(), queue.Task{Type: queue.TaskReconcile, Date: "2024-05-01"})
	assert.NotErrorIs(t, err, queue.ErrPermanent)
}
