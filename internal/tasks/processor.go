package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"attendance/internal/models"
	"attendance/internal/queue"
	"attendance/internal/service"
)

type ReminderSource interface {
	MissingForDate(ctx context.Context, date string) ([]models.User, error)
}

type Reconciler interface {
	ReconcileDate(ctx context.Context, date string) (int, error)
}

type BackupRunner interface {
	Run(ctx context.Context) (service.BackupResult, error)
}

// Processor executes the tasks the scheduler puts on the stream.
type Processor struct {
	reports  ReminderSource
	sessions Reconciler
	backups  BackupRunner
	clock    quartz.Clock
	loc      *time.Location
	logger   zerolog.Logger
}

// NewProcessor builds a processor. backups may be nil when no object store is
// configured; backup tasks are then skipped.
func NewProcessor(reports ReminderSource, sessions Reconciler, backups BackupRunner, clock quartz.Clock, loc *time.Location, logger zerolog.Logger) *Processor {
	return &Processor{
		reports:  reports,
		sessions: sessions,
		backups:  backups,
		clock:    clock,
		loc:      loc,
		logger:   logger,
	}
}

// Handle runs one task. Failures the services refuse as not permitted, such
// as an invalid date, are marked queue.ErrPermanent.
func (p *Processor) Handle(ctx context.Context, task queue.Task) error {
	err := p.dispatch(ctx, task)
	if errors.Is(err, service.ErrNotPermitted) {
		return fmt.Errorf("%w: %w", queue.ErrPermanent, err)
	}
	return err
}

func (p *Processor) dispatch(ctx context.Context, task queue.Task) error {
	switch task.Type {
	case queue.TaskReportReminder:
		return p.handleReminder(ctx, p.dateOr(task, 0))
	case queue.TaskReconcile:
		return p.handleReconcile(ctx, p.dateOr(task, -1))
	case queue.TaskBackup:
		return p.handleBackup(ctx)
	default:
		p.logger.Warn().Str("type", string(task.Type)).Msg("unknown task type")
		return nil
	}
}

// dateOr returns the task date, or today shifted by offset days.
func (p *Processor) dateOr(task queue.Task, offset int) string {
	if task.Date != "" {
		return task.Date
	}
	return p.clock.Now().In(p.loc).AddDate(0, 0, offset).Format(models.DateLayout)
}

func (p *Processor) handleReminder(ctx context.Context, date string) error {
	missing, err := p.reports.MissingForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("report reminder %s: %w", date, err)
	}
	for _, user := range missing {
		p.logger.Info().
			Int64("user_id", user.ID).
			Str("username", user.Username).
			Str("date", date).
			Msg("daily report missing")
	}
	p.logger.Info().Str("date", date).Int("missing", len(missing)).Msg("report reminder done")
	return nil
}

func (p *Processor) handleReconcile(ctx context.Context, date string) error {
	count, err := p.sessions.ReconcileDate(ctx, date)
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", date, err)
	}
	p.logger.Info().Str("date", date).Int("sessions", count).Msg("sessions reconciled")
	return nil
}

func (p *Processor) handleBackup(ctx context.Context) error {
	if p.backups == nil {
		p.logger.Warn().Msg("backup requested but no object store configured")
		return nil
	}
	if _, err := p.backups.Run(ctx); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	return nil
}
