package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"attendance/internal/config"
	"attendance/internal/models"
	"attendance/internal/queue"
)

type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) (string, error)
}

type Scheduler struct {
	cron  *cron.Cron
	queue TaskQueue
	cfg   config.JobsConfig
	clock quartz.Clock
	loc   *time.Location
	log   zerolog.Logger
}

// NewScheduler builds a scheduler. A nil queue turns it into a no-op.
func NewScheduler(queue TaskQueue, cfg config.JobsConfig, clock quartz.Clock, loc *time.Location, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds(), cron.WithLocation(loc))
	return &Scheduler{
		cron:  c,
		queue: queue,
		cfg:   cfg,
		clock: clock,
		loc:   loc,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		s.log.Info().Msg("task queue disabled, scheduler not started")
		return nil
	}

	jobs := []struct {
		spec string
		fn   func()
	}{
		{s.cfg.ReminderSpec, s.enqueueReminder},
		{s.cfg.ReconcileSpec, s.enqueueReconcile},
		{s.cfg.BackupSpec, s.enqueueBackup},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("schedule %q: %w", job.spec, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron and returns a context done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) today() time.Time {
	return s.clock.Now().In(s.loc)
}

func (s *Scheduler) enqueueReminder() {
	s.enqueue(queue.Task{
		Type: queue.TaskReportReminder,
		Date: s.today().Format(models.DateLayout),
	})
}

func (s *Scheduler) enqueueReconcile() {
	s.enqueue(queue.Task{
		Type: queue.TaskReconcile,
		Date: s.today().AddDate(0, 0, -1).Format(models.DateLayout),
	})
}

func (s *Scheduler) enqueueBackup() {
	s.enqueue(queue.Task{Type: queue.TaskBackup})
}

func (s *Scheduler) enqueue(task queue.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := s.queue.Enqueue(ctx, task)
	if err != nil {
		s.log.Error().Err(err).Str("type", string(task.Type)).Msg("enqueue task failed")
		return
	}
	s.log.Info().Str("type", string(task.Type)).Str("date", task.Date).Str("message_id", id).Msg("task enqueued")
}
