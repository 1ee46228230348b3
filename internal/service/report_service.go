package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"attendance/internal/config"
	"attendance/internal/models"
	"attendance/internal/repository"
)

type ReportService struct {
	reports *repository.ReportRepository
	users   *repository.UserRepository
	clock   quartz.Clock
	loc     *time.Location
	log     zerolog.Logger
}

func NewReportService(
	reports *repository.ReportRepository,
	users *repository.UserRepository,
	clock quartz.Clock,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		reports: reports,
		users:   users,
		clock:   clock,
		loc:     cfg.Attendance.Location(),
		log:     log,
	}
}

func (s *ReportService) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func (s *ReportService) Today() string {
	return s.now().Format(models.DateLayout)
}

// Submit stores the user's daily report as sent. An empty date means today. A
// second submission for the same date replaces the content of the first.
func (s *ReportService) Submit(ctx context.Context, userID int64, content, date string) (models.Report, error) {
	if strings.TrimSpace(content) == "" {
		return models.Report{}, ErrEmptyReport
	}

	now := s.now()
	if date == "" {
		date = now.Format(models.DateLayout)
	} else if _, err := parseDate(date); err != nil {
		return models.Report{}, err
	}

	report, err := s.reports.Upsert(ctx, models.Report{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        date,
		Content:     content,
		SubmittedAt: now,
	})
	if err != nil {
		return models.Report{}, fmt.Errorf("submit report: %w", err)
	}

	s.log.Info().Int64("user_id", userID).Str("date", date).Str("report_id", report.ID).Msg("report submitted")
	return report, nil
}

func (s *ReportService) Get(ctx context.Context, userID int64, date string) (models.Report, error) {
	if _, err := parseDate(date); err != nil {
		return models.Report{}, err
	}
	return s.reports.Get(ctx, userID, date)
}

// ListByUser returns the user's reports, newest date first.
func (s *ReportService) ListByUser(ctx context.Context, userID int64) ([]models.Report, error) {
	reports, err := s.reports.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].Date > reports[j].Date })
	return reports, nil
}

func (s *ReportService) ListByDate(ctx context.Context, date string) ([]models.Report, error) {
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	return s.reports.ListByDate(ctx, date)
}

// MissingForDate returns the active users who have not submitted a report
// for date.
func (s *ReportService) MissingForDate(ctx context.Context, date string) ([]models.User, error) {
	reports, err := s.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	submitted := make(map[int64]struct{}, len(reports))
	for _, report := range reports {
		submitted[report.UserID] = struct{}{}
	}

	users, err := s.users.ListByStatus(ctx, models.UserStatusActive)
	if err != nil {
		return nil, err
	}
	missing := make([]models.User, 0, len(users))
	for _, user := range users {
		if _, ok := submitted[user.ID]; !ok {
			missing = append(missing, user)
		}
	}
	return missing, nil
}
