package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"attendance/internal/models"
	"attendance/internal/repository"
)

// maxChartDays bounds the number of buckets a single chart request may ask for.
const maxChartDays = 731

const (
	chartColorOnline = "#4CAF50"
	chartColorOffice = "#2196F3"
	chartColorLate   = "#F44336"
)

type StatisticsService struct {
	sessions *repository.SessionRepository
	users    *repository.UserRepository
	log      zerolog.Logger
}

func NewStatisticsService(sessions *repository.SessionRepository, users *repository.UserRepository, log zerolog.Logger) *StatisticsService {
	return &StatisticsService{sessions: sessions, users: users, log: log}
}

// ForRange aggregates the user's sessions dated within [start, end].
func (s *StatisticsService) ForRange(ctx context.Context, userID int64, start, end string) (models.Statistics, error) {
	if _, _, err := validateRange(start, end); err != nil {
		return models.Statistics{}, err
	}
	sessions, err := s.sessions.ListByRange(ctx, userID, start, end)
	if err != nil {
		return models.Statistics{}, err
	}
	return Aggregate(userID, start, end, sessions), nil
}

// Aggregate sums the sessions into range statistics. The average is zero
// without sessions and the attendance rate is zero without online minutes.
func Aggregate(userID int64, start, end string, sessions []models.Session) models.Statistics {
	stats := models.Statistics{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		TotalDays: len(sessions),
	}
	for _, session := range sessions {
		stats.TotalOnlineMinutes += session.TotalOnlineMinutes
		stats.TotalOfficeMinutes += session.TotalOfficeMinutes
		stats.TotalLateMinutes += session.LateArrivalMinutes
		stats.TotalEarlyLeaveMinutes += session.EarlyLeaveMinutes
	}
	if stats.TotalDays > 0 {
		stats.AverageOnlineMinutes = float64(stats.TotalOnlineMinutes) / float64(stats.TotalDays)
	}
	if stats.TotalOnlineMinutes > 0 {
		stats.AttendanceRate = float64(stats.TotalOfficeMinutes) / float64(stats.TotalOnlineMinutes) * 100
	}
	return stats
}

// Chart builds one bucket per calendar day in [start, end], zero-filled for
// days without a session.
func (s *StatisticsService) Chart(ctx context.Context, userID int64, start, end string) (models.ChartSeries, error) {
	from, to, err := validateRange(start, end)
	if err != nil {
		return models.ChartSeries{}, err
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > maxChartDays {
		return models.ChartSeries{}, fmt.Errorf("%w: %d days exceeds %d", ErrInvalidRange, days, maxChartDays)
	}

	sessions, err := s.sessions.ListByRange(ctx, userID, start, end)
	if err != nil {
		return models.ChartSeries{}, err
	}
	byDate := make(map[string]models.Session, len(sessions))
	for _, session := range sessions {
		byDate[session.Date] = session
	}

	series := models.ChartSeries{
		Labels: make([]string, 0, days),
		Online: make([]int, 0, days),
		Office: make([]int, 0, days),
		Late:   make([]int, 0, days),
	}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		label := day.Format(models.DateLayout)
		session := byDate[label]
		series.Labels = append(series.Labels, label)
		series.Online = append(series.Online, session.TotalOnlineMinutes)
		series.Office = append(series.Office, session.TotalOfficeMinutes)
		series.Late = append(series.Late, session.LateArrivalMinutes)
	}
	series.Datasets = []models.ChartDataset{
		{Label: "Online minutes", Data: series.Online, BorderColor: chartColorOnline},
		{Label: "Office minutes", Data: series.Office, BorderColor: chartColorOffice},
		{Label: "Late minutes", Data: series.Late, BorderColor: chartColorLate},
	}
	return series, nil
}

// ForAllUsers pairs every user with their statistics for [start, end].
func (s *StatisticsService) ForAllUsers(ctx context.Context, start, end string) ([]models.UserStatistics, error) {
	if _, _, err := validateRange(start, end); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserStatistics, 0, len(users))
	for _, user := range users {
		stats, err := s.ForRange(ctx, user.ID, start, end)
		if err != nil {
			return nil, fmt.Errorf("statistics for user %d: %w", user.ID, err)
		}
		user.Password = nil
		out = append(out, models.UserStatistics{User: user, Statistics: stats})
	}
	return out, nil
}
