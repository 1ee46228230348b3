package models

import "time"

type Report struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Date        string    `json:"date"`
	Content     string    `json:"content"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Statistics struct {
	UserID                 int64   `json:"user_id"`
	StartDate              string  `json:"start_date"`
	EndDate                string  `json:"end_date"`
	TotalDays              int     `json:"total_days"`
	TotalOnlineMinutes     int     `json:"total_online_minutes"`
	TotalOfficeMinutes     int     `json:"total_office_minutes"`
	TotalLateMinutes       int     `json:"total_late_minutes"`
	TotalEarlyLeaveMinutes int     `json:"total_early_leave_minutes"`
	AverageOnlineMinutes   float64 `json:"average_online_minutes"`
	AttendanceRate         float64 `json:"attendance_rate"`
}

type UserStatistics struct {
	User       User       `json:"user"`
	Statistics Statistics `json:"statistics"`
}

type ChartDataset struct {
	Label       string `json:"label"`
	Data        []int  `json:"data"`
	BorderColor string `json:"borderColor"`
}

// ChartSeries is a gap-free per-day series for plotting.
type ChartSeries struct {
	Labels   []string       `json:"labels"`
	Online   []int          `json:"online"`
	Office   []int          `json:"office"`
	Late     []int          `json:"late"`
	Datasets []ChartDataset `json:"datasets"`
}
