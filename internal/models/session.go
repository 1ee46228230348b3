package models

import "time"

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type SessionStatus string

const (
	SessionStatusOnline  SessionStatus = "online"
	SessionStatusOffline SessionStatus = "offline"
)

// Session is one user's attendance for one calendar date.
type Session struct {
	ID                 string        `json:"id"`
	UserID             int64         `json:"user_id"`
	Date               string        `json:"date"`
	StartTime          string        `json:"start_time"`
	EndTime            *string       `json:"end_time"`
	Status             SessionStatus `json:"status"`
	TotalOnlineMinutes int           `json:"total_online_minutes"`
	TotalOfficeMinutes int           `json:"total_office_minutes"`
	LateArrivalMinutes int           `json:"late_arrival_minutes"`
	EarlyLeaveMinutes  int           `json:"early_leave_minutes"`
	CreatedAt          time.Time     `json:"created_at"`
}

// Location is one recorded position sample.
type Location struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"user_id"`
	SessionID      string    `json:"session_id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	IsInsideOffice bool      `json:"is_inside_office"`
	Timestamp      time.Time `json:"timestamp"`
}
