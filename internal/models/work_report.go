package models

import "time"

// ReportType is the period a work report aggregates.
type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
	ReportYearly  ReportType = "yearly"
)

// ReportUser identifies whose work a report covers.
type ReportUser struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// WorkSession is one closed session inside a work report.
type WorkSession struct {
	SessionID      string     `json:"sessionId"`
	LoginAt        *time.Time `json:"loginAt,omitempty"`
	LogoutAt       *time.Time `json:"logoutAt,omitempty"`
	WorkingMinutes int        `json:"workingMinutes"`
	Status         string     `json:"status"`
}

// WorkReport aggregates a user's sessions over a period.
type WorkReport struct {
	User                ReportUser    `json:"user"`
	Type                ReportType    `json:"type"`
	From                *time.Time    `json:"from,omitempty"`
	To                  *time.Time    `json:"to,omitempty"`
	TotalSessions       int           `json:"totalSessions"`
	TotalWorkingMinutes int           `json:"totalWorkingMinutes"`
	TotalWorkingHours   float64       `json:"totalWorkingHours"`
	Sessions            []WorkSession `json:"sessions"`
}
