// Package present derives display values from canonical records. Every function is
// pure: it reads its arguments and never modifies them.
package present

import (
	"fmt"
	"math"
	"time"

	"github.com/charlesng35/fenceadmin/internal/models"
)

const (
	// TimestampLayout is used for every rendered instant.
	TimestampLayout = "2006-01-02 15:04:05"

	// Placeholder stands in for values that are absent.
	Placeholder = "-"

	// ActiveLabel is shown as the duration of an open session.
	ActiveLabel = "Active"
)

func heartbeatLabel(status models.SessionStatus) string {
	if status == models.SessionAutoLoggedOut {
		return "No heartbeat (auto logged out)"
	}
	return "No heartbeat (timed out)"
}

// UserDisplayName resolves who a session belongs to: the embedded name, else the
// display name of the matching user, else the raw user id.
func UserDisplayName(session models.Session, users []models.User) string {
	if session.UserDisplayName != "" {
		return session.UserDisplayName
	}
	for _, user := range users {
		if user.ID == session.UserID && user.DisplayName != "" {
			return user.DisplayName
		}
	}
	return session.UserID
}

// Duration renders worked hours with two decimals, or "Active" while the session is open.
func Duration(session models.Session) string {
	worked, closed := session.Worked()
	if !closed {
		return ActiveLabel
	}
	return fmt.Sprintf("%.2f hrs", worked.Hours())
}

// Heartbeat renders the last heartbeat in loc. Without one, sessions ended for missed
// heartbeats get an explanatory label and the rest a placeholder.
func Heartbeat(session models.Session, loc *time.Location) string {
	if session.LastHeartbeat != nil && !session.LastHeartbeat.IsZero() {
		return FormatTimestamp(session.LastHeartbeat, loc)
	}
	if session.Status.HeartbeatDriven() {
		return heartbeatLabel(session.Status)
	}
	return Placeholder
}

// FormatTimestamp renders t in loc, or the placeholder for nil or zero times.
func FormatTimestamp(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimestampLayout)
}

// CanResolve reports whether the resolve action applies to the session.
func CanResolve(session models.Session) bool {
	return session.Suspect
}

// CanForceLogout reports whether the session is still open.
func CanForceLogout(session models.Session) bool {
	return session.Status == models.SessionActive && session.LogoutAt == nil
}

// WorkDuration renders whole minutes as "Xh Ym".
func WorkDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// AveragePerSession renders the mean session length of a report, or the placeholder
// when it has no sessions.
func AveragePerSession(report models.WorkReport) string {
	if report.TotalSessions <= 0 {
		return Placeholder
	}
	return WorkDuration(report.TotalWorkingMinutes / report.TotalSessions)
}

// ReportTitle names the report period.
func ReportTitle(t models.ReportType) string {
	switch t {
	case models.ReportDaily:
		return "Daily Report"
	case models.ReportWeekly:
		return "Weekly Report"
	case models.ReportMonthly:
		return "Monthly Report"
	case models.ReportYearly:
		return "Yearly Report"
	default:
		return "Report"
	}
}

// Coordinate renders a latitude or longitude with six decimals, or "N/A".
func Coordinate(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return "N/A"
	}
	return fmt.Sprintf("%.6f", *v)
}
