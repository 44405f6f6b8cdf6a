package models

import "time"

// SessionStatus is the lifecycle state reported by the attendance engine.
type SessionStatus string

const (
	SessionActive           SessionStatus = "active"
	SessionLoggedOut        SessionStatus = "logged_out"
	SessionExpired          SessionStatus = "expired"
	SessionAutoLoggedOut    SessionStatus = "auto_logged_out"
	SessionHeartbeatTimeout SessionStatus = "heartbeat_timeout"
)

// SessionStatuses lists every status in display order.
var SessionStatuses = []SessionStatus{
	SessionActive,
	SessionLoggedOut,
	SessionExpired,
	SessionAutoLoggedOut,
	SessionHeartbeatTimeout,
}

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	for _, known := range SessionStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Closed reports whether the status carries a logout timestamp.
func (s SessionStatus) Closed() bool {
	switch s {
	case SessionLoggedOut, SessionExpired, SessionAutoLoggedOut:
		return true
	}
	return false
}

// HeartbeatDriven reports whether the engine ended the session for missed heartbeats.
func (s SessionStatus) HeartbeatDriven() bool {
	return s == SessionHeartbeatTimeout || s == SessionAutoLoggedOut
}

// Session is one attendance session (login to logout) of an employee.
type Session struct {
	ID              string        `json:"id"`
	SessionID       string        `json:"sessionId,omitempty"`
	CompanyID       string        `json:"companyId"`
	UserID          string        `json:"userId"`
	UserDisplayName string        `json:"userDisplayName,omitempty"`
	DeviceID        string        `json:"deviceId"`
	LoginAt         time.Time     `json:"loginAt"`
	LogoutAt        *time.Time    `json:"logoutAt,omitempty"`
	Status          SessionStatus `json:"status"`
	LastHeartbeat   *time.Time    `json:"lastHeartbeat,omitempty"`
	Suspect         bool          `json:"suspect"`
	LoginLocation   *GeoPoint     `json:"loginLocation,omitempty"`
	LogoutLocation  *GeoPoint     `json:"logoutLocation,omitempty"`
}

func (s Session) RecordID() string { return s.ID }

// Consistent reports whether a logout time is present exactly when the status is closed.
func (s Session) Consistent() bool {
	return s.Status.Closed() == (s.LogoutAt != nil)
}

// Worked returns the session length. ok is false while the session is open.
func (s Session) Worked() (d time.Duration, ok bool) {
	if s.LogoutAt == nil {
		return 0, false
	}
	return s.LogoutAt.Sub(s.LoginAt), true
}
