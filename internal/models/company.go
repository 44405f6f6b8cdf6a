package models

import "time"

// CompanySettings tunes the attendance engine for one tenant.
type CompanySettings struct {
	SessionTimeoutHours int `json:"sessionTimeoutHours"`
	HeartbeatMinutes    int `json:"heartbeatMinutes"`
}

// Company is a tenant of the platform.
type Company struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Timezone  string          `json:"timezone"`
	Settings  CompanySettings `json:"settings"`
	CreatedAt *time.Time      `json:"createdAt,omitempty"`
}

func (c Company) RecordID() string { return c.ID }
