package models

// Role distinguishes console administrators from tracked employees.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// User is a platform account.
type User struct {
	ID                  string `json:"id"`
	Username            string `json:"username"`
	DisplayName         string `json:"displayName"`
	Role                Role   `json:"role"`
	CompanyID           string `json:"companyId,omitempty"`
	AssignedDeviceID    string `json:"assignedDeviceId,omitempty"`
	AllocatedLocationID string `json:"allocatedLocationId,omitempty"`
}

func (u User) RecordID() string { return u.ID }

// IsAdmin reports whether the user administers the platform.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
