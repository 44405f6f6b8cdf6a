package upstream

import (
	"time"

	"github.com/charlesng35/fenceadmin/internal/models"
)

// List is one page of normalised records plus the server side total.
type List[T any] struct {
	Items []T
	Total int
}

// Position is the location stamp sent with login and logout calls.
type Position struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy"`
	Ts       string  `json:"ts"`
}

// ConsolePosition is the null-island stamp the console sends; it has no GPS.
func ConsolePosition(now time.Time) Position {
	return Position{Ts: now.UTC().Format(time.RFC3339Nano)}
}

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required"`
	DeviceID string   `json:"deviceId"`
	Location Position `json:"location"`
}

// LogoutRequest is the POST /auth/logout body.
type LogoutRequest struct {
	SessionID string   `json:"sessionId"`
	DeviceID  string   `json:"deviceId"`
	Location  Position `json:"location"`
}

// CreateUserRequest creates an employee or, with role admin, an administrator.
type CreateUserRequest struct {
	Username            string      `json:"username" validate:"required,min=3,max=64"`
	Password            string      `json:"password" validate:"required,min=6"`
	DisplayName         string      `json:"displayName" validate:"required"`
	Role                models.Role `json:"role" validate:"required,oneof=admin employee"`
	CompanyID           string      `json:"companyId,omitempty" validate:"required_if=Role employee"`
	AssignedDeviceID    string      `json:"assignedDeviceId,omitempty"`
	AllocatedLocationID string      `json:"allocatedLocationId,omitempty"`
}

// UpdateUserRequest carries only the fields to change; empty fields are not sent.
type UpdateUserRequest struct {
	DisplayName         string `json:"displayName,omitempty"`
	Password            string `json:"password,omitempty" validate:"omitempty,min=6"`
	CompanyID           string `json:"companyId,omitempty"`
	AssignedDeviceID    string `json:"assignedDeviceId,omitempty"`
	AllocatedLocationID string `json:"allocatedLocationId,omitempty"`
}

// Empty reports whether the update would send nothing.
func (r UpdateUserRequest) Empty() bool {
	return r == UpdateUserRequest{}
}

// AssignDeviceRequest binds a device to an employee.
type AssignDeviceRequest struct {
	UserID   string `json:"userId" validate:"required"`
	DeviceID string `json:"deviceId" validate:"required"`
}

// RegisterDeviceRequest registers a handset for a company.
type RegisterDeviceRequest struct {
	DeviceID  string `json:"deviceId" validate:"required"`
	Serial    string `json:"serial,omitempty"`
	Name      string `json:"name" validate:"required"`
	CompanyID string `json:"companyId" validate:"required"`
}

// CreateLocationRequest defines a new geofence.
type CreateLocationRequest struct {
	Name         string  `json:"name" validate:"required"`
	Lat          float64 `json:"lat" validate:"latitude"`
	Lon          float64 `json:"lon" validate:"longitude"`
	RadiusMeters float64 `json:"radiusMeters" validate:"gt=0"`
	CompanyID    string  `json:"companyId" validate:"required"`
}

// CreateCompanyRequest creates a tenant.
type CreateCompanyRequest struct {
	Name     string                 `json:"name" validate:"required"`
	Timezone string                 `json:"timezone" validate:"required"`
	Settings models.CompanySettings `json:"settings"`
}

// ExportRequest selects the sessions written to a CSV export.
type ExportRequest struct {
	CompanyID string `json:"companyId"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

// ReportRequest selects a user's work report.
type ReportRequest struct {
	UserID string            `json:"userId" validate:"required"`
	Type   models.ReportType `json:"type" validate:"required,report_type"`
	Date   string            `json:"date" validate:"required,datetime=2006-01-02"`
}
