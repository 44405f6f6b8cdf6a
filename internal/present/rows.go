package present

import (
	"fmt"
	"time"

	"github.com/charlesng35/fenceadmin/internal/models"
)

// SessionRow is one rendered line of the sessions table.
type SessionRow struct {
	ID            string `json:"id"`
	User          string `json:"user"`
	DeviceID      string `json:"deviceId"`
	LoginAt       string `json:"loginAt"`
	LogoutAt      string `json:"logoutAt"`
	Duration      string `json:"duration"`
	Status        string `json:"status"`
	LastHeartbeat string `json:"lastHeartbeat"`
	Suspect       bool   `json:"suspect"`
	CanResolve    bool   `json:"canResolve"`
	CanKick       bool   `json:"canKick"`
	Busy          bool   `json:"busy"`
}

// SessionRows renders sessions. busy marks rows with an action in flight.
func SessionRows(sessions []models.Session, users []models.User, loc *time.Location, busy func(id string) bool) []SessionRow {
	out := make([]SessionRow, 0, len(sessions))
	for _, s := range sessions {
		login := s.LoginAt
		row := SessionRow{
			ID:            s.ID,
			User:          UserDisplayName(s, users),
			DeviceID:      s.DeviceID,
			LoginAt:       FormatTimestamp(&login, loc),
			LogoutAt:      FormatTimestamp(s.LogoutAt, loc),
			Duration:      Duration(s),
			Status:        string(s.Status),
			LastHeartbeat: Heartbeat(s, loc),
			Suspect:       s.Suspect,
			CanResolve:    CanResolve(s),
			CanKick:       CanForceLogout(s),
		}
		if busy != nil {
			row.Busy = busy(s.ID)
		}
		out = append(out, row)
	}
	return out
}

// DeviceRow is one rendered line of the devices table.
type DeviceRow struct {
	ID       string `json:"id"`
	DeviceID string `json:"deviceId"`
	Name     string `json:"name"`
	Serial   string `json:"serial"`
	Company  string `json:"company"`
	LastSeen string `json:"lastSeen"`
}

// DeviceRows renders devices, naming companies from the given list when the record
// does not carry a name.
func DeviceRows(devices []models.Device, companies []models.Company, loc *time.Location) []DeviceRow {
	names := companyNames(companies)
	out := make([]DeviceRow, 0, len(devices))
	for _, d := range devices {
		company := d.CompanyName
		if company == "" {
			company = names[d.CompanyID]
		}
		if company == "" {
			company = d.CompanyID
		}
		serial := d.Serial
		if serial == "" {
			serial = Placeholder
		}
		out = append(out, DeviceRow{
			ID:       d.ID,
			DeviceID: d.DeviceID,
			Name:     d.Name,
			Serial:   serial,
			Company:  company,
			LastSeen: FormatTimestamp(d.LastSeen, loc),
		})
	}
	return out
}

// LocationRow is one rendered line of the locations table.
type LocationRow struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Radius  string `json:"radius"`
	Company string `json:"company"`
}

// LocationRows renders geofences.
func LocationRows(locations []models.Location, companies []models.Company) []LocationRow {
	names := companyNames(companies)
	out := make([]LocationRow, 0, len(locations))
	for _, l := range locations {
		company := names[l.CompanyID]
		if company == "" {
			company = l.CompanyID
		}
		out = append(out, LocationRow{
			ID:      l.ID,
			Name:    l.Name,
			Lat:     Coordinate(l.Lat),
			Lon:     Coordinate(l.Lon),
			Radius:  fmt.Sprintf("%gm", l.RadiusMeters),
			Company: company,
		})
	}
	return out
}

// UserRow is one rendered line of the users table.
type UserRow struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	Device      string `json:"device"`
}

// UserRows renders users.
func UserRows(users []models.User, companies []models.Company) []UserRow {
	names := companyNames(companies)
	out := make([]UserRow, 0, len(users))
	for _, u := range users {
		company := Placeholder
		if u.CompanyID != "" {
			company = names[u.CompanyID]
			if company == "" {
				company = u.CompanyID
			}
		}
		device := u.AssignedDeviceID
		if device == "" {
			device = Placeholder
		}
		out = append(out, UserRow{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Role:        string(u.Role),
			Company:     company,
			Device:      device,
		})
	}
	return out
}

func companyNames(companies []models.Company) map[string]string {
	names := make(map[string]string, len(companies))
	for _, c := range companies {
		names[c.ID] = c.Name
	}
	return names
}
