package upstream

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/charlesng35/fenceadmin/internal/models"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// parseTime accepts ISO strings and epoch milliseconds. Anything else is nil.
func parseTime(v any) *time.Time {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return &parsed
			}
		}
	case float64:
		if t > 0 {
			parsed := time.UnixMilli(int64(t)).UTC()
			return &parsed
		}
	}
	return nil
}

// refID reads an id that may be a plain string or a populated document.
func refID(v any) string {
	switch ref := v.(type) {
	case string:
		return ref
	case map[string]any:
		for _, key := range []string{"_id", "id"} {
			if id, ok := ref[key].(string); ok && id != "" {
				return id
			}
		}
	case nil:
		return ""
	default:
		return fmt.Sprint(ref)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type rawGeo struct {
	Lat         *float64  `json:"lat"`
	Lon         *float64  `json:"lon"`
	Accuracy    float64   `json:"accuracy"`
	Coordinates []float64 `json:"coordinates"`
}

// point resolves either explicit lat/lon or a GeoJSON [lon, lat] pair.
func (g *rawGeo) point() *models.GeoPoint {
	if g == nil {
		return nil
	}
	if g.Lat != nil && g.Lon != nil {
		return &models.GeoPoint{Lat: *g.Lat, Lon: *g.Lon, Accuracy: g.Accuracy}
	}
	if len(g.Coordinates) >= 2 {
		return &models.GeoPoint{Lat: g.Coordinates[1], Lon: g.Coordinates[0], Accuracy: g.Accuracy}
	}
	return nil
}

type rawSession struct {
	ID              string  `json:"id"`
	MongoID         string  `json:"_id"`
	SessionID       string  `json:"sessionId"`
	CompanyID       any     `json:"companyId"`
	UserID          any     `json:"userId"`
	UserDisplayName string  `json:"userDisplayName"`
	DeviceID        any     `json:"deviceId"`
	LoginAt         any     `json:"loginAt"`
	LogoutAt        any     `json:"logoutAt"`
	Status          string  `json:"status"`
	LastHeartbeat   any     `json:"lastHeartbeat"`
	Suspect         bool    `json:"suspect"`
	Suspected       bool    `json:"suspected"`
	LoginLocation   *rawGeo `json:"loginLocation"`
	LogoutLocation  *rawGeo `json:"logoutLocation"`
}

func normalizeSession(input any) (models.Session, error) {
	var raw rawSession
	if err := decode(input, &raw); err != nil {
		return models.Session{}, err
	}

	session := models.Session{
		ID:              firstNonEmpty(raw.ID, raw.MongoID, raw.SessionID),
		SessionID:       raw.SessionID,
		CompanyID:       refID(raw.CompanyID),
		UserID:          refID(raw.UserID),
		UserDisplayName: raw.UserDisplayName,
		DeviceID:        refID(raw.DeviceID),
		LogoutAt:        parseTime(raw.LogoutAt),
		Status:          models.SessionStatus(strings.ToLower(strings.TrimSpace(raw.Status))),
		LastHeartbeat:   parseTime(raw.LastHeartbeat),
		Suspect:         raw.Suspect || raw.Suspected,
		LoginLocation:   raw.LoginLocation.point(),
		LogoutLocation:  raw.LogoutLocation.point(),
	}
	if login := parseTime(raw.LoginAt); login != nil {
		session.LoginAt = *login
	}
	if session.UserDisplayName == "" {
		if populated, ok := raw.UserID.(map[string]any); ok {
			if name, ok := populated["displayName"].(string); ok {
				session.UserDisplayName = name
			}
		}
	}
	return session, nil
}

type rawUser struct {
	ID                  string `json:"id"`
	MongoID             string `json:"_id"`
	Username            string `json:"username"`
	DisplayName         string `json:"displayName"`
	Role                string `json:"role"`
	CompanyID           any    `json:"companyId"`
	AssignedDeviceID    any    `json:"assignedDeviceId"`
	AllocatedLocationID any    `json:"allocatedLocationId"`
}

func normalizeUser(input any) (models.User, error) {
	var raw rawUser
	if err := decode(input, &raw); err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:                  firstNonEmpty(raw.ID, raw.MongoID),
		Username:            raw.Username,
		DisplayName:         raw.DisplayName,
		Role:                models.Role(strings.ToLower(strings.TrimSpace(raw.Role))),
		CompanyID:           refID(raw.CompanyID),
		AssignedDeviceID:    refID(raw.AssignedDeviceID),
		AllocatedLocationID: refID(raw.AllocatedLocationID),
	}
	if user.Role == "" {
		user.Role = models.RoleEmployee
	}
	if user.IsAdmin() {
		user.CompanyID = ""
		user.AssignedDeviceID = ""
		user.AllocatedLocationID = ""
	}
	return user, nil
}

type rawDevice struct {
	ID           string `json:"id"`
	MongoID      string `json:"_id"`
	DeviceID     string `json:"deviceId"`
	Serial       string `json:"serial"`
	DeviceName   string `json:"deviceName"`
	Name         string `json:"name"`
	CompanyID    any    `json:"companyId"`
	CompanyName  string `json:"companyName"`
	RegisteredAt any    `json:"registeredAt"`
	LastSeen     any    `json:"lastSeen"`
}

func normalizeDevice(input any) (models.Device, error) {
	var raw rawDevice
	if err := decode(input, &raw); err != nil {
		return models.Device{}, err
	}

	device := models.Device{
		ID:           firstNonEmpty(raw.ID, raw.MongoID),
		DeviceID:     raw.DeviceID,
		Serial:       raw.Serial,
		Name:         firstNonEmpty(raw.DeviceName, raw.Name),
		CompanyID:    refID(raw.CompanyID),
		CompanyName:  raw.CompanyName,
		RegisteredAt: parseTime(raw.RegisteredAt),
		LastSeen:     parseTime(raw.LastSeen),
	}
	if device.CompanyName == "" {
		if populated, ok := raw.CompanyID.(map[string]any); ok {
			device.CompanyName, _ = populated["name"].(string)
		}
	}
	return device, nil
}

type rawLocation struct {
	ID           string   `json:"id"`
	MongoID      string   `json:"_id"`
	Name         string   `json:"name"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	Coords       *rawGeo  `json:"coords"`
	RadiusMeters float64  `json:"radiusMeters"`
	CompanyID    any      `json:"companyId"`
	CreatedAt    any      `json:"createdAt"`
}

func normalizeLocation(input any) (models.Location, error) {
	var raw rawLocation
	if err := decode(input, &raw); err != nil {
		return models.Location{}, err
	}

	location := models.Location{
		ID:           firstNonEmpty(raw.ID, raw.MongoID),
		Name:         raw.Name,
		Lat:          raw.Lat,
		Lon:          raw.Lon,
		RadiusMeters: raw.RadiusMeters,
		CompanyID:    refID(raw.CompanyID),
		CreatedAt:    parseTime(raw.CreatedAt),
	}
	if location.Lat == nil || location.Lon == nil {
		if p := raw.Coords.point(); p != nil {
			lat, lon := p.Lat, p.Lon
			location.Lat, location.Lon = &lat, &lon
		}
	}
	return location, nil
}

type rawCompany struct {
	ID        string                 `json:"id"`
	MongoID   string                 `json:"_id"`
	Name      string                 `json:"name"`
	Timezone  string                 `json:"timezone"`
	Settings  models.CompanySettings `json:"settings"`
	CreatedAt any                    `json:"createdAt"`
}

func normalizeCompany(input any) (models.Company, error) {
	var raw rawCompany
	if err := decode(input, &raw); err != nil {
		return models.Company{}, err
	}
	return models.Company{
		ID:        firstNonEmpty(raw.ID, raw.MongoID),
		Name:      raw.Name,
		Timezone:  raw.Timezone,
		Settings:  raw.Settings,
		CreatedAt: parseTime(raw.CreatedAt),
	}, nil
}

type rawWorkSession struct {
	SessionID      string `json:"sessionId"`
	MongoID        string `json:"_id"`
	LoginAt        any    `json:"loginAt"`
	LogoutAt       any    `json:"logoutAt"`
	WorkingMinutes int    `json:"workingMinutes"`
	Status         string `json:"status"`
}

type rawReport struct {
	User                models.ReportUser `json:"user"`
	Type                string            `json:"type"`
	From                any               `json:"from"`
	To                  any               `json:"to"`
	TotalSessions       int               `json:"totalSessions"`
	TotalWorkingMinutes int               `json:"totalWorkingMinutes"`
	TotalWorkingHours   float64           `json:"totalWorkingHours"`
	Sessions            []rawWorkSession  `json:"sessions"`
}

func normalizeReport(input any) (models.WorkReport, error) {
	var raw rawReport
	if err := decode(input, &raw); err != nil {
		return models.WorkReport{}, err
	}

	report := models.WorkReport{
		User:                raw.User,
		Type:                models.ReportType(raw.Type),
		From:                parseTime(raw.From),
		To:                  parseTime(raw.To),
		TotalSessions:       raw.TotalSessions,
		TotalWorkingMinutes: raw.TotalWorkingMinutes,
		TotalWorkingHours:   raw.TotalWorkingHours,
		Sessions:            make([]models.WorkSession, 0, len(raw.Sessions)),
	}
	for _, s := range raw.Sessions {
		report.Sessions = append(report.Sessions, models.WorkSession{
			SessionID:      firstNonEmpty(s.SessionID, s.MongoID),
			LoginAt:        parseTime(s.LoginAt),
			LogoutAt:       parseTime(s.LogoutAt),
			WorkingMinutes: s.WorkingMinutes,
			Status:         s.Status,
		})
	}
	return report, nil
}

// normalizeAll maps every element with fn, failing on the first malformed entry.
func normalizeAll[T any](items []any, fn func(any) (T, error)) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, item := range items {
		record, err := fn(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, record)
	}
	return out, nil
}
