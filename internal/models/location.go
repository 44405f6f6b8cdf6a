package models

import "time"

// Location is a geofence: a centre point and a radius in metres.
type Location struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Lat          *float64   `json:"lat,omitempty"`
	Lon          *float64   `json:"lon,omitempty"`
	RadiusMeters float64    `json:"radiusMeters"`
	CompanyID    string     `json:"companyId"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

func (l Location) RecordID() string { return l.ID }
