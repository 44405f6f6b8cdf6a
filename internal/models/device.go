package models

import "time"

// Device is a registered attendance handset.
type Device struct {
	ID           string     `json:"id"`
	DeviceID     string     `json:"deviceId"`
	Serial       string     `json:"serial,omitempty"`
	Name         string     `json:"name"`
	CompanyID    string     `json:"companyId"`
	CompanyName  string     `json:"companyName,omitempty"`
	RegisteredAt *time.Time `json:"registeredAt,omitempty"`
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
}

func (d Device) RecordID() string { return d.ID }
