package models

import (
	"time"

	"gorm.io/datatypes"
)

// JournalEntry records one action dispatched from a list view.
type JournalEntry struct {
	BaseModel
	View     string         `gorm:"size:32;index" json:"view"`
	Kind     string         `gorm:"size:32;index" json:"kind"`
	TargetID string         `gorm:"size:128;index" json:"targetId"`
	Actor    string         `gorm:"size:128" json:"actor"`
	Outcome  string         `gorm:"size:16;not null" json:"outcome"`
	Message  string         `json:"message"`
	Details  datatypes.JSON `json:"details,omitempty"`
	Duration time.Duration  `json:"durationNs"`
}
