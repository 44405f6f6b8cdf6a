package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/fenceadmin/internal/models"
)

// AutoMigrate creates or updates the local state schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.CacheEntry{},
		&models.SystemSetting{},
		&models.JournalEntry{},
	)
}
