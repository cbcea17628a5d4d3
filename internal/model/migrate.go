package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for the options table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Option{})
}
