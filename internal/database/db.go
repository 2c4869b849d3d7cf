package database

import (
	"medshare-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM. The
// caller runs Migrate separately so it can decide how to handle
// migration failures.
func NewConnection(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// Migrate applies the schema for all core models. Split out so tests
// can run it against their own database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Medicine{},
		&model.MedicineRequest{},
		&model.AuditLog{},
	)
}
