package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum constants
const (
	RoleDonor     = "DONOR"
	RoleRecipient = "RECIPIENT"
	RoleAdmin     = "ADMIN"
)

// User represents a donor, recipient, or admin account
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // Omit hash from JSON responses
	Role         string    `gorm:"type:varchar(20);not null;default:'RECIPIENT'" json:"role"` // DONOR, RECIPIENT, ADMIN
	Phone        string    `gorm:"type:varchar(20)" json:"phone,omitempty"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the ID in Go so the schema works on databases
// without a UUID default function.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ValidRole reports whether role is one of the three known roles
func ValidRole(role string) bool {
	return role == RoleDonor || role == RoleRecipient || role == RoleAdmin
}
