package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MedicineStatus constants
const (
	MedicineAvailable = "AVAILABLE"
	MedicineClaimed   = "CLAIMED"
	MedicineExpired   = "EXPIRED"
)

// Medicine represents one donated lot: a quantity of a single medicine
// from one donor with one expiry date. Repeat donations of the same
// (donor, name, expiry) merge into the existing AVAILABLE row instead
// of creating a duplicate.
//
// Status, ClaimedBy, and ClaimedAt mirror the active ledger entry in
// medicine_requests; they are written only in the same transaction as
// the ledger row so the two can never disagree.
type Medicine struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(255);not null;index" json:"name"`
	Category    string     `gorm:"type:varchar(100)" json:"category,omitempty"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	ExpiryDate  time.Time  `gorm:"not null;index" json:"expiry_date"`
	Quantity    int        `gorm:"type:int;not null;check:quantity >= 0" json:"quantity"`
	DonorID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"donor_id"`
	Donor       *User      `gorm:"foreignKey:DonorID" json:"donor,omitempty"`
	Status      string     `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"` // AVAILABLE, CLAIMED, EXPIRED
	ClaimedBy   *uuid.UUID `gorm:"type:uuid;index" json:"claimed_by,omitempty"`
	Claimer     *User      `gorm:"foreignKey:ClaimedBy" json:"claimer,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (m *Medicine) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
