package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus constants
const (
	RequestPending  = "PENDING"
	RequestApproved = "APPROVED"
	RequestRejected = "REJECTED"
)

// MedicineRequest is the ledger entry for one recipient's claim on one
// medicine lot. PENDING transitions exactly once, to APPROVED or
// REJECTED, and is immutable afterward. At most one PENDING/APPROVED
// entry may exist per (medicine, recipient) pair.
type MedicineRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MedicineID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"medicine_id"`
	Medicine    *Medicine  `gorm:"foreignKey:MedicineID" json:"medicine,omitempty"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Recipient   *User      `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"` // PENDING, APPROVED, REJECTED
	RequestedAt time.Time  `gorm:"autoCreateTime" json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	ProcessedBy *uuid.UUID `gorm:"type:uuid" json:"processed_by,omitempty"`
	Processor   *User      `gorm:"foreignKey:ProcessedBy" json:"processor,omitempty"`
}

func (r *MedicineRequest) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
