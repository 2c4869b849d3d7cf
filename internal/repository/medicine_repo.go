package repository

import (
	"context"
	"time"

	"medshare-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MedicineFilter narrows ListAvailable results. Zero values mean "no filter".
type MedicineFilter struct {
	Name         string
	Category     string
	ExpiryBefore time.Time
	ExpiryAfter  time.Time
}

// MedicineRepository is the durable store of medicine lots. State
// transitions are expressed as conditional updates: each mutation
// carries its expected current status in the WHERE clause and reports
// via the returned row count whether it won. Callers treat zero rows
// as a conflict, never as something to retry blindly.
type MedicineRepository interface {
	Create(ctx context.Context, med *model.Medicine) error
	Save(ctx context.Context, med *model.Medicine) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
	FindByIDWithDonor(ctx context.Context, id uuid.UUID) (*model.Medicine, error)

	// FindMergeCandidate looks up the AVAILABLE lot a repeat donation
	// should fold into: same donor, same name, same expiry date.
	FindMergeCandidate(ctx context.Context, donorID uuid.UUID, name string, expiry time.Time) (*model.Medicine, error)

	ListAvailable(ctx context.Context, now time.Time, filter MedicineFilter) ([]model.Medicine, error)
	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]model.Medicine, error)
	ListClaimedBy(ctx context.Context, recipientID uuid.UUID) ([]model.Medicine, error)
	ListAll(ctx context.Context, offset, limit int) ([]model.Medicine, int64, error)
	ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]model.Medicine, error)

	// ClaimLot flips AVAILABLE -> CLAIMED for exactly one winner.
	ClaimLot(ctx context.Context, id, recipientID uuid.UUID, at time.Time) (int64, error)
	// ReleaseLot reverts CLAIMED -> AVAILABLE and clears the claim fields.
	ReleaseLot(ctx context.Context, id uuid.UUID) (int64, error)
	// DeductOne subtracts a single unit from a CLAIMED lot, expiring it
	// when the stock reaches zero.
	DeductOne(ctx context.Context, id uuid.UUID) (int64, error)
	// ExpireOverdue marks every AVAILABLE/CLAIMED lot past its expiry
	// date as EXPIRED and returns how many rows transitioned.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	CountByStatus(ctx context.Context, status string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type medicineRepository struct {
	db *gorm.DB
}

func NewMedicineRepository(db *gorm.DB) MedicineRepository {
	return &medicineRepository{db: db}
}

func (r *medicineRepository) Create(ctx context.Context, med *model.Medicine) error {
	return GetDB(ctx, r.db).Create(med).Error
}

func (r *medicineRepository) Save(ctx context.Context, med *model.Medicine) error {
	return GetDB(ctx, r.db).Save(med).Error
}

func (r *medicineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Medicine{}).Error
}

func (r *medicineRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	var med model.Medicine
	if err := GetDB(ctx, r.db).First(&med, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &med, nil
}

func (r *medicineRepository) FindByIDWithDonor(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	var med model.Medicine
	if err := GetDB(ctx, r.db).Preload("Donor").First(&med, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &med, nil
}

func (r *medicineRepository) FindMergeCandidate(ctx context.Context, donorID uuid.UUID, name string, expiry time.Time) (*model.Medicine, error) {
	var med model.Medicine
	err := GetDB(ctx, r.db).
		Where("donor_id = ? AND name = ? AND expiry_date = ? AND status = ?",
			donorID, name, expiry, model.MedicineAvailable).
		First(&med).Error
	if err != nil {
		return nil, err
	}
	return &med, nil
}

func (r *medicineRepository) ListAvailable(ctx context.Context, now time.Time, filter MedicineFilter) ([]model.Medicine, error) {
	// LOWER(...) LIKE instead of ILIKE keeps the query portable to the
	// sqlite databases the tests run on.
	q := GetDB(ctx, r.db).
		Preload("Donor").
		Where("status = ? AND expiry_date > ?", model.MedicineAvailable, now)

	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("LOWER(category) LIKE LOWER(?)", "%"+filter.Category+"%")
	}
	if !filter.ExpiryBefore.IsZero() {
		q = q.Where("expiry_date <= ?", filter.ExpiryBefore)
	}
	if !filter.ExpiryAfter.IsZero() {
		q = q.Where("expiry_date >= ?", filter.ExpiryAfter)
	}

	var meds []model.Medicine
	if err := q.Order("created_at DESC").Find(&meds).Error; err != nil {
		return nil, err
	}
	return meds, nil
}

func (r *medicineRepository) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]model.Medicine, error) {
	var meds []model.Medicine
	err := GetDB(ctx, r.db).
		Preload("Claimer").
		Where("donor_id = ?", donorID).
		Order("created_at DESC").
		Find(&meds).Error
	if err != nil {
		return nil, err
	}
	return meds, nil
}

func (r *medicineRepository) ListClaimedBy(ctx context.Context, recipientID uuid.UUID) ([]model.Medicine, error) {
	var meds []model.Medicine
	err := GetDB(ctx, r.db).
		Preload("Donor").
		Where("claimed_by = ?", recipientID).
		Order("claimed_at DESC, created_at DESC").
		Find(&meds).Error
	if err != nil {
		return nil, err
	}
	return meds, nil
}

func (r *medicineRepository) ListAll(ctx context.Context, offset, limit int) ([]model.Medicine, int64, error) {
	var total int64
	if err := GetDB(ctx, r.db).Model(&model.Medicine{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var meds []model.Medicine
	err := GetDB(ctx, r.db).
		Preload("Donor").
		Preload("Claimer").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&meds).Error
	if err != nil {
		return nil, 0, err
	}
	return meds, total, nil
}

func (r *medicineRepository) ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]model.Medicine, error) {
	var meds []model.Medicine
	err := GetDB(ctx, r.db).
		Preload("Donor").
		Where("status = ? AND expiry_date >= ? AND expiry_date <= ?",
			model.MedicineAvailable, now, now.Add(window)).
		Order("expiry_date ASC").
		Find(&meds).Error
	if err != nil {
		return nil, err
	}
	return meds, nil
}

func (r *medicineRepository) ClaimLot(ctx context.Context, id, recipientID uuid.UUID, at time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Medicine{}).
		Where("id = ? AND status = ?", id, model.MedicineAvailable).
		Updates(map[string]interface{}{
			"status":     model.MedicineClaimed,
			"claimed_by": recipientID,
			"claimed_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *medicineRepository) ReleaseLot(ctx context.Context, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Medicine{}).
		Where("id = ? AND status = ?", id, model.MedicineClaimed).
		Updates(map[string]interface{}{
			"status":     model.MedicineAvailable,
			"claimed_by": nil,
			"claimed_at": nil,
		})
	return res.RowsAffected, res.Error
}

func (r *medicineRepository) DeductOne(ctx context.Context, id uuid.UUID) (int64, error) {
	// Both SET expressions read the pre-update quantity, so the CASE
	// sees the same value the decrement does.
	res := GetDB(ctx, r.db).Model(&model.Medicine{}).
		Where("id = ? AND status = ? AND quantity >= 1", id, model.MedicineClaimed).
		Updates(map[string]interface{}{
			"quantity": gorm.Expr("quantity - 1"),
			"status": gorm.Expr("CASE WHEN quantity - 1 <= 0 THEN ? ELSE ? END",
				model.MedicineExpired, model.MedicineClaimed),
		})
	return res.RowsAffected, res.Error
}

func (r *medicineRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Medicine{}).
		Where("status IN ? AND expiry_date < ?",
			[]string{model.MedicineAvailable, model.MedicineClaimed}, now).
		Update("status", model.MedicineExpired)
	return res.RowsAffected, res.Error
}

func (r *medicineRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Medicine{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *medicineRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Medicine{}).Count(&n).Error
	return n, err
}
