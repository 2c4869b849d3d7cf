package repository

import (
	"context"
	"time"

	"medshare-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestRepository is the ledger of recipient claims. Terminal
// transitions (MarkApproved, MarkRejected) guard on the PENDING status
// in the WHERE clause; zero affected rows means the entry was already
// processed.
type RequestRepository interface {
	Create(ctx context.Context, req *model.MedicineRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MedicineRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.MedicineRequest, error)

	// FindActiveFor returns the PENDING or APPROVED entry for the
	// (medicine, recipient) pair, if one exists.
	FindActiveFor(ctx context.Context, medicineID, recipientID uuid.UUID) (*model.MedicineRequest, error)
	// FindPendingForMedicine returns the single PENDING entry claiming a lot.
	FindPendingForMedicine(ctx context.Context, medicineID uuid.UUID) (*model.MedicineRequest, error)

	ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]model.MedicineRequest, error)
	ListAll(ctx context.Context, offset, limit int) ([]model.MedicineRequest, int64, error)

	MarkApproved(ctx context.Context, id, adminID uuid.UUID, at time.Time) (int64, error)
	MarkRejected(ctx context.Context, id, adminID uuid.UUID, at time.Time) (int64, error)

	CountByStatus(ctx context.Context, status string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.MedicineRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MedicineRequest, error) {
	var req model.MedicineRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.MedicineRequest, error) {
	var req model.MedicineRequest
	err := GetDB(ctx, r.db).
		Preload("Medicine").
		Preload("Recipient").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindActiveFor(ctx context.Context, medicineID, recipientID uuid.UUID) (*model.MedicineRequest, error) {
	var req model.MedicineRequest
	err := GetDB(ctx, r.db).
		Where("medicine_id = ? AND recipient_id = ? AND status IN ?",
			medicineID, recipientID, []string{model.RequestPending, model.RequestApproved}).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindPendingForMedicine(ctx context.Context, medicineID uuid.UUID) (*model.MedicineRequest, error) {
	var req model.MedicineRequest
	err := GetDB(ctx, r.db).
		Where("medicine_id = ? AND status = ?", medicineID, model.RequestPending).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]model.MedicineRequest, error) {
	var reqs []model.MedicineRequest
	err := GetDB(ctx, r.db).
		Preload("Medicine").
		Where("recipient_id = ?", recipientID).
		Order("requested_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requestRepository) ListAll(ctx context.Context, offset, limit int) ([]model.MedicineRequest, int64, error) {
	var total int64
	if err := GetDB(ctx, r.db).Model(&model.MedicineRequest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reqs []model.MedicineRequest
	err := GetDB(ctx, r.db).
		Preload("Medicine").
		Preload("Recipient").
		Order("requested_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *requestRepository) MarkApproved(ctx context.Context, id, adminID uuid.UUID, at time.Time) (int64, error) {
	return r.markProcessed(ctx, id, adminID, at, model.RequestApproved)
}

func (r *requestRepository) MarkRejected(ctx context.Context, id, adminID uuid.UUID, at time.Time) (int64, error) {
	return r.markProcessed(ctx, id, adminID, at, model.RequestRejected)
}

func (r *requestRepository) markProcessed(ctx context.Context, id, adminID uuid.UUID, at time.Time, status string) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.MedicineRequest{}).
		Where("id = ? AND status = ?", id, model.RequestPending).
		Updates(map[string]interface{}{
			"status":       status,
			"processed_at": at,
			"processed_by": adminID,
		})
	return res.RowsAffected, res.Error
}

func (r *requestRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.MedicineRequest{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *requestRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.MedicineRequest{}).Count(&n).Error
	return n, err
}
