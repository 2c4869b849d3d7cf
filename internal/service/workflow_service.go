package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"medshare-backend/internal/model"
	"medshare-backend/internal/notify"
	"medshare-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// --- DTOs ---

type DonateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ExpiryDate  string `json:"expiryDate" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
}

type UpdateMedicineRequest struct {
	Quantity   *int   `json:"quantity"`
	ExpiryDate string `json:"expiryDate"`
	Status     string `json:"status"`
}

type ListFilter struct {
	Name         string
	Category     string
	ExpiryBefore string
	ExpiryAfter  string
}

type PartyResponse struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type MedicineResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category,omitempty"`
	Description string         `json:"description,omitempty"`
	ExpiryDate  time.Time      `json:"expiry_date"`
	Quantity    int            `json:"quantity"`
	Status      string         `json:"status"`
	Donor       *PartyResponse `json:"donor,omitempty"`
	ClaimedBy   *PartyResponse `json:"claimed_by,omitempty"`
	ClaimedAt   *time.Time     `json:"claimed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type RequestResponse struct {
	ID           string     `json:"id"`
	MedicineID   string     `json:"medicine_id"`
	MedicineName string     `json:"medicine_name,omitempty"`
	RecipientID  string     `json:"recipient_id"`
	Recipient    string     `json:"recipient_name,omitempty"`
	Status       string     `json:"status"`
	RequestedAt  time.Time  `json:"requested_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

type SweepResult struct {
	Expired   int64 `json:"expired"`
	Reminders int   `json:"reminders"`
}

type AuditLogResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	UserName   string    `json:"user_name,omitempty"`
	Action     string    `json:"action"`
	EntityID   string    `json:"entity_id,omitempty"`
	EntityName string    `json:"entity_name,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// --- Interface ---

// WorkflowService is the single owner of medicine-lot and request
// state transitions. Inventory and ledger rows are never mutated
// outside this engine; every cross-entity write runs in one
// transaction, and every status change is a conditional update so
// concurrent callers resolve to exactly one winner.
type WorkflowService interface {
	Donate(ctx context.Context, donorID uuid.UUID, req DonateRequest) (MedicineResponse, error)
	ListAvailable(ctx context.Context, filter ListFilter) ([]MedicineResponse, error)
	ListDonorMedicines(ctx context.Context, donorID uuid.UUID) ([]MedicineResponse, error)
	ListRecipientClaims(ctx context.Context, recipientID uuid.UUID) ([]MedicineResponse, error)
	ListRecipientRequests(ctx context.Context, recipientID uuid.UUID) ([]RequestResponse, error)
	ListAllRequests(ctx context.Context, offset, limit int) ([]RequestResponse, int64, error)
	ListAllMedicines(ctx context.Context, offset, limit int) ([]MedicineResponse, int64, error)
	ListAuditLogs(ctx context.Context, offset, limit int) ([]AuditLogResponse, int64, error)
	UpdateMedicine(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID, req UpdateMedicineRequest) (MedicineResponse, error)
	DeleteMedicine(ctx context.Context, adminID, id uuid.UUID) error

	RequestMedicine(ctx context.Context, recipientID, medicineID uuid.UUID) (RequestResponse, error)
	Approve(ctx context.Context, adminID, requestID uuid.UUID) (RequestResponse, error)
	Reject(ctx context.Context, adminID, requestID uuid.UUID) (RequestResponse, error)
	// ApproveLot and RejectLot serve the lot-keyed admin endpoints by
	// resolving the lot's single pending ledger entry first, so there
	// is only one write path for processing a claim.
	ApproveLot(ctx context.Context, adminID, medicineID uuid.UUID) (RequestResponse, error)
	RejectLot(ctx context.Context, adminID, medicineID uuid.UUID) (RequestResponse, error)

	Sweep(ctx context.Context) (SweepResult, error)
}

type workflowService struct {
	medicines      repository.MedicineRepository
	requests       repository.RequestRepository
	users          repository.UserRepository
	audits         repository.AuditRepository
	txManager      repository.TransactionManager
	notifier       notify.Notifier
	reminderWindow time.Duration
	log            zerolog.Logger
}

func NewWorkflowService(
	medicines repository.MedicineRepository,
	requests repository.RequestRepository,
	users repository.UserRepository,
	audits repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notify.Notifier,
	reminderWindow time.Duration,
	log zerolog.Logger,
) WorkflowService {
	if reminderWindow <= 0 {
		reminderWindow = 7 * 24 * time.Hour
	}
	return &workflowService{
		medicines:      medicines,
		requests:       requests,
		users:          users,
		audits:         audits,
		txManager:      txManager,
		notifier:       notifier,
		reminderWindow: reminderWindow,
		log:            log,
	}
}

// --- Donation ---

func (s *workflowService) Donate(ctx context.Context, donorID uuid.UUID, req DonateRequest) (MedicineResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return MedicineResponse{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Quantity < 1 {
		return MedicineResponse{}, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		return MedicineResponse{}, fmt.Errorf("%w: invalid expiry date %q", ErrValidation, req.ExpiryDate)
	}

	var med *model.Medicine
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, findErr := s.medicines.FindMergeCandidate(txCtx, donorID, name, expiry)
		switch {
		case findErr == nil:
			// Repeat donation: top up the existing lot. The expiry only
			// ever moves later, never earlier.
			existing.Quantity += req.Quantity
			if expiry.After(existing.ExpiryDate) {
				existing.ExpiryDate = expiry
			}
			if saveErr := s.medicines.Save(txCtx, existing); saveErr != nil {
				return fmt.Errorf("failed to merge donation: %w", saveErr)
			}
			med = existing
			return s.auditLog(txCtx, &donorID, model.ActionMergeDonation, med.ID.String(), med.Name, map[string]interface{}{
				"added_quantity": req.Quantity,
				"new_quantity":   med.Quantity,
				"expiry_date":    med.ExpiryDate,
			})
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			med = &model.Medicine{
				Name:        name,
				Category:    strings.TrimSpace(req.Category),
				Description: strings.TrimSpace(req.Description),
				ExpiryDate:  expiry,
				Quantity:    req.Quantity,
				DonorID:     donorID,
				Status:      model.MedicineAvailable,
			}
			if createErr := s.medicines.Create(txCtx, med); createErr != nil {
				return fmt.Errorf("failed to create medicine: %w", createErr)
			}
			return s.auditLog(txCtx, &donorID, model.ActionDonateMedicine, med.ID.String(), med.Name, map[string]interface{}{
				"quantity":    med.Quantity,
				"expiry_date": med.ExpiryDate,
				"category":    med.Category,
			})
		default:
			return fmt.Errorf("failed to look up merge candidate: %w", findErr)
		}
	})
	if err != nil {
		return MedicineResponse{}, err
	}

	// State is durable; tell the donor and the admin about it.
	s.emit(ctx, notify.Event{
		Type:         notify.EventDonationRecorded,
		MedicineID:   med.ID,
		MedicineName: med.Name,
		Quantity:     med.Quantity,
		ExpiryDate:   med.ExpiryDate,
		Donor:        s.lookupParty(ctx, &donorID),
		OccurredAt:   time.Now(),
	})

	return toMedicineResponse(*med), nil
}

// --- Reads ---

func (s *workflowService) ListAvailable(ctx context.Context, filter ListFilter) ([]MedicineResponse, error) {
	now := time.Now()

	// Opportunistic expiry pass so stale lots never reach the caller.
	// Deliberate consistency measure, not a side effect of the read.
	if n, err := s.medicines.ExpireOverdue(ctx, now); err != nil {
		s.log.Warn().Err(err).Msg("opportunistic expiry pass failed")
	} else if n > 0 {
		s.log.Info().Int64("expired", n).Msg("auto-expired medicines")
	}

	repoFilter := repository.MedicineFilter{
		Name:     filter.Name,
		Category: filter.Category,
	}
	if filter.ExpiryBefore != "" {
		t, err := parseDate(filter.ExpiryBefore)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid expiryBefore date", ErrValidation)
		}
		repoFilter.ExpiryBefore = t
	}
	if filter.ExpiryAfter != "" {
		t, err := parseDate(filter.ExpiryAfter)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid expiryAfter date", ErrValidation)
		}
		repoFilter.ExpiryAfter = t
	}

	meds, err := s.medicines.ListAvailable(ctx, now, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	return toMedicineResponses(meds), nil
}

func (s *workflowService) ListDonorMedicines(ctx context.Context, donorID uuid.UUID) ([]MedicineResponse, error) {
	meds, err := s.medicines.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list donor medicines: %w", err)
	}
	return toMedicineResponses(meds), nil
}

func (s *workflowService) ListRecipientClaims(ctx context.Context, recipientID uuid.UUID) ([]MedicineResponse, error) {
	meds, err := s.medicines.ListClaimedBy(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claimed medicines: %w", err)
	}
	return toMedicineResponses(meds), nil
}

func (s *workflowService) ListRecipientRequests(ctx context.Context, recipientID uuid.UUID) ([]RequestResponse, error) {
	reqs, err := s.requests.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	out := make([]RequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestResponse(r))
	}
	return out, nil
}

func (s *workflowService) ListAllRequests(ctx context.Context, offset, limit int) ([]RequestResponse, int64, error) {
	reqs, total, err := s.requests.ListAll(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	out := make([]RequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestResponse(r))
	}
	return out, total, nil
}

func (s *workflowService) ListAllMedicines(ctx context.Context, offset, limit int) ([]MedicineResponse, int64, error) {
	meds, total, err := s.medicines.ListAll(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list medicines: %w", err)
	}
	return toMedicineResponses(meds), total, nil
}

func (s *workflowService) ListAuditLogs(ctx context.Context, offset, limit int) ([]AuditLogResponse, int64, error) {
	entries, total, err := s.audits.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	out := make([]AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		resp := AuditLogResponse{
			ID:         e.ID.String(),
			Action:     e.Action,
			EntityID:   e.EntityID,
			EntityName: e.EntityName,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt,
		}
		if e.UserID != nil {
			resp.UserID = e.UserID.String()
		}
		if e.User != nil {
			resp.UserName = e.User.Name
		}
		out = append(out, resp)
	}
	return out, total, nil
}

// --- Donor/admin lot maintenance ---

func (s *workflowService) UpdateMedicine(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID, req UpdateMedicineRequest) (MedicineResponse, error) {
	med, err := s.medicines.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MedicineResponse{}, fmt.Errorf("%w: medicine %s", ErrNotFound, id)
		}
		return MedicineResponse{}, fmt.Errorf("failed to load medicine: %w", err)
	}

	if actorRole != model.RoleAdmin && med.DonorID != actorID {
		return MedicineResponse{}, fmt.Errorf("%w: you can only update your own medicines", ErrForbidden)
	}

	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return MedicineResponse{}, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
		}
		med.Quantity = *req.Quantity
	}
	if req.ExpiryDate != "" {
		expiry, parseErr := parseDate(req.ExpiryDate)
		if parseErr != nil {
			return MedicineResponse{}, fmt.Errorf("%w: invalid expiry date format", ErrValidation)
		}
		med.ExpiryDate = expiry
	}
	if req.Status != "" {
		switch req.Status {
		case model.MedicineAvailable, model.MedicineClaimed, model.MedicineExpired:
			med.Status = req.Status
		default:
			return MedicineResponse{}, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
		}
	}

	// Zero stock and past expiry both force the terminal state.
	now := time.Now()
	if med.Quantity == 0 || med.ExpiryDate.Before(now) {
		med.Status = model.MedicineExpired
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.medicines.Save(txCtx, med); saveErr != nil {
			return fmt.Errorf("failed to update medicine: %w", saveErr)
		}
		return s.auditLog(txCtx, &actorID, model.ActionUpdateMedicine, med.ID.String(), med.Name, map[string]interface{}{
			"quantity":    med.Quantity,
			"expiry_date": med.ExpiryDate,
			"status":      med.Status,
		})
	})
	if err != nil {
		return MedicineResponse{}, err
	}

	return toMedicineResponse(*med), nil
}

func (s *workflowService) DeleteMedicine(ctx context.Context, adminID, id uuid.UUID) error {
	med, err := s.medicines.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: medicine %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to load medicine: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.medicines.Delete(txCtx, id); delErr != nil {
			return fmt.Errorf("failed to delete medicine: %w", delErr)
		}
		return s.auditLog(txCtx, &adminID, model.ActionDeleteMedicine, med.ID.String(), med.Name, map[string]interface{}{
			"deleted": true,
		})
	})
}

// --- Claim workflow ---

func (s *workflowService) RequestMedicine(ctx context.Context, recipientID, medicineID uuid.UUID) (RequestResponse, error) {
	med, err := s.medicines.FindByIDWithDonor(ctx, medicineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, fmt.Errorf("%w: medicine %s", ErrNotFound, medicineID)
		}
		return RequestResponse{}, fmt.Errorf("failed to load medicine: %w", err)
	}

	if med.DonorID == recipientID {
		return RequestResponse{}, ErrSelfRequest
	}
	if med.Status != model.MedicineAvailable {
		return RequestResponse{}, ErrNotAvailable
	}
	if _, activeErr := s.requests.FindActiveFor(ctx, medicineID, recipientID); activeErr == nil {
		return RequestResponse{}, ErrDuplicateRequest
	} else if !errors.Is(activeErr, gorm.ErrRecordNotFound) {
		return RequestResponse{}, fmt.Errorf("failed to check existing requests: %w", activeErr)
	}

	now := time.Now()
	request := &model.MedicineRequest{
		MedicineID:  medicineID,
		RecipientID: recipientID,
		Status:      model.RequestPending,
		RequestedAt: now,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// The claim is a compare-and-swap on AVAILABLE: of two racing
		// recipients exactly one flips the row, the other sees zero
		// affected rows and gets a conflict back.
		rows, claimErr := s.medicines.ClaimLot(txCtx, medicineID, recipientID, now)
		if claimErr != nil {
			return fmt.Errorf("failed to claim medicine: %w", claimErr)
		}
		if rows == 0 {
			return ErrNotAvailable
		}
		if createErr := s.requests.Create(txCtx, request); createErr != nil {
			return fmt.Errorf("failed to create request: %w", createErr)
		}
		return s.auditLog(txCtx, &recipientID, model.ActionCreateRequest, request.ID.String(), med.Name, map[string]interface{}{
			"medicine_id": medicineID.String(),
		})
	})
	if err != nil {
		return RequestResponse{}, err
	}

	s.emit(ctx, notify.Event{
		Type:         notify.EventRequestCreated,
		MedicineID:   med.ID,
		MedicineName: med.Name,
		Quantity:     med.Quantity,
		ExpiryDate:   med.ExpiryDate,
		Donor:        toParty(med.Donor),
		Recipient:    s.lookupParty(ctx, &recipientID),
		OccurredAt:   now,
	})

	request.Medicine = med
	return toRequestResponse(*request), nil
}

func (s *workflowService) Approve(ctx context.Context, adminID, requestID uuid.UUID) (RequestResponse, error) {
	request, err := s.requests.FindByIDWithRelations(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, fmt.Errorf("%w: request %s", ErrNotFound, requestID)
		}
		return RequestResponse{}, fmt.Errorf("failed to load request: %w", err)
	}
	if request.Status != model.RequestPending {
		return RequestResponse{}, ErrAlreadyProcessed
	}

	now := time.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, markErr := s.requests.MarkApproved(txCtx, requestID, adminID, now)
		if markErr != nil {
			return fmt.Errorf("failed to mark request approved: %w", markErr)
		}
		if rows == 0 {
			return ErrAlreadyProcessed
		}

		// Fixed deduction of one unit per approved request. If the
		// sweep expired the lot in the meantime (or stock is gone) the
		// guard fails and the whole approval rolls back.
		rows, deductErr := s.medicines.DeductOne(txCtx, request.MedicineID)
		if deductErr != nil {
			return fmt.Errorf("failed to deduct stock: %w", deductErr)
		}
		if rows == 0 {
			return fmt.Errorf("%w: medicine out of stock or no longer claimed", ErrNotAvailable)
		}

		return s.auditLog(txCtx, &adminID, model.ActionApproveRequest, requestID.String(), medicineName(request), map[string]interface{}{
			"medicine_id":  request.MedicineID.String(),
			"recipient_id": request.RecipientID.String(),
		})
	})
	if err != nil {
		return RequestResponse{}, err
	}

	med, _ := s.medicines.FindByIDWithDonor(ctx, request.MedicineID)
	evt := notify.Event{
		Type:         notify.EventRequestApproved,
		MedicineID:   request.MedicineID,
		MedicineName: medicineName(request),
		Recipient:    toParty(request.Recipient),
		OccurredAt:   now,
	}
	if med != nil {
		evt.Quantity = med.Quantity
		evt.ExpiryDate = med.ExpiryDate
		evt.Donor = toParty(med.Donor)
	}
	s.emit(ctx, evt)

	request.Status = model.RequestApproved
	request.ProcessedAt = &now
	request.ProcessedBy = &adminID
	return toRequestResponse(*request), nil
}

func (s *workflowService) Reject(ctx context.Context, adminID, requestID uuid.UUID) (RequestResponse, error) {
	request, err := s.requests.FindByIDWithRelations(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, fmt.Errorf("%w: request %s", ErrNotFound, requestID)
		}
		return RequestResponse{}, fmt.Errorf("failed to load request: %w", err)
	}
	if request.Status != model.RequestPending {
		return RequestResponse{}, ErrAlreadyProcessed
	}

	now := time.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, markErr := s.requests.MarkRejected(txCtx, requestID, adminID, now)
		if markErr != nil {
			return fmt.Errorf("failed to mark request rejected: %w", markErr)
		}
		if rows == 0 {
			return ErrAlreadyProcessed
		}

		// Quantity untouched: rejection returns the lot to the pool as
		// it was. If the sweep expired the lot meanwhile the release
		// guard simply misses and the lot stays EXPIRED.
		if _, releaseErr := s.medicines.ReleaseLot(txCtx, request.MedicineID); releaseErr != nil {
			return fmt.Errorf("failed to release medicine: %w", releaseErr)
		}

		return s.auditLog(txCtx, &adminID, model.ActionRejectRequest, requestID.String(), medicineName(request), map[string]interface{}{
			"medicine_id":  request.MedicineID.String(),
			"recipient_id": request.RecipientID.String(),
		})
	})
	if err != nil {
		return RequestResponse{}, err
	}

	med, _ := s.medicines.FindByIDWithDonor(ctx, request.MedicineID)
	evt := notify.Event{
		Type:         notify.EventRequestRejected,
		MedicineID:   request.MedicineID,
		MedicineName: medicineName(request),
		Recipient:    toParty(request.Recipient),
		OccurredAt:   now,
	}
	if med != nil {
		evt.Quantity = med.Quantity
		evt.ExpiryDate = med.ExpiryDate
		evt.Donor = toParty(med.Donor)
	}
	s.emit(ctx, evt)

	request.Status = model.RequestRejected
	request.ProcessedAt = &now
	request.ProcessedBy = &adminID
	return toRequestResponse(*request), nil
}

func (s *workflowService) ApproveLot(ctx context.Context, adminID, medicineID uuid.UUID) (RequestResponse, error) {
	request, err := s.pendingRequestForLot(ctx, medicineID)
	if err != nil {
		return RequestResponse{}, err
	}
	return s.Approve(ctx, adminID, request.ID)
}

func (s *workflowService) RejectLot(ctx context.Context, adminID, medicineID uuid.UUID) (RequestResponse, error) {
	request, err := s.pendingRequestForLot(ctx, medicineID)
	if err != nil {
		return RequestResponse{}, err
	}
	return s.Reject(ctx, adminID, request.ID)
}

func (s *workflowService) pendingRequestForLot(ctx context.Context, medicineID uuid.UUID) (*model.MedicineRequest, error) {
	if _, err := s.medicines.FindByID(ctx, medicineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: medicine %s", ErrNotFound, medicineID)
		}
		return nil, fmt.Errorf("failed to load medicine: %w", err)
	}
	request, err := s.requests.FindPendingForMedicine(ctx, medicineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no pending request for this medicine", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load pending request: %w", err)
	}
	return request, nil
}

// --- Expiry sweep ---

// Sweep is idempotent: the expiry pass is a single conditional bulk
// update, and reminders are recomputed from current state on every
// run. Daily duplicates of near-expiry reminders are accepted.
func (s *workflowService) Sweep(ctx context.Context) (SweepResult, error) {
	now := time.Now()
	var result SweepResult

	expired, err := s.medicines.ExpireOverdue(ctx, now)
	if err != nil {
		return result, fmt.Errorf("failed to expire overdue medicines: %w", err)
	}
	result.Expired = expired
	if expired > 0 {
		if auditErr := s.auditLog(ctx, nil, model.ActionExpireSweep, "", "", map[string]interface{}{
			"expired": expired,
		}); auditErr != nil {
			s.log.Warn().Err(auditErr).Msg("failed to audit expiry sweep")
		}
	}

	expiring, err := s.medicines.ListExpiringWithin(ctx, now, s.reminderWindow)
	if err != nil {
		return result, fmt.Errorf("failed to scan for expiring medicines: %w", err)
	}
	for _, med := range expiring {
		days := int(med.ExpiryDate.Sub(now).Hours()/24) + 1
		s.emit(ctx, notify.Event{
			Type:         notify.EventExpiringSoon,
			MedicineID:   med.ID,
			MedicineName: med.Name,
			Quantity:     med.Quantity,
			ExpiryDate:   med.ExpiryDate,
			DaysLeft:     days,
			Donor:        toParty(med.Donor),
			OccurredAt:   now,
		})
		result.Reminders++
	}

	s.log.Info().
		Int64("expired", result.Expired).
		Int("reminders", result.Reminders).
		Msg("expiry sweep completed")
	return result, nil
}

// --- Helpers ---

func (s *workflowService) auditLog(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.audits.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// emit hands the event to the notifier. Delivery is best-effort and
// fully decoupled from the caller's success.
func (s *workflowService) emit(_ context.Context, evt notify.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(evt)
}

func (s *workflowService) lookupParty(ctx context.Context, id *uuid.UUID) *notify.Party {
	if id == nil {
		return nil
	}
	user, err := s.users.GetByID(ctx, *id)
	if err != nil {
		return nil
	}
	return &notify.Party{Name: user.Name, Email: user.Email}
}

func toParty(u *model.User) *notify.Party {
	if u == nil {
		return nil
	}
	return &notify.Party{Name: u.Name, Email: u.Email}
}

func medicineName(r *model.MedicineRequest) string {
	if r.Medicine != nil {
		return r.Medicine.Name
	}
	return ""
}

func toMedicineResponse(m model.Medicine) MedicineResponse {
	resp := MedicineResponse{
		ID:          m.ID.String(),
		Name:        m.Name,
		Category:    m.Category,
		Description: m.Description,
		ExpiryDate:  m.ExpiryDate,
		Quantity:    m.Quantity,
		Status:      m.Status,
		ClaimedAt:   m.ClaimedAt,
		CreatedAt:   m.CreatedAt,
	}
	if m.Donor != nil {
		resp.Donor = &PartyResponse{ID: m.Donor.ID.String(), Name: m.Donor.Name, Email: m.Donor.Email}
	}
	if m.Claimer != nil {
		resp.ClaimedBy = &PartyResponse{ID: m.Claimer.ID.String(), Name: m.Claimer.Name, Email: m.Claimer.Email}
	} else if m.ClaimedBy != nil {
		resp.ClaimedBy = &PartyResponse{ID: m.ClaimedBy.String(), Name: "Unknown", Email: "N/A"}
	}
	return resp
}

func toMedicineResponses(meds []model.Medicine) []MedicineResponse {
	out := make([]MedicineResponse, 0, len(meds))
	for _, m := range meds {
		out = append(out, toMedicineResponse(m))
	}
	return out
}

func toRequestResponse(r model.MedicineRequest) RequestResponse {
	resp := RequestResponse{
		ID:          r.ID.String(),
		MedicineID:  r.MedicineID.String(),
		RecipientID: r.RecipientID.String(),
		Status:      r.Status,
		RequestedAt: r.RequestedAt,
		ProcessedAt: r.ProcessedAt,
	}
	if r.Medicine != nil {
		resp.MedicineName = r.Medicine.Name
	}
	if r.Recipient != nil {
		resp.Recipient = r.Recipient.Name
	}
	return resp
}

// parseDate accepts the two formats clients actually send: a bare date
// or a full RFC3339 timestamp.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
