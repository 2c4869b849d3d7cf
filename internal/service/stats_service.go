package service

import (
	"context"
	"fmt"

	"medshare-backend/internal/model"
	"medshare-backend/internal/repository"

	"github.com/shopspring/decimal"
)

// StatsResponse is the admin dashboard summary
type StatsResponse struct {
	TotalUsers         int64  `json:"totalUsers"`
	TotalDonors        int64  `json:"totalDonors"`
	TotalRecipients    int64  `json:"totalRecipients"`
	TotalDonations     int64  `json:"totalDonations"`
	TotalRequests      int64  `json:"totalRequests"`
	Approved           int64  `json:"approved"`
	Rejected           int64  `json:"rejected"`
	AvailableMedicines int64  `json:"availableMedicines"`
	ExpiredMedicines   int64  `json:"expiredMedicines"`
	ApprovalRate       string `json:"approvalRate"`
}

// OverviewResponse is the compact analytics card
type OverviewResponse struct {
	TotalDonations int64  `json:"totalDonations"`
	TotalRequests  int64  `json:"totalRequests"`
	Approvals      int64  `json:"approvals"`
	Rejections     int64  `json:"rejections"`
	ApprovalRate   string `json:"approvalRate"`
}

// StatsService produces read-only aggregates over the same two
// collections the workflow engine owns. It never writes.
type StatsService interface {
	GetStats(ctx context.Context) (StatsResponse, error)
	GetOverview(ctx context.Context) (OverviewResponse, error)
}

type statsService struct {
	medicines repository.MedicineRepository
	requests  repository.RequestRepository
	users     repository.UserRepository
}

func NewStatsService(
	medicines repository.MedicineRepository,
	requests repository.RequestRepository,
	users repository.UserRepository,
) StatsService {
	return &statsService{medicines: medicines, requests: requests, users: users}
}

func (s *statsService) GetStats(ctx context.Context) (StatsResponse, error) {
	var (
		resp StatsResponse
		err  error
	)

	if resp.TotalUsers, err = s.users.Count(ctx); err != nil {
		return resp, fmt.Errorf("failed to count users: %w", err)
	}
	if resp.TotalDonors, err = s.users.CountByRole(ctx, model.RoleDonor); err != nil {
		return resp, fmt.Errorf("failed to count donors: %w", err)
	}
	if resp.TotalRecipients, err = s.users.CountByRole(ctx, model.RoleRecipient); err != nil {
		return resp, fmt.Errorf("failed to count recipients: %w", err)
	}
	if resp.TotalDonations, err = s.medicines.Count(ctx); err != nil {
		return resp, fmt.Errorf("failed to count donations: %w", err)
	}
	if resp.TotalRequests, err = s.requests.Count(ctx); err != nil {
		return resp, fmt.Errorf("failed to count requests: %w", err)
	}
	if resp.Approved, err = s.requests.CountByStatus(ctx, model.RequestApproved); err != nil {
		return resp, fmt.Errorf("failed to count approved requests: %w", err)
	}
	if resp.Rejected, err = s.requests.CountByStatus(ctx, model.RequestRejected); err != nil {
		return resp, fmt.Errorf("failed to count rejected requests: %w", err)
	}
	if resp.AvailableMedicines, err = s.medicines.CountByStatus(ctx, model.MedicineAvailable); err != nil {
		return resp, fmt.Errorf("failed to count available medicines: %w", err)
	}
	if resp.ExpiredMedicines, err = s.medicines.CountByStatus(ctx, model.MedicineExpired); err != nil {
		return resp, fmt.Errorf("failed to count expired medicines: %w", err)
	}

	resp.ApprovalRate = approvalRate(resp.Approved, resp.TotalRequests)
	return resp, nil
}

func (s *statsService) GetOverview(ctx context.Context) (OverviewResponse, error) {
	var (
		resp OverviewResponse
		err  error
	)

	if resp.TotalDonations, err = s.medicines.Count(ctx); err != nil {
		return resp, fmt.Errorf("failed to count donations: %w", err)
	}
	if resp.TotalRequests, err = s.requests.Count(ctx); err != nil {
		return resp, fmt.Errorf("failed to count requests: %w", err)
	}
	if resp.Approvals, err = s.requests.CountByStatus(ctx, model.RequestApproved); err != nil {
		return resp, fmt.Errorf("failed to count approvals: %w", err)
	}
	if resp.Rejections, err = s.requests.CountByStatus(ctx, model.RequestRejected); err != nil {
		return resp, fmt.Errorf("failed to count rejections: %w", err)
	}

	resp.ApprovalRate = approvalRate(resp.Approvals, resp.TotalRequests)
	return resp, nil
}

// approvalRate renders approved/total as a percentage with stable
// two-decimal rounding.
func approvalRate(approved, total int64) string {
	if total == 0 {
		return "0.00"
	}
	rate := decimal.NewFromInt(approved).
		Div(decimal.NewFromInt(total)).
		Mul(decimal.NewFromInt(100))
	return rate.StringFixed(2)
}
