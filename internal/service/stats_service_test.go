package service

import (
	"context"
	"testing"

	"medshare-backend/internal/model"
	"medshare-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestApprovalRate(t *testing.T) {
	require.Equal(t, "0.00", approvalRate(0, 0))
	require.Equal(t, "50.00", approvalRate(1, 2))
	require.Equal(t, "33.33", approvalRate(1, 3))
	require.Equal(t, "100.00", approvalRate(5, 5))
}

func TestGetStatsCountsWorkflowState(t *testing.T) {
	env := newTestEnv(t)
	donor := env.createUser(t, model.RoleDonor)
	recipient := env.createUser(t, model.RoleRecipient)
	admin := env.createUser(t, model.RoleAdmin)
	ctx := context.Background()

	stats := NewStatsService(
		repository.NewMedicineRepository(env.db),
		repository.NewRequestRepository(env.db),
		repository.NewUserRepository(env.db),
	)

	approvedMed, err := env.workflow.Donate(ctx, donor.ID, DonateRequest{
		Name: "Aspirin", ExpiryDate: futureDate(30), Quantity: 3,
	})
	require.NoError(t, err)
	rejectedMed, err := env.workflow.Donate(ctx, donor.ID, DonateRequest{
		Name: "Naproxen", ExpiryDate: futureDate(30), Quantity: 3,
	})
	require.NoError(t, err)

	req1, err := env.workflow.RequestMedicine(ctx, recipient.ID, uuid.MustParse(approvedMed.ID))
	require.NoError(t, err)
	_, err = env.workflow.Approve(ctx, admin.ID, uuid.MustParse(req1.ID))
	require.NoError(t, err)

	req2, err := env.workflow.RequestMedicine(ctx, recipient.ID, uuid.MustParse(rejectedMed.ID))
	require.NoError(t, err)
	_, err = env.workflow.Reject(ctx, admin.ID, uuid.MustParse(req2.ID))
	require.NoError(t, err)

	resp, err := stats.GetStats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, resp.TotalUsers)
	require.EqualValues(t, 1, resp.TotalDonors)
	require.EqualValues(t, 1, resp.TotalRecipients)
	require.EqualValues(t, 2, resp.TotalDonations)
	require.EqualValues(t, 2, resp.TotalRequests)
	require.EqualValues(t, 1, resp.Approved)
	require.EqualValues(t, 1, resp.Rejected)
	require.EqualValues(t, 1, resp.AvailableMedicines) // the rejected one is back in the pool
	require.Equal(t, "50.00", resp.ApprovalRate)

	overview, err := stats.GetOverview(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, overview.Approvals)
	require.EqualValues(t, 1, overview.Rejections)
	require.Equal(t, "50.00", overview.ApprovalRate)
}
