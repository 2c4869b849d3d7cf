package scheduler

import (
	"context"
	"testing"
	"time"

	"medshare-backend/internal/database"
	"medshare-backend/internal/model"
	"medshare-backend/internal/repository"
	"medshare-backend/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newWorkflow(t *testing.T) (service.WorkflowService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	workflow := service.NewWorkflowService(
		repository.NewMedicineRepository(db),
		repository.NewRequestRepository(db),
		repository.NewUserRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		nil,
		7*24*time.Hour,
		zerolog.Nop(),
	)
	return workflow, db
}

func TestRunOnceSweeps(t *testing.T) {
	workflow, db := newWorkflow(t)

	donor := &model.User{Name: "Donor", Email: "donor@example.com", PasswordHash: "x", Role: model.RoleDonor, IsActive: true}
	require.NoError(t, db.Create(donor).Error)
	require.NoError(t, db.Create(&model.Medicine{
		Name:       "Stale",
		ExpiryDate: time.Now().AddDate(0, 0, -1),
		Quantity:   1,
		DonorID:    donor.ID,
		Status:     model.MedicineAvailable,
	}).Error)

	s := New(workflow, "0 9 * * *", zerolog.Nop())
	result := s.RunOnce(context.Background())
	require.EqualValues(t, 1, result.Expired)

	var med model.Medicine
	require.NoError(t, db.First(&med, "name = ?", "Stale").Error)
	require.Equal(t, model.MedicineExpired, med.Status)
}

func TestStartRejectsBadSpec(t *testing.T) {
	workflow, _ := newWorkflow(t)

	s := New(workflow, "not a cron spec", zerolog.Nop())
	require.Error(t, s.Start())

	s = New(workflow, "0 9 * * *", zerolog.Nop())
	require.NoError(t, s.Start())
	s.Stop()
}
