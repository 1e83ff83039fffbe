package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository/memory"
)

func TestSummary(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, _, err := store.Clinics().FindOrCreate(ctx, &model.Clinic{Name: "A", NameKey: "a"})
	require.NoError(t, err)
	for _, status := range []model.DoctorStatus{model.DoctorStatusPending, model.DoctorStatusPending, model.DoctorStatusActive} {
		require.NoError(t, store.Doctors().Create(ctx, &model.Doctor{FirstName: "D", Status: status}))
	}
	require.NoError(t, store.Persons().Create(ctx, &model.Person{FirstName: "S", Email: "s@x.com", Role: model.PersonRoleStaff}))

	sum, err := NewService(store.Clinics(), store.Doctors(), store.Persons()).Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.DashboardSummary{Clinics: 1, Doctors: 3, PendingDoctors: 2, Staff: 1}, sum)
}
