package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
)

func TestActivateInvitedIsGuarded(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	persons := store.Persons()

	p := &model.Person{FirstName: "Ana", Email: "ana@x.com", Role: model.PersonRoleStaff, Status: model.PersonStatusPending}
	require.NoError(t, persons.Create(ctx, p))
	require.NoError(t, persons.SetInvite(ctx, p.ID, "fp-1", time.Now().Add(time.Hour)))

	assert.ErrorIs(t, persons.ActivateInvited(ctx, p.ID, "fp-other"), repository.ErrConflict)

	evt, err := model.NewOutboxEvent(model.EventPersonActivated, model.PersonActivatedPayload{PersonID: p.ID})
	require.NoError(t, err)
	require.NoError(t, persons.ActivateInvited(ctx, p.ID, "fp-1", evt))

	got, err := persons.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PersonStatusActive, got.Status)
	assert.Nil(t, got.Invite)

	assert.ErrorIs(t, persons.ActivateInvited(ctx, p.ID, "fp-1"), repository.ErrConflict)
	assert.Len(t, store.Events(), 1)
}

func TestPersonUpdateKeepsInvite(t *testing.T) {
	ctx := context.Background()
	persons := NewStore().Persons()

	p := &model.Person{FirstName: "Ana", Email: "ana@x.com"}
	require.NoError(t, persons.Create(ctx, p))
	require.NoError(t, persons.SetInvite(ctx, p.ID, "fp", time.Now().Add(time.Hour)))

	p.Phone = "0917"
	p.Invite = nil
	require.NoError(t, persons.Update(ctx, p))

	got, err := persons.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Invite)
	assert.Equal(t, "0917", got.Phone)
}

func TestClinicFindOrCreateConverges(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	clinics := store.Clinics()

	evt, _ := model.NewOutboxEvent(model.EventClinicCreated, model.ClinicCreatedPayload{Name: "A"})
	first, created, err := clinics.FindOrCreate(ctx, &model.Clinic{Name: "St. José", NameKey: "st jose"}, evt)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := clinics.FindOrCreate(ctx, &model.Clinic{Name: "ST JOSE", NameKey: "st jose"}, evt)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.Events(), 1)

	n, err := clinics.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClinicUpdateRejectsTakenKey(t *testing.T) {
	ctx := context.Background()
	clinics := NewStore().Clinics()

	a, _, _ := clinics.FindOrCreate(ctx, &model.Clinic{Name: "A", NameKey: "a"})
	_, _, _ = clinics.FindOrCreate(ctx, &model.Clinic{Name: "B", NameKey: "b"})

	a.NameKey = "b"
	assert.ErrorIs(t, clinics.Update(ctx, a), repository.ErrDuplicate)
}

func TestListByKeyPrefix(t *testing.T) {
	ctx := context.Background()
	clinics := NewStore().Clinics()
	for _, key := range []string{"naga med", "naga doctors", "bicol med"} {
		_, _, err := clinics.FindOrCreate(ctx, &model.Clinic{Name: key, NameKey: key})
		require.NoError(t, err)
	}

	got, err := clinics.ListByKeyPrefix(ctx, "naga", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "naga doctors", got[0].NameKey)
}

func TestCredentialEmailUnique(t *testing.T) {
	ctx := context.Background()
	creds := NewStore().Credentials()

	require.NoError(t, creds.Create(ctx, &model.Credential{Email: "a@x.com", PasswordHash: "h"}))
	assert.ErrorIs(t, creds.Create(ctx, &model.Credential{Email: "a@x.com", PasswordHash: "h"}), repository.ErrDuplicate)

	_, err := creds.GetByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOutboxClaimOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	outbox := store.Outbox()

	for i := 0; i < 3; i++ {
		evt, err := model.NewOutboxEvent(model.EventPersonCreated, model.PersonCreatedPayload{PersonID: uuid.New()})
		require.NoError(t, err)
		require.NoError(t, outbox.Create(ctx, evt))
	}

	batch, err := outbox.GetPendingEventsWithLock(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	rest, err := outbox.GetPendingEventsWithLock(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	require.NoError(t, outbox.UpdateStatus(ctx, batch[0].ID, model.OutboxStatusProcessed, nil))
	deleted, err := outbox.DeleteProcessedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestDoctorListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	clinic, _, _ := store.Clinics().FindOrCreate(ctx, &model.Clinic{Name: "Naga Med", NameKey: "naga med", City: "Naga City"})

	doctors := store.Doctors()
	require.NoError(t, doctors.Create(ctx, &model.Doctor{
		FirstName: "Maria", LastName: "Santos", Status: model.DoctorStatusActive,
		Specializations: []string{"Pediatrics"},
		Clinics:         model.DoctorClinics{{ClinicID: clinic.ID, Name: clinic.Name}},
	}))
	require.NoError(t, doctors.Create(ctx, &model.Doctor{
		FirstName: "Jose", LastName: "Reyes", Status: model.DoctorStatusPending,
	}))

	got, err := doctors.List(ctx, &model.DoctorFilter{BaseFilter: model.BaseFilter{City: "Naga City"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Maria", got[0].FirstName)

	n, err := doctors.Count(ctx, &model.DoctorFilter{Specialization: "Pediatrics"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = doctors.Count(ctx, &model.DoctorFilter{BaseFilter: model.BaseFilter{Status: "pending", Search: "jose"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
