package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInviteStatePairing(t *testing.T) {
	fp := "ab12"
	exp := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	empty := ""

	state, err := NewInviteState(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, state)

	state, err = NewInviteState(&empty, nil)
	require.NoError(t, err)
	assert.Nil(t, state)

	_, err = NewInviteState(&fp, nil)
	assert.ErrorIs(t, err, ErrInvitePairing)

	_, err = NewInviteState(nil, &exp)
	assert.ErrorIs(t, err, ErrInvitePairing)

	state, err = NewInviteState(&fp, &exp)
	require.NoError(t, err)
	assert.Equal(t, fp, state.Fingerprint)
	assert.True(t, state.ExpiresAt.Equal(exp))
}

func TestInviteStateExpired(t *testing.T) {
	exp := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)
	state := &InviteState{Fingerprint: "x", ExpiresAt: exp}

	assert.False(t, state.Expired(exp.Add(-time.Second)))
	assert.True(t, state.Expired(exp))
	assert.True(t, state.Expired(exp.Add(time.Hour)))
}

func TestPersonJSONHidesFingerprint(t *testing.T) {
	p := &Person{
		Email:  "a@x.com",
		Invite: &InviteState{Fingerprint: "secret-digest", ExpiresAt: time.Now()},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-digest")
	assert.Contains(t, string(data), "expires_at")
}

func TestPortalRoles(t *testing.T) {
	assert.True(t, PersonRoleStaff.CanUsePortal())
	assert.True(t, PersonRoleOwner.CanUsePortal())
	assert.False(t, PersonRole("patient").CanUsePortal())
}

func TestDoctorClinicsScan(t *testing.T) {
	id := uuid.New()
	clinics := DoctorClinics{{ClinicID: id, Name: "St Jose Clinic", Contact: "0917"}}

	v, err := clinics.Value()
	require.NoError(t, err)

	var out DoctorClinics
	require.NoError(t, out.Scan(v))
	assert.Equal(t, clinics, out)

	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)

	assert.Error(t, out.Scan(42))
}

func TestDoctorHasContact(t *testing.T) {
	d := &Doctor{}
	assert.False(t, d.HasContact())

	d.Clinics = DoctorClinics{{Name: "A", Contact: "0917 000 0000"}}
	assert.True(t, d.HasContact())

	d = &Doctor{Email: "dr@x.com"}
	assert.True(t, d.HasContact())
}

func TestStatusTransitionVerified(t *testing.T) {
	assert.True(t, DoctorStatusChangedPayload{Before: DoctorStatusPending, After: DoctorStatusActive}.Verified())
	assert.True(t, DoctorStatusChangedPayload{Before: DoctorStatusSuspended, After: DoctorStatusActive}.Verified())
	assert.False(t, DoctorStatusChangedPayload{Before: "", After: DoctorStatusActive}.Verified())
	assert.False(t, DoctorStatusChangedPayload{Before: DoctorStatusActive, After: DoctorStatusActive}.Verified())
	assert.False(t, DoctorStatusChangedPayload{Before: DoctorStatusPending, After: DoctorStatusSuspended}.Verified())
}

func TestNewOutboxEvent(t *testing.T) {
	evt, err := NewOutboxEvent(EventPersonCreated, PersonCreatedPayload{Email: "a@x.com", Role: PersonRoleStaff})
	require.NoError(t, err)

	assert.Equal(t, OutboxStatusPending, evt.Status)
	assert.NotEqual(t, uuid.Nil, evt.ID)
	assert.JSONEq(t, `{"person_id":"00000000-0000-0000-0000-000000000000","email":"a@x.com","role":"staff"}`, string(evt.Payload))
}

func TestFullName(t *testing.T) {
	p := &Person{FirstName: "Juan", LastName: "Dela Cruz", NameSuffix: "Jr."}
	assert.Equal(t, "Juan Dela Cruz Jr.", p.FullName())
	assert.Equal(t, "Juan", p.DisplayName())
}
