package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
)

func newTestService() *jwtService {
	return NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "healthlane",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	}).(*jwtService)
}

func TestSessionRoundTrip(t *testing.T) {
	svc := newTestService()
	pid := uuid.New()
	subject := Subject{CredentialID: uuid.New(), PersonID: &pid, Email: "ana@x.com", Role: model.PersonRoleStaff}

	session, err := svc.GenerateSession(subject)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, subject.CredentialID, claims.CredentialID)
	assert.Equal(t, pid, *claims.PersonID)
	assert.Equal(t, model.PersonRoleStaff, claims.Role)

	refresh, err := svc.ValidateRefreshToken(session.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.Refresh)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	svc := newTestService()
	session, err := svc.GenerateSession(Subject{CredentialID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.ValidateToken(session.RefreshToken)
	assert.Error(t, err)
	_, err = svc.ValidateRefreshToken(session.AccessToken)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	svc := newTestService()
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }
	session, err := svc.GenerateSession(Subject{CredentialID: uuid.New()})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTamperedToken(t *testing.T) {
	svc := newTestService()
	session, err := svc.GenerateSession(Subject{CredentialID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.ValidateToken(session.AccessToken + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
