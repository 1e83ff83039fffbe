// Package auth provisions sign-in credentials and issues sessions for them.
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
	"github.com/HealthLane-PH/healthlane-web/pkg/auth"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/security"
)

// ErrInvalidCredentials is deliberately vague about which part was wrong.
var ErrInvalidCredentials = stderrors.New("invalid email or password")

type Service struct {
	creds   repository.CredentialRepository
	persons repository.PersonRepository
	hasher  security.PasswordHasher
	jwtSvc  auth.JWTService
	log     *logger.Logger
	now     func() time.Time
}

func NewService(
	creds repository.CredentialRepository,
	persons repository.PersonRepository,
	hasher security.PasswordHasher,
	jwtSvc auth.JWTService,
	log *logger.Logger,
) *Service {
	return &Service{
		creds:   creds,
		persons: persons,
		hasher:  hasher,
		jwtSvc:  jwtSvc,
		log:     log,
		now:     time.Now,
	}
}

// CreateCredential stores a bcrypt hash for email. An email that already has
// a credential fails with CredentialProvisioningFailed.
func (s *Service) CreateCredential(ctx context.Context, email, password string) (uuid.UUID, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if stderrors.Is(err, security.ErrPasswordTooShort) {
			return uuid.Nil, errors.Validation("password", err.Error())
		}
		return uuid.Nil, errors.CredentialProvisioningFailed(err)
	}

	credential := &model.Credential{
		Email:        model.NormalizeEmail(email),
		PasswordHash: hash,
	}
	if err := s.creds.Create(ctx, credential); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return uuid.Nil, errors.CredentialProvisioningFailed(fmt.Errorf("email already has an account: %w", err))
		}
		return uuid.Nil, errors.CredentialProvisioningFailed(err)
	}

	s.log.Info("Credential created", "credential_id", credential.ID.String())
	return credential.ID, nil
}

// RemoveCredential deletes a credential. A credential that is already gone
// is not an error.
func (s *Service) RemoveCredential(ctx context.Context, id uuid.UUID) error {
	if err := s.creds.Delete(ctx, id); err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return errors.Storage("delete credential", err)
	}
	s.log.Info("Credential removed", "credential_id", id.String())
	return nil
}

// portalPerson finds the staff record that signs in with email, preferring an
// active one.
func (s *Service) portalPerson(ctx context.Context, email string) (*model.Person, error) {
	persons, err := s.persons.ListByEmail(ctx, email)
	if err != nil {
		return nil, errors.Storage("look up staff member", err)
	}
	var found *model.Person
	for _, p := range persons {
		if !p.Role.CanUsePortal() {
			continue
		}
		if p.Status == model.PersonStatusActive {
			return p, nil
		}
		if found == nil {
			found = p
		}
	}
	return found, nil
}

// Authenticate checks the password and opens a session. The session names
// the staff record for email when there is one.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.Session, error) {
	session, _, err := s.authenticate(ctx, email, password)
	return session, err
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*model.Session, *model.Person, error) {
	email = model.NormalizeEmail(email)

	credential, err := s.creds.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, nil, errors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, nil, errors.Storage("look up credential", err)
	}
	if err := s.hasher.Compare(credential.PasswordHash, password); err != nil {
		return nil, nil, errors.Unauthorized(ErrInvalidCredentials)
	}

	person, err := s.portalPerson(ctx, email)
	if err != nil {
		return nil, nil, err
	}

	subject := auth.Subject{CredentialID: credential.ID, Email: credential.Email}
	if person != nil {
		id := person.ID
		subject.PersonID = &id
		subject.Name = person.FullName()
		subject.Role = person.Role
	}
	session, err := s.jwtSvc.GenerateSession(subject)
	if err != nil {
		return nil, nil, errors.Internal(err)
	}

	if err := s.creds.TouchLogin(ctx, credential.ID, s.now()); err != nil {
		s.log.Error(err, "Failed to record login", "credential_id", credential.ID.String())
	}
	return session, person, nil
}

// Login is the staff portal sign-in. Only active owners, admins and staff
// get a session.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	session, person, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, errors.Forbidden("this account does not have staff portal access")
	}
	if person.Status != model.PersonStatusActive {
		return nil, errors.Forbidden("this staff account is not active")
	}
	return &model.LoginResponse{Session: session, Person: person, Redirect: model.StaffHomePath}, nil
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}
	return claims, nil
}

// Refresh re-reads the staff record so role or status changes take effect.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}

	person, err := s.portalPerson(ctx, claims.Email)
	if err != nil {
		return nil, err
	}
	if person == nil || person.Status != model.PersonStatusActive {
		return nil, errors.Forbidden("this staff account is not active")
	}

	id := person.ID
	session, err := s.jwtSvc.GenerateSession(auth.Subject{
		CredentialID: claims.CredentialID,
		PersonID:     &id,
		Email:        claims.Email,
		Name:         person.FullName(),
		Role:         person.Role,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	return session, nil
}
