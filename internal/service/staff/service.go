// Package staff maintains the person records behind staff portal accounts.
package staff

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
	"github.com/HealthLane-PH/healthlane-web/internal/service/dedupe"
	"github.com/HealthLane-PH/healthlane-web/internal/storage"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
)

type Service struct {
	repo  repository.PersonRepository
	creds repository.CredentialRepository
	store storage.Storage
	log   *logger.Logger
	now   func() time.Time
}

func NewService(repo repository.PersonRepository, creds repository.CredentialRepository, store storage.Storage, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		creds: creds,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// checkEmail rejects an email already used by another person.
func (s *Service) checkEmail(ctx context.Context, email string, ignoreID uuid.UUID) error {
	existing, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return errors.Storage("look up staff member", err)
	}
	for _, p := range existing {
		if p.ID != ignoreID {
			return errors.Duplicate("a staff member with this email already exists", p.ID.String())
		}
	}
	return nil
}

// Create stores the person and the person.created event together. Staff
// members get their invite from the event.
func (s *Service) Create(ctx context.Context, req *model.CreatePersonRequest, actor model.Actor) (*model.Person, error) {
	p := &model.Person{
		Base:          model.Base{ID: uuid.New()},
		FirstName:     dedupe.TitleCase(req.FirstName),
		MiddleName:    dedupe.TitleCase(req.MiddleName),
		LastName:      dedupe.TitleCase(req.LastName),
		NameSuffix:    strings.TrimSpace(req.NameSuffix),
		PreferredName: dedupe.TitleCase(req.PreferredName),
		Email:         model.NormalizeEmail(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Role:          model.PersonRole(req.Role),
		Status:        model.PersonStatusPending,
		AssignedCity:  strings.TrimSpace(req.AssignedCity),
	}
	if req.Status != "" {
		p.Status = model.PersonStatus(req.Status)
	}
	switch {
	case p.FirstName == "" || p.LastName == "":
		return nil, errors.Validation("first_name", "first and last name are required")
	case p.Email == "":
		return nil, errors.Validation("email", "email is required")
	case !p.Role.CanUsePortal():
		return nil, errors.Validation("role", "role must be one of owner, admin, staff")
	}
	if err := s.checkEmail(ctx, p.Email, uuid.Nil); err != nil {
		return nil, err
	}
	p.SetCreated(actor)

	evt, err := model.NewOutboxEvent(model.EventPersonCreated, model.PersonCreatedPayload{
		PersonID: p.ID,
		Email:    p.Email,
		Role:     p.Role,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := s.repo.Create(ctx, p, evt); err != nil {
		return nil, errors.Storage("create staff member", err)
	}
	s.log.Info("Staff member created", "person_id", p.ID.String(), "role", p.Role, "by", actor.Name)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("staff member", err)
		}
		return nil, errors.Storage("load staff member", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, filter *model.PersonFilter) ([]*model.Person, int, error) {
	if filter == nil {
		filter = &model.PersonFilter{}
	}
	persons, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, errors.Storage("list staff members", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, errors.Storage("count staff members", err)
	}
	return persons, total, nil
}

func (s *Service) Count(ctx context.Context, filter *model.PersonFilter) (int, error) {
	n, err := s.repo.Count(ctx, filter)
	if err != nil {
		return 0, errors.Storage("count staff members", err)
	}
	return n, nil
}

func setName(dst *string, v *string) {
	if v != nil {
		*dst = dedupe.TitleCase(*v)
	}
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// Update applies the fields present in req. Invite fields are never touched
// here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePersonRequest, actor model.Actor) (*model.Person, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	setName(&p.FirstName, req.FirstName)
	setName(&p.MiddleName, req.MiddleName)
	setName(&p.LastName, req.LastName)
	setName(&p.PreferredName, req.PreferredName)
	setTrimmed(&p.NameSuffix, req.NameSuffix)
	setTrimmed(&p.Phone, req.Phone)
	setTrimmed(&p.AssignedCity, req.AssignedCity)
	if p.FirstName == "" || p.LastName == "" {
		return nil, errors.Validation("first_name", "first and last name are required")
	}
	if req.Email != nil {
		email := model.NormalizeEmail(*req.Email)
		if email == "" {
			return nil, errors.Validation("email", "email is required")
		}
		if email != p.Email {
			if err := s.checkEmail(ctx, email, id); err != nil {
				return nil, err
			}
		}
		p.Email = email
	}
	if req.Role != nil {
		role := model.PersonRole(*req.Role)
		if !role.CanUsePortal() {
			return nil, errors.Validation("role", "role must be one of owner, admin, staff")
		}
		p.Role = role
	}
	if req.Status != nil {
		p.Status = model.PersonStatus(*req.Status)
	}
	p.SetUpdated(actor)

	if err := s.repo.Update(ctx, p); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("staff member", err)
		}
		return nil, errors.Storage("update staff member", err)
	}
	return p, nil
}

// Delete removes the person together with the credential they sign in
// with, so the email can be invited again later.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.removeCredential(ctx, p.Email); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("staff member", err)
		}
		return errors.Storage("delete staff member", err)
	}
	if p.PhotoPath != nil {
		if err := s.store.Delete(ctx, *p.PhotoPath); err != nil {
			s.log.Warn("Failed to delete staff photo", "person_id", id.String(), "error", err.Error())
		}
	}
	return nil
}

func (s *Service) removeCredential(ctx context.Context, email string) error {
	credential, err := s.creds.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return errors.Storage("look up credential", err)
	}
	if err := s.creds.Delete(ctx, credential.ID); err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return errors.Storage("delete credential", err)
	}
	return nil
}

// SetPhoto stores a new photo and removes the previous one.
func (s *Service) SetPhoto(ctx context.Context, id uuid.UUID, filename, contentType string, content io.Reader, actor model.Actor) (*model.Person, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.ObjectKey(storage.StaffPhotoPrefix, filename, s.now())
	if err := s.store.Put(ctx, key, content, contentType); err != nil {
		return nil, errors.Storage("upload photo", err)
	}
	old := p.PhotoPath
	p.PhotoPath = &key
	p.SetUpdated(actor)

	if err := s.repo.Update(ctx, p); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Error(delErr, "Failed to remove orphaned photo", "key", key)
		}
		return nil, errors.Storage("update staff member", err)
	}
	if old != nil {
		if err := s.store.Delete(ctx, *old); err != nil {
			s.log.Warn("Failed to delete replaced photo", "person_id", id.String(), "error", err.Error())
		}
	}
	return p, nil
}
