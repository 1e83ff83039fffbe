package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
)

type credentialRepository struct {
	s *Store
}

func (r *credentialRepository) Create(ctx context.Context, credential *model.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.credentials {
		if c.Email == credential.Email {
			return repository.ErrDuplicate
		}
	}
	if credential.ID == uuid.Nil {
		credential.ID = uuid.New()
	}
	credential.CreatedAt = r.s.now()
	cp := *credential
	r.s.credentials[credential.ID] = &cp
	return nil
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*model.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.credentials {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *credentialRepository) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.credentials[id]
	if !ok {
		return repository.ErrNotFound
	}
	t := at.UTC()
	c.LastLoginAt = &t
	return nil
}

func (r *credentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.credentials[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.credentials, id)
	return nil
}
