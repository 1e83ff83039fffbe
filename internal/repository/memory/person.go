package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
)

type personRepository struct {
	s *Store
}

func copyPerson(p *model.Person) *model.Person {
	cp := *p
	if p.Invite != nil {
		inv := *p.Invite
		cp.Invite = &inv
	}
	return &cp
}

func (r *personRepository) Create(ctx context.Context, person *model.Person, events ...*model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if person.ID == uuid.Nil {
		person.ID = uuid.New()
	}
	now := r.s.now()
	person.CreatedAt = now
	person.UpdatedAt = now

	stored := copyPerson(person)
	// The invite pair is only written through SetInvite.
	stored.Invite = nil
	r.s.persons[person.ID] = stored
	r.s.appendEvents(events)
	return nil
}

func (r *personRepository) Get(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.persons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyPerson(p), nil
}

func (r *personRepository) ListByEmail(ctx context.Context, email string) ([]*model.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*model.Person
	for _, p := range r.s.persons {
		if p.Email == email {
			out = append(out, copyPerson(p))
		}
	}
	sortBy(out, func(a, b *model.Person) bool { return a.CreatedAt.Before(b.CreatedAt) })
	return out, nil
}

func (r *personRepository) Update(ctx context.Context, person *model.Person) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.persons[person.ID]
	if !ok {
		return repository.ErrNotFound
	}
	person.UpdatedAt = r.s.now()
	stored := copyPerson(person)
	stored.CreatedAt = existing.CreatedAt
	stored.Audit.CreatedBy = existing.Audit.CreatedBy
	stored.Audit.CreatedByName = existing.Audit.CreatedByName
	stored.Invite = existing.Invite
	r.s.persons[person.ID] = stored
	return nil
}

func (r *personRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.persons[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.persons, id)
	return nil
}

func personMatches(p *model.Person, f *model.PersonFilter) bool {
	if f == nil {
		return true
	}
	if f.Role != "" && string(p.Role) != f.Role {
		return false
	}
	if f.Status != "" && string(p.Status) != f.Status {
		return false
	}
	if f.City != "" && p.AssignedCity != f.City {
		return false
	}
	text := p.FirstName + " " + p.LastName + " " + p.PreferredName + " " + p.Email
	return matchesAllWords(text, f.Search)
}

func (r *personRepository) filtered(f *model.PersonFilter) []*model.Person {
	var out []*model.Person
	for _, p := range r.s.persons {
		if personMatches(p, f) {
			out = append(out, copyPerson(p))
		}
	}
	sortBy(out, func(a, b *model.Person) bool { return a.CreatedAt.After(b.CreatedAt) })
	return out
}

func (r *personRepository) List(ctx context.Context, filter *model.PersonFilter) ([]*model.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := r.filtered(filter)
	if filter != nil {
		out = paginate(out, filter.Pagination)
	}
	return out, nil
}

func (r *personRepository) Count(ctx context.Context, filter *model.PersonFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.filtered(filter)), nil
}

func (r *personRepository) SetInvite(ctx context.Context, id uuid.UUID, fingerprint string, expiresAt time.Time, events ...*model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.persons[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Invite = &model.InviteState{Fingerprint: fingerprint, ExpiresAt: expiresAt.UTC()}
	p.UpdatedAt = r.s.now()
	r.s.appendEvents(events)
	return nil
}

func (r *personRepository) ActivateInvited(ctx context.Context, id uuid.UUID, fingerprint string, events ...*model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.persons[id]
	if !ok || p.Invite == nil || p.Invite.Fingerprint != fingerprint {
		return repository.ErrConflict
	}
	p.Status = model.PersonStatusActive
	p.Invite = nil
	p.UpdatedAt = r.s.now()
	r.s.appendEvents(events)
	return nil
}
