package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
)

type clinicRepository struct {
	s *Store
}

func copyClinic(c *model.Clinic) *model.Clinic {
	cp := *c
	return &cp
}

func (r *clinicRepository) FindOrCreate(ctx context.Context, clinic *model.Clinic, events ...*model.OutboxEvent) (*model.Clinic, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.clinics {
		if c.NameKey == clinic.NameKey {
			return copyClinic(c), false, nil
		}
	}

	if clinic.ID == uuid.Nil {
		clinic.ID = uuid.New()
	}
	now := r.s.now()
	clinic.CreatedAt = now
	clinic.UpdatedAt = now
	r.s.clinics[clinic.ID] = copyClinic(clinic)
	r.s.appendEvents(events)
	return copyClinic(clinic), true, nil
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.clinics[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyClinic(c), nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.clinics[clinic.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, c := range r.s.clinics {
		if id != clinic.ID && c.NameKey == clinic.NameKey {
			return repository.ErrDuplicate
		}
	}
	clinic.UpdatedAt = r.s.now()
	stored := copyClinic(clinic)
	stored.CreatedAt = existing.CreatedAt
	r.s.clinics[clinic.ID] = stored
	return nil
}

func (r *clinicRepository) sorted(keep func(*model.Clinic) bool) []*model.Clinic {
	var out []*model.Clinic
	for _, c := range r.s.clinics {
		if keep(c) {
			out = append(out, copyClinic(c))
		}
	}
	sortBy(out, func(a, b *model.Clinic) bool { return a.NameKey < b.NameKey })
	return out
}

func clinicMatches(filter *model.ClinicFilter) func(*model.Clinic) bool {
	return func(c *model.Clinic) bool {
		if filter == nil {
			return true
		}
		if filter.City != "" && c.City != filter.City {
			return false
		}
		if filter.Type != "" && string(c.Type) != filter.Type {
			return false
		}
		return matchesAllWords(c.Name, filter.Search)
	}
}

func (r *clinicRepository) List(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := r.sorted(clinicMatches(filter))
	if filter != nil {
		out = paginate(out, filter.Pagination)
	}
	return out, nil
}

func (r *clinicRepository) ListByKeyPrefix(ctx context.Context, prefix string, limit int) ([]*model.Clinic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := r.sorted(func(c *model.Clinic) bool { return strings.HasPrefix(c.NameKey, prefix) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *clinicRepository) Count(ctx context.Context, filter *model.ClinicFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	keep := clinicMatches(filter)
	for _, c := range r.s.clinics {
		if keep(c) {
			n++
		}
	}
	return n, nil
}
