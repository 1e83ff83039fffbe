package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
)

type doctorRepository struct {
	s *Store
}

func copyDoctor(d *model.Doctor) *model.Doctor {
	cp := *d
	cp.Specializations = append([]string(nil), d.Specializations...)
	cp.Clinics = append(model.DoctorClinics(nil), d.Clinics...)
	return &cp
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor, events ...*model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if doctor.ID == uuid.Nil {
		doctor.ID = uuid.New()
	}
	now := r.s.now()
	doctor.CreatedAt = now
	doctor.UpdatedAt = now
	r.s.doctors[doctor.ID] = copyDoctor(doctor)
	r.s.appendEvents(events)
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyDoctor(d), nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor, events ...*model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.doctors[doctor.ID]
	if !ok {
		return repository.ErrNotFound
	}
	doctor.UpdatedAt = r.s.now()
	stored := copyDoctor(doctor)
	stored.CreatedAt = existing.CreatedAt
	r.s.doctors[doctor.ID] = stored
	r.s.appendEvents(events)
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.doctors, id)
	return nil
}

// doctorMatches must be called with the store lock held; the city filter
// reads the clinics table.
func (r *doctorRepository) doctorMatches(d *model.Doctor, f *model.DoctorFilter) bool {
	if f == nil {
		return true
	}
	if f.Status != "" && string(d.Status) != f.Status {
		return false
	}
	if f.Specialization != "" {
		found := false
		for _, s := range d.Specializations {
			if s == f.Specialization {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.City != "" {
		found := false
		for _, ref := range d.Clinics {
			if c, ok := r.s.clinics[ref.ClinicID]; ok && c.City == f.City {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	text := d.FirstName + " " + d.MiddleName + " " + d.LastName + " " + d.Email
	return matchesAllWords(text, f.Search)
}

func (r *doctorRepository) filtered(f *model.DoctorFilter) []*model.Doctor {
	var out []*model.Doctor
	for _, d := range r.s.doctors {
		if r.doctorMatches(d, f) {
			out = append(out, copyDoctor(d))
		}
	}
	sortBy(out, func(a, b *model.Doctor) bool {
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.FirstName < b.FirstName
	})
	return out
}

func (r *doctorRepository) List(ctx context.Context, filter *model.DoctorFilter) ([]*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := r.filtered(filter)
	if filter != nil {
		out = paginate(out, filter.Pagination)
	}
	return out, nil
}

func (r *doctorRepository) Count(ctx context.Context, filter *model.DoctorFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.filtered(filter)), nil
}
