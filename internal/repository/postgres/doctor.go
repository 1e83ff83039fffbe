package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
)

const doctorColumns = `
	id, first_name, middle_name, last_name, name_suffix, titles, specializations,
	phone, email, clinics, tier, status,
	credential_path, credential_uploaded_at, credential_expiry,
	profile_pic_path, profile_pic_uploaded_at, consent,
	created_at, updated_at, created_by, created_by_name, updated_by, updated_by_name
`

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{base}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor, events ...*model.OutboxEvent) error {
	query := `
		INSERT INTO doctors (
			id, first_name, middle_name, last_name, name_suffix, titles, specializations,
			phone, email, clinics, tier, status,
			credential_path, credential_uploaded_at, credential_expiry,
			profile_pic_path, profile_pic_uploaded_at, consent,
			created_at, updated_at, created_by, created_by_name
		) VALUES (
			:id, :first_name, :middle_name, :last_name, :name_suffix, :titles, :specializations,
			:phone, :email, :clinics, :tier, :status,
			:credential_path, :credential_uploaded_at, :credential_expiry,
			:profile_pic_path, :profile_pic_uploaded_at, :consent,
			:created_at, :updated_at, :created_by, :created_by_name
		)
	`
	if doctor.ID == uuid.Nil {
		doctor.ID = uuid.New()
	}
	now := time.Now().UTC()
	doctor.CreatedAt = now
	doctor.UpdatedAt = now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, doctor); err != nil {
			return fmt.Errorf("failed to create doctor: %w", err)
		}
		return insertEvents(ctx, tx, events)
	})
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor, events ...*model.OutboxEvent) error {
	query := `
		UPDATE doctors
		SET first_name = :first_name, middle_name = :middle_name, last_name = :last_name,
			name_suffix = :name_suffix, titles = :titles, specializations = :specializations,
			phone = :phone, email = :email, clinics = :clinics, tier = :tier, status = :status,
			credential_path = :credential_path, credential_uploaded_at = :credential_uploaded_at,
			credential_expiry = :credential_expiry, profile_pic_path = :profile_pic_path,
			profile_pic_uploaded_at = :profile_pic_uploaded_at, consent = :consent,
			updated_at = :updated_at, updated_by = :updated_by, updated_by_name = :updated_by_name
		WHERE id = :id
	`
	doctor.UpdatedAt = time.Now().UTC()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.NamedExecContext(ctx, query, doctor)
		if err != nil {
			return fmt.Errorf("failed to update doctor: %w", err)
		}
		if err := requireAffected(result, repository.ErrNotFound); err != nil {
			return err
		}
		return insertEvents(ctx, tx, events)
	})
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	return requireAffected(result, repository.ErrNotFound)
}

func doctorWhere(filter *model.DoctorFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter != nil {
		if filter.Status != "" {
			add("status = $%d", filter.Status)
		}
		if filter.Specialization != "" {
			add("$%d = ANY(specializations)", filter.Specialization)
		}
		if filter.City != "" {
			add(`EXISTS (
				SELECT 1 FROM clinics c, jsonb_array_elements(doctors.clinics) ref
				WHERE c.id::text = ref->>'clinic_id' AND c.city = $%d
			)`, filter.City)
		}
		for _, word := range strings.Fields(filter.Search) {
			add(`(first_name || ' ' || middle_name || ' ' || last_name || ' ' || email) ILIKE '%%' || $%d || '%%'`, likePattern(word))
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *doctorRepository) List(ctx context.Context, filter *model.DoctorFilter) ([]*model.Doctor, error) {
	where, args := doctorWhere(filter)
	query := `SELECT ` + doctorColumns + ` FROM doctors` + where + ` ORDER BY last_name, first_name`
	if filter != nil && filter.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, filter.Offset())
	}

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) Count(ctx context.Context, filter *model.DoctorFilter) (int, error) {
	where, args := doctorWhere(filter)
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM doctors`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return n, nil
}
