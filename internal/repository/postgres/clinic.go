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

const clinicColumns = `
	id, name, name_key, building_street, city, province, contact, type, created_at, updated_at
`

type clinicRepository struct {
	BaseRepository
}

func NewClinicRepository(base BaseRepository) repository.ClinicRepository {
	return &clinicRepository{base}
}

// clinicUpsertRow carries the xmax trick that tells an insert from a hit.
type clinicUpsertRow struct {
	model.Clinic
	Inserted bool `db:"inserted"`
}

func (r *clinicRepository) FindOrCreate(ctx context.Context, clinic *model.Clinic, events ...*model.OutboxEvent) (*model.Clinic, bool, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO clinics (
			id, name, name_key, building_street, city, province, contact, type, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $9
		)
		ON CONFLICT (name_key) DO UPDATE SET name_key = EXCLUDED.name_key
		RETURNING ` + clinicColumns + `, (xmax = 0) AS inserted
	`
	if clinic.ID == uuid.Nil {
		clinic.ID = uuid.New()
	}
	now := time.Now().UTC()

	var row clinicUpsertRow
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &row, query,
			clinic.ID,
			clinic.Name,
			clinic.NameKey,
			clinic.BuildingStreet,
			clinic.City,
			clinic.Province,
			clinic.Contact,
			clinic.Type,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to find or create clinic: %w", err)
		}
		if !row.Inserted {
			return nil
		}
		return insertEvents(ctx, tx, events)
	})
	if err != nil {
		return nil, false, err
	}
	return &row.Clinic, row.Inserted, nil
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	var clinic model.Clinic
	if err := r.db.GetContext(ctx, &clinic, `SELECT `+clinicColumns+` FROM clinics WHERE id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	return &clinic, nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	query := `
		UPDATE clinics
		SET name = $1, name_key = $2, building_street = $3, city = $4,
			province = $5, contact = $6, type = $7, updated_at = $8
		WHERE id = $9
	`
	clinic.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		clinic.Name,
		clinic.NameKey,
		clinic.BuildingStreet,
		clinic.City,
		clinic.Province,
		clinic.Contact,
		clinic.Type,
		clinic.UpdatedAt,
		clinic.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to update clinic: %w", err)
	}
	return requireAffected(result, repository.ErrNotFound)
}

func clinicWhere(filter *model.ClinicFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter != nil {
		if filter.City != "" {
			add("city = $%d", filter.City)
		}
		if filter.Type != "" {
			add("type = $%d", filter.Type)
		}
		for _, word := range strings.Fields(filter.Search) {
			add(`name ILIKE '%%' || $%d || '%%'`, likePattern(word))
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *clinicRepository) List(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error) {
	where, args := clinicWhere(filter)
	query := `SELECT ` + clinicColumns + ` FROM clinics` + where + ` ORDER BY name_key`
	if filter != nil && filter.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, filter.Offset())
	}

	var clinics []*model.Clinic
	if err := r.db.SelectContext(ctx, &clinics, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}

func (r *clinicRepository) ListByKeyPrefix(ctx context.Context, prefix string, limit int) ([]*model.Clinic, error) {
	query := `
		SELECT ` + clinicColumns + `
		FROM clinics
		WHERE name_key LIKE $1 || '%'
		ORDER BY name_key
		LIMIT $2
	`
	var clinics []*model.Clinic
	if err := r.db.SelectContext(ctx, &clinics, query, likePattern(prefix), limit); err != nil {
		return nil, fmt.Errorf("failed to list clinics by prefix: %w", err)
	}
	return clinics, nil
}

func (r *clinicRepository) Count(ctx context.Context, filter *model.ClinicFilter) (int, error) {
	where, args := clinicWhere(filter)
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM clinics`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count clinics: %w", err)
	}
	return n, nil
}
