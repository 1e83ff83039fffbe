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

const personColumns = `
	id, first_name, middle_name, last_name, name_suffix, preferred_name,
	email, phone, role, status, assigned_city, photo_path,
	invite_token, invite_expires,
	created_at, updated_at, created_by, created_by_name, updated_by, updated_by_name
`

// personRow mirrors the persons table. Invite columns are decoded through
// model.NewInviteState so a half-set invite surfaces as an error.
type personRow struct {
	ID            uuid.UUID  `db:"id"`
	FirstName     string     `db:"first_name"`
	MiddleName    string     `db:"middle_name"`
	LastName      string     `db:"last_name"`
	NameSuffix    string     `db:"name_suffix"`
	PreferredName string     `db:"preferred_name"`
	Email         string     `db:"email"`
	Phone         string     `db:"phone"`
	Role          string     `db:"role"`
	Status        string     `db:"status"`
	AssignedCity  string     `db:"assigned_city"`
	PhotoPath     *string    `db:"photo_path"`
	InviteToken   *string    `db:"invite_token"`
	InviteExpires *time.Time `db:"invite_expires"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	CreatedBy     *uuid.UUID `db:"created_by"`
	CreatedByName string     `db:"created_by_name"`
	UpdatedBy     *uuid.UUID `db:"updated_by"`
	UpdatedByName string     `db:"updated_by_name"`
}

func (r personRow) toModel() (*model.Person, error) {
	invite, err := model.NewInviteState(r.InviteToken, r.InviteExpires)
	if err != nil {
		return nil, fmt.Errorf("person %s: %w", r.ID, err)
	}
	return &model.Person{
		Base:          model.Base{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		FirstName:     r.FirstName,
		MiddleName:    r.MiddleName,
		LastName:      r.LastName,
		NameSuffix:    r.NameSuffix,
		PreferredName: r.PreferredName,
		Email:         r.Email,
		Phone:         r.Phone,
		Role:          model.PersonRole(r.Role),
		Status:        model.PersonStatus(r.Status),
		AssignedCity:  r.AssignedCity,
		PhotoPath:     r.PhotoPath,
		Invite:        invite,
		Audit: model.Audit{
			CreatedBy:     r.CreatedBy,
			CreatedByName: r.CreatedByName,
			UpdatedBy:     r.UpdatedBy,
			UpdatedByName: r.UpdatedByName,
		},
	}, nil
}

func rowsToPersons(rows []personRow) ([]*model.Person, error) {
	persons := make([]*model.Person, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	return persons, nil
}

type personRepository struct {
	BaseRepository
}

func NewPersonRepository(base BaseRepository) repository.PersonRepository {
	return &personRepository{base}
}

func (r *personRepository) Create(ctx context.Context, person *model.Person, events ...*model.OutboxEvent) error {
	query := `
		INSERT INTO persons (
			id, first_name, middle_name, last_name, name_suffix, preferred_name,
			email, phone, role, status, assigned_city, photo_path,
			created_at, updated_at, created_by, created_by_name
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13, $14, $15
		)
	`
	if person.ID == uuid.Nil {
		person.ID = uuid.New()
	}
	now := time.Now().UTC()
	person.CreatedAt = now
	person.UpdatedAt = now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			person.ID,
			person.FirstName,
			person.MiddleName,
			person.LastName,
			person.NameSuffix,
			person.PreferredName,
			person.Email,
			person.Phone,
			person.Role,
			person.Status,
			person.AssignedCity,
			person.PhotoPath,
			now,
			person.CreatedBy,
			person.CreatedByName,
		)
		if err != nil {
			return fmt.Errorf("failed to create person: %w", err)
		}
		return insertEvents(ctx, tx, events)
	})
}

func (r *personRepository) Get(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	var row personRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+personColumns+` FROM persons WHERE id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	return row.toModel()
}

func (r *personRepository) ListByEmail(ctx context.Context, email string) ([]*model.Person, error) {
	var rows []personRow
	query := `SELECT ` + personColumns + ` FROM persons WHERE email = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, email); err != nil {
		return nil, fmt.Errorf("failed to list persons by email: %w", err)
	}
	return rowsToPersons(rows)
}

func (r *personRepository) Update(ctx context.Context, person *model.Person) error {
	query := `
		UPDATE persons
		SET first_name = $1, middle_name = $2, last_name = $3, name_suffix = $4,
			preferred_name = $5, email = $6, phone = $7, role = $8, status = $9,
			assigned_city = $10, photo_path = $11, updated_at = $12,
			updated_by = $13, updated_by_name = $14
		WHERE id = $15
	`
	person.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		person.FirstName,
		person.MiddleName,
		person.LastName,
		person.NameSuffix,
		person.PreferredName,
		person.Email,
		person.Phone,
		person.Role,
		person.Status,
		person.AssignedCity,
		person.PhotoPath,
		person.UpdatedAt,
		person.UpdatedBy,
		person.UpdatedByName,
		person.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	return requireAffected(result, repository.ErrNotFound)
}

func (r *personRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return requireAffected(result, repository.ErrNotFound)
}

func personWhere(filter *model.PersonFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter != nil {
		if filter.Role != "" {
			add("role = $%d", filter.Role)
		}
		if filter.Status != "" {
			add("status = $%d", filter.Status)
		}
		if filter.City != "" {
			add("assigned_city = $%d", filter.City)
		}
		// Every search word has to appear in one of the name or email columns.
		for _, word := range strings.Fields(filter.Search) {
			add(`(first_name || ' ' || last_name || ' ' || preferred_name || ' ' || email) ILIKE '%%' || $%d || '%%'`, likePattern(word))
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *personRepository) List(ctx context.Context, filter *model.PersonFilter) ([]*model.Person, error) {
	where, args := personWhere(filter)
	query := `SELECT ` + personColumns + ` FROM persons` + where + ` ORDER BY created_at DESC`
	if filter != nil && filter.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, filter.Offset())
	}

	var rows []personRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	return rowsToPersons(rows)
}

func (r *personRepository) Count(ctx context.Context, filter *model.PersonFilter) (int, error) {
	where, args := personWhere(filter)
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM persons`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count persons: %w", err)
	}
	return n, nil
}

func (r *personRepository) SetInvite(ctx context.Context, id uuid.UUID, fingerprint string, expiresAt time.Time, events ...*model.OutboxEvent) error {
	query := `
		UPDATE persons
		SET invite_token = $1, invite_expires = $2, updated_at = NOW()
		WHERE id = $3
	`
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, fingerprint, expiresAt.UTC(), id)
		if err != nil {
			return fmt.Errorf("failed to set invite: %w", err)
		}
		if err := requireAffected(result, repository.ErrNotFound); err != nil {
			return err
		}
		return insertEvents(ctx, tx, events)
	})
}

func (r *personRepository) ActivateInvited(ctx context.Context, id uuid.UUID, fingerprint string, events ...*model.OutboxEvent) error {
	query := `
		UPDATE persons
		SET status = $1, invite_token = NULL, invite_expires = NULL, updated_at = NOW()
		WHERE id = $2 AND invite_token = $3
	`
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, model.PersonStatusActive, id, fingerprint)
		if err != nil {
			return fmt.Errorf("failed to activate person: %w", err)
		}
		if err := requireAffected(result, repository.ErrConflict); err != nil {
			return err
		}
		return insertEvents(ctx, tx, events)
	})
}
