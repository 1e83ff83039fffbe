package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
)

type credentialRepository struct {
	BaseRepository
}

func NewCredentialRepository(base BaseRepository) repository.CredentialRepository {
	return &credentialRepository{base}
}

func (r *credentialRepository) Create(ctx context.Context, credential *model.Credential) error {
	query := `
		INSERT INTO credentials (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if credential.ID == uuid.Nil {
		credential.ID = uuid.New()
	}
	credential.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		credential.ID,
		credential.Email,
		credential.PasswordHash,
		credential.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*model.Credential, error) {
	query := `
		SELECT id, email, password_hash, created_at, last_login_at
		FROM credentials
		WHERE email = $1
	`
	var credential model.Credential
	if err := r.db.GetContext(ctx, &credential, query, email); err != nil {
		return nil, notFound(err)
	}
	return &credential, nil
}

func (r *credentialRepository) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE credentials SET last_login_at = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return requireAffected(result, repository.ErrNotFound)
}

func (r *credentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return requireAffected(result, repository.ErrNotFound)
}
