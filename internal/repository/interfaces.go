package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
	// ErrConflict is returned when a guarded update finds the row changed.
	ErrConflict = errors.New("record was modified concurrently")
)

// All repository interfaces in one file
type (
	// PersonRepository stores staff portal account holders. Writes accept
	// outbox events that are committed in the same transaction.
	PersonRepository interface {
		Create(ctx context.Context, person *model.Person, events ...*model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Person, error)
		ListByEmail(ctx context.Context, email string) ([]*model.Person, error)
		Update(ctx context.Context, person *model.Person) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.PersonFilter) ([]*model.Person, error)
		Count(ctx context.Context, filter *model.PersonFilter) (int, error)

		// SetInvite writes fingerprint and expiry together.
		SetInvite(ctx context.Context, id uuid.UUID, fingerprint string, expiresAt time.Time, events ...*model.OutboxEvent) error
		// ActivateInvited sets status active and clears both invite fields,
		// only if the stored fingerprint still equals fingerprint. It returns
		// ErrConflict otherwise.
		ActivateInvited(ctx context.Context, id uuid.UUID, fingerprint string, events ...*model.OutboxEvent) error
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor, events ...*model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor, events ...*model.OutboxEvent) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.DoctorFilter) ([]*model.Doctor, error)
		Count(ctx context.Context, filter *model.DoctorFilter) (int, error)
	}

	ClinicRepository interface {
		// FindOrCreate inserts clinic unless a clinic with the same name key
		// exists, and returns whichever row holds the key.
		FindOrCreate(ctx context.Context, clinic *model.Clinic, events ...*model.OutboxEvent) (*model.Clinic, bool, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		Update(ctx context.Context, clinic *model.Clinic) error
		List(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error)
		// ListByKeyPrefix returns clinics whose name key starts with prefix,
		// ordered by name key.
		ListByKeyPrefix(ctx context.Context, prefix string, limit int) ([]*model.Clinic, error)
		Count(ctx context.Context, filter *model.ClinicFilter) (int, error)
	}

	CredentialRepository interface {
		// Create returns ErrDuplicate when the email already has a credential.
		Create(ctx context.Context, credential *model.Credential) error
		GetByEmail(ctx context.Context, email string) (*model.Credential, error)
		TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// GetPendingEventsWithLock claims up to limit pending events by
		// moving them to PROCESSING, skipping rows locked by other workers.
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
		// ReleaseStaleClaims moves events claimed before the cutoff and never
		// finished back to PENDING.
		ReleaseStaleClaims(ctx context.Context, claimedBefore time.Time) (int64, error)
	}
)
