package invite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
)

// CredentialProvisioner is the sign-in side of redemption.
type CredentialProvisioner interface {
	CreateCredential(ctx context.Context, email, password string) (uuid.UUID, error)
	RemoveCredential(ctx context.Context, id uuid.UUID) error
	Authenticate(ctx context.Context, email, password string) (*model.Session, error)
}

// Notifier delivers the invite link.
type Notifier interface {
	SendStaffInvite(ctx context.Context, person *model.Person, link string, expiresAt time.Time) error
}
