package invite

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/metrics"
	"github.com/HealthLane-PH/healthlane-web/pkg/security"
)

type Redeemer struct {
	persons     repository.PersonRepository
	codec       security.InviteTokenCodec
	credentials CredentialProvisioner
	log         *logger.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewRedeemer(
	persons repository.PersonRepository,
	codec security.InviteTokenCodec,
	credentials CredentialProvisioner,
	log *logger.Logger,
	m *metrics.Metrics,
) *Redeemer {
	return &Redeemer{
		persons:     persons,
		codec:       codec,
		credentials: credentials,
		log:         log,
		metrics:     m,
		now:         time.Now,
	}
}

// lookup finds the person whose stored fingerprint matches token. Unknown,
// mismatched and expired invites all produce the same error.
func (r *Redeemer) lookup(ctx context.Context, email, token string) (*model.Person, error) {
	email = model.NormalizeEmail(email)
	if email == "" || token == "" {
		return nil, errors.InvalidOrExpiredToken()
	}

	candidates, err := r.persons.ListByEmail(ctx, email)
	if err != nil {
		return nil, errors.Storage("look up invite", err)
	}

	for _, p := range candidates {
		if p.Invite == nil || !r.codec.Matches(p.Invite.Fingerprint, token) {
			continue
		}
		if p.Invite.Expired(r.now()) {
			r.metrics.InviteFailures.WithLabelValues("expired").Inc()
			return nil, errors.InvalidOrExpiredToken()
		}
		return p, nil
	}

	r.metrics.InviteFailures.WithLabelValues("not_found").Inc()
	return nil, errors.InvalidOrExpiredToken()
}

// Verify checks a link without changing anything.
func (r *Redeemer) Verify(ctx context.Context, email, token string) (*model.InviteVerification, error) {
	person, err := r.lookup(ctx, email, token)
	if err != nil {
		return nil, err
	}
	return &model.InviteVerification{
		Email:     person.Email,
		FirstName: person.DisplayName(),
		ExpiresAt: person.Invite.ExpiresAt,
	}, nil
}

// Redeem provisions a credential for the invited person, activates them and
// clears the invite. When provisioning or activation fails the invite is
// left untouched and no credential remains, so the same link can be retried.
func (r *Redeemer) Redeem(ctx context.Context, req *model.SetPasswordRequest) (*model.SetPasswordResponse, error) {
	if len(req.Password) < security.MinPasswordLen {
		return nil, errors.Validation("password", security.ErrPasswordTooShort.Error())
	}
	if req.Password != req.ConfirmPassword {
		return nil, errors.Validation("confirm_password", "passwords do not match")
	}

	person, err := r.lookup(ctx, req.Email, req.Token)
	if err != nil {
		return nil, err
	}
	fingerprint := person.Invite.Fingerprint

	credentialID, err := r.credentials.CreateCredential(ctx, person.Email, req.Password)
	if err != nil {
		r.metrics.InviteFailures.WithLabelValues("credential").Inc()
		if appErr, ok := errors.As(err); ok && appErr.Code == errors.ErrValidation {
			return nil, err
		}
		if errors.Is(err, errors.ErrCredentialProvisioning) {
			return nil, err
		}
		return nil, errors.CredentialProvisioningFailed(err)
	}

	evt, err := model.NewOutboxEvent(model.EventPersonActivated, model.PersonActivatedPayload{PersonID: person.ID})
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := r.persons.ActivateInvited(ctx, person.ID, fingerprint, evt); err != nil {
		r.rollbackCredential(ctx, person, credentialID)
		if stderrors.Is(err, repository.ErrConflict) {
			// Another redemption or a re-invite got there first.
			r.metrics.InviteFailures.WithLabelValues("conflict").Inc()
			return nil, errors.InvalidOrExpiredToken()
		}
		r.metrics.InviteFailures.WithLabelValues("storage").Inc()
		return nil, errors.Storage("activate staff member", err)
	}
	r.metrics.InvitesRedeemed.Inc()
	r.log.Info("Invite redeemed", "person_id", person.ID.String())

	session, err := r.credentials.Authenticate(ctx, person.Email, req.Password)
	if err != nil {
		r.log.Error(err, "Auto sign-in after redemption failed", "person_id", person.ID.String())
		return &model.SetPasswordResponse{Redirect: model.StaffLoginPath}, nil
	}
	return &model.SetPasswordResponse{Session: session, Redirect: model.StaffHomePath}, nil
}

// rollbackCredential removes the credential made for a redemption that could
// not activate the person. It runs even if the request was cancelled.
func (r *Redeemer) rollbackCredential(ctx context.Context, person *model.Person, credentialID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	if err := r.credentials.RemoveCredential(ctx, credentialID); err != nil {
		r.log.Error(err, "Failed to roll back credential after activation failure",
			"person_id", person.ID.String(), "credential_id", credentialID.String())
	}
}
