// Package invite issues staff invites and redeems them.
//
// Only the fingerprint of an invite secret is stored. The secret itself
// exists in memory while the link is built and in the emailed link.
package invite

import (
	"context"
	stderrors "errors"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/metrics"
	"github.com/HealthLane-PH/healthlane-web/pkg/security"
)

type Config struct {
	TTL time.Duration
	// BaseURL is the set-password page, without a query.
	BaseURL string
}

type Issuer struct {
	persons  repository.PersonRepository
	codec    security.InviteTokenCodec
	notifier Notifier
	cfg      Config
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewIssuer(
	persons repository.PersonRepository,
	codec security.InviteTokenCodec,
	notifier Notifier,
	cfg Config,
	log *logger.Logger,
	m *metrics.Metrics,
) *Issuer {
	return &Issuer{
		persons:  persons,
		codec:    codec,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// BuildRedemptionURL embeds the email and the plaintext secret in the link.
func BuildRedemptionURL(baseURL, email, secret string) string {
	return baseURL + "?email=" + url.QueryEscape(email) + "&token=" + secret
}

// Issue runs on staff creation. Persons that are not staff, or that already
// hold an invite, are left alone and Issue reports false.
func (i *Issuer) Issue(ctx context.Context, personID uuid.UUID) (bool, error) {
	person, err := i.persons.Get(ctx, personID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			i.log.Warn("Invite skipped, person no longer exists", "person_id", personID.String())
			return false, nil
		}
		i.metrics.InviteFailures.WithLabelValues("storage").Inc()
		return false, errors.Storage("load person for invite", err)
	}

	if person.Role != model.PersonRoleStaff || person.Invite != nil {
		return false, nil
	}

	if _, err := i.issue(ctx, person); err != nil {
		return false, err
	}
	return true, nil
}

// Reissue replaces any outstanding invite with a new one. Only persons who
// have not yet activated their account can be re-invited.
func (i *Issuer) Reissue(ctx context.Context, personID uuid.UUID) (*model.InviteState, error) {
	person, err := i.persons.Get(ctx, personID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("staff member", err)
		}
		return nil, errors.Storage("load person for invite", err)
	}
	if !person.Role.CanUsePortal() {
		return nil, errors.Validation("role", "only staff portal members can be invited")
	}
	if person.Status == model.PersonStatusActive {
		return nil, errors.Validation("status", "this staff member has already set up their account")
	}
	return i.issue(ctx, person)
}

func (i *Issuer) issue(ctx context.Context, person *model.Person) (*model.InviteState, error) {
	secret, fingerprint, err := i.codec.Issue()
	if err != nil {
		i.metrics.InviteFailures.WithLabelValues("token").Inc()
		return nil, errors.Internal(err)
	}
	expiresAt := i.now().UTC().Add(i.cfg.TTL)

	evt, err := model.NewOutboxEvent(model.EventPersonInvited, model.PersonInvitedPayload{
		PersonID:  person.ID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}

	// The invite must be stored before the link goes out.
	if err := i.persons.SetInvite(ctx, person.ID, fingerprint, expiresAt, evt); err != nil {
		i.metrics.InviteFailures.WithLabelValues("storage").Inc()
		return nil, errors.Storage("save invite", err)
	}
	i.metrics.InvitesIssued.Inc()

	link := BuildRedemptionURL(i.cfg.BaseURL, person.Email, secret)
	if err := i.notifier.SendStaffInvite(ctx, person, link, expiresAt); err != nil {
		// The invite stays redeemable and can be re-sent by hand.
		i.metrics.InviteFailures.WithLabelValues("notification").Inc()
		i.log.Error(err, "Failed to send staff invite", "person_id", person.ID.String())
	} else {
		i.log.Info("Staff invite sent", "person_id", person.ID.String(), "expires_at", expiresAt)
	}

	return &model.InviteState{Fingerprint: fingerprint, ExpiresAt: expiresAt}, nil
}
