// Package event reacts to committed outbox events inside the worker.
package event

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/worker"
)

// InviteIssuer is satisfied by invite.Issuer.
type InviteIssuer interface {
	Issue(ctx context.Context, personID uuid.UUID) (bool, error)
}

// DoctorNotifier is satisfied by notification.Service.
type DoctorNotifier interface {
	SendDoctorVerified(ctx context.Context, doctor *model.Doctor) error
}

// Dispatcher routes outbox events to their handlers. Event types without a
// handler are accepted as-is and only fanned out to subscribers.
type Dispatcher struct {
	issuer   InviteIssuer
	doctors  repository.DoctorRepository
	notifier DoctorNotifier
	log      *logger.Logger
	handlers map[string]worker.EventHandlerFunc
}

func NewDispatcher(issuer InviteIssuer, doctors repository.DoctorRepository, notifier DoctorNotifier, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{
		issuer:   issuer,
		doctors:  doctors,
		notifier: notifier,
		log:      log,
	}
	d.handlers = map[string]worker.EventHandlerFunc{
		model.EventPersonCreated:       d.onPersonCreated,
		model.EventDoctorStatusChanged: d.onDoctorStatusChanged,
	}
	return d
}

func (d *Dispatcher) Handle(ctx context.Context, event *model.OutboxEvent) error {
	h, ok := d.handlers[event.EventType]
	if !ok {
		return nil
	}
	return h(ctx, event)
}

func decode(event *model.OutboxEvent, v interface{}) error {
	if err := json.Unmarshal(event.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.EventType, err)
	}
	return nil
}

func (d *Dispatcher) onPersonCreated(ctx context.Context, event *model.OutboxEvent) error {
	var p model.PersonCreatedPayload
	if err := decode(event, &p); err != nil {
		return err
	}
	if p.Role != model.PersonRoleStaff {
		return nil
	}
	_, err := d.issuer.Issue(ctx, p.PersonID)
	return err
}

// onDoctorStatusChanged sends the verified email. Mail failures are logged
// and do not fail the event.
func (d *Dispatcher) onDoctorStatusChanged(ctx context.Context, event *model.OutboxEvent) error {
	var p model.DoctorStatusChangedPayload
	if err := decode(event, &p); err != nil {
		return err
	}
	if !p.Verified() {
		return nil
	}

	doctor, err := d.doctors.Get(ctx, p.DoctorID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			d.log.Warn("Verified doctor no longer exists", "doctor_id", p.DoctorID.String())
			return nil
		}
		return fmt.Errorf("failed to load doctor: %w", err)
	}

	if err := d.notifier.SendDoctorVerified(ctx, doctor); err != nil {
		d.log.Error(err, "Failed to send doctor verified email", "doctor_id", doctor.ID.String())
	}
	return nil
}
