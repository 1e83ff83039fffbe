package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusProcessed  OutboxStatus = "PROCESSED"
	OutboxStatusFailed     OutboxStatus = "FAILED"
)

// Outbox event types
const (
	EventPersonCreated       = "person.created"
	EventPersonInvited       = "person.invited"
	EventPersonActivated     = "person.activated"
	EventDoctorStatusChanged = "doctor.status_changed"
	EventClinicCreated       = "clinic.created"
)

// OutboxEvent is written in the same transaction as the change it describes.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// NewOutboxEvent marshals payload into a pending event.
func NewOutboxEvent(eventType string, payload interface{}) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   data,
		Status:    OutboxStatusPending,
	}, nil
}

type PersonCreatedPayload struct {
	PersonID uuid.UUID  `json:"person_id"`
	Email    string     `json:"email"`
	Role     PersonRole `json:"role"`
}

// PersonInvitedPayload carries no secret material.
type PersonInvitedPayload struct {
	PersonID  uuid.UUID `json:"person_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PersonActivatedPayload struct {
	PersonID uuid.UUID `json:"person_id"`
}

// DoctorStatusChangedPayload has an empty Before when the doctor was created.
type DoctorStatusChangedPayload struct {
	DoctorID uuid.UUID    `json:"doctor_id"`
	Before   DoctorStatus `json:"before"`
	After    DoctorStatus `json:"after"`
}

// Verified reports a transition of an existing doctor into active. Doctors
// created directly as active were never pending and are not verified.
func (p DoctorStatusChangedPayload) Verified() bool {
	return p.Before != "" && p.Before != DoctorStatusActive && p.After == DoctorStatusActive
}

type ClinicCreatedPayload struct {
	ClinicID uuid.UUID `json:"clinic_id"`
	Name     string    `json:"name"`
}
