package model

import (
	"errors"
	"strings"
	"time"
)

type PersonRole string

const (
	PersonRoleOwner PersonRole = "owner"
	PersonRoleAdmin PersonRole = "admin"
	PersonRoleStaff PersonRole = "staff"
)

// PortalRoles may sign in to the staff portal.
var PortalRoles = []PersonRole{PersonRoleOwner, PersonRoleAdmin, PersonRoleStaff}

func (r PersonRole) CanUsePortal() bool {
	for _, pr := range PortalRoles {
		if r == pr {
			return true
		}
	}
	return false
}

type PersonStatus string

const (
	PersonStatusPending   PersonStatus = "pending"
	PersonStatusActive    PersonStatus = "active"
	PersonStatusOnLeave   PersonStatus = "on_leave"
	PersonStatusResigned  PersonStatus = "resigned"
	PersonStatusSuspended PersonStatus = "suspended"
)

// ErrInvitePairing is returned when a stored record has exactly one of the
// invite fingerprint and invite expiry set.
var ErrInvitePairing = errors.New("invite fingerprint and expiry must be set together")

// InviteState is present on a person only while an invite is outstanding.
type InviteState struct {
	Fingerprint string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewInviteState builds the invite state from nullable storage columns.
func NewInviteState(fingerprint *string, expiresAt *time.Time) (*InviteState, error) {
	hasFingerprint := fingerprint != nil && *fingerprint != ""
	hasExpiry := expiresAt != nil
	switch {
	case !hasFingerprint && !hasExpiry:
		return nil, nil
	case hasFingerprint != hasExpiry:
		return nil, ErrInvitePairing
	}
	return &InviteState{Fingerprint: *fingerprint, ExpiresAt: expiresAt.UTC()}, nil
}

// Expired reports whether the invite can no longer be redeemed at now.
func (s *InviteState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Person is a staff portal account holder.
type Person struct {
	Base
	FirstName     string       `json:"first_name"`
	MiddleName    string       `json:"middle_name,omitempty"`
	LastName      string       `json:"last_name"`
	NameSuffix    string       `json:"name_suffix,omitempty"`
	PreferredName string       `json:"preferred_name,omitempty"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone,omitempty"`
	Role          PersonRole   `json:"role"`
	Status        PersonStatus `json:"status"`
	AssignedCity  string       `json:"assigned_city,omitempty"`
	PhotoPath     *string      `json:"photo_path,omitempty"`
	Invite        *InviteState `json:"invite,omitempty"`
	Audit
}

// FullName joins the given names, skipping empty parts.
func (p *Person) FullName() string {
	return joinName(p.FirstName, p.MiddleName, p.LastName, p.NameSuffix)
}

// DisplayName prefers the preferred name over the first name.
func (p *Person) DisplayName() string {
	if p.PreferredName != "" {
		return p.PreferredName
	}
	return p.FirstName
}

func joinName(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PersonFilter represents staff list parameters
type PersonFilter struct {
	BaseFilter
	Role string `json:"role" form:"role"`
}

type CreatePersonRequest struct {
	FirstName     string `json:"first_name" binding:"required"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name" binding:"required"`
	NameSuffix    string `json:"name_suffix"`
	PreferredName string `json:"preferred_name"`
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone"`
	Role          string `json:"role" binding:"required,person_role"`
	Status        string `json:"status" binding:"omitempty,person_status"`
	AssignedCity  string `json:"assigned_city"`
}

type UpdatePersonRequest struct {
	FirstName     *string `json:"first_name"`
	MiddleName    *string `json:"middle_name"`
	LastName      *string `json:"last_name"`
	NameSuffix    *string `json:"name_suffix"`
	PreferredName *string `json:"preferred_name"`
	Email         *string `json:"email" binding:"omitempty,email"`
	Phone         *string `json:"phone"`
	Role          *string `json:"role" binding:"omitempty,person_role"`
	Status        *string `json:"status" binding:"omitempty,person_status"`
	AssignedCity  *string `json:"assigned_city"`
}
