package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type DoctorStatus string

const (
	DoctorStatusPending   DoctorStatus = "pending"
	DoctorStatusActive    DoctorStatus = "active"
	DoctorStatusSuspended DoctorStatus = "suspended"
)

type DoctorTier string

const (
	DoctorTierRegular DoctorTier = "regular"
	DoctorTierPremium DoctorTier = "premium"
)

// DoctorClinic is a doctor's reference to a clinic record.
type DoctorClinic struct {
	ClinicID uuid.UUID `json:"clinic_id"`
	Name     string    `json:"name"`
	Contact  string    `json:"contact,omitempty"`
}

// DoctorClinics is stored as a JSONB array.
type DoctorClinics []DoctorClinic

func (c DoctorClinics) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

func (c *DoctorClinics) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*c = DoctorClinics{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for doctor clinics: %T", src)
	}
	return json.Unmarshal(data, c)
}

// Doctor is a directory listing for a physician.
type Doctor struct {
	Base
	FirstName            string         `json:"first_name" db:"first_name"`
	MiddleName           string         `json:"middle_name,omitempty" db:"middle_name"`
	LastName             string         `json:"last_name" db:"last_name"`
	NameSuffix           string         `json:"name_suffix,omitempty" db:"name_suffix"`
	Titles               string         `json:"titles,omitempty" db:"titles"`
	Specializations      pq.StringArray `json:"specializations" db:"specializations"`
	Phone                string         `json:"phone,omitempty" db:"phone"`
	Email                string         `json:"email,omitempty" db:"email"`
	Clinics              DoctorClinics  `json:"clinics" db:"clinics"`
	Tier                 DoctorTier     `json:"tier" db:"tier"`
	Status               DoctorStatus   `json:"status" db:"status"`
	CredentialPath       *string        `json:"credential_path,omitempty" db:"credential_path"`
	CredentialUploadedAt *time.Time     `json:"credential_uploaded_at,omitempty" db:"credential_uploaded_at"`
	CredentialExpiry     *string        `json:"credential_expiry,omitempty" db:"credential_expiry"`
	ProfilePicPath       *string        `json:"profile_pic_path,omitempty" db:"profile_pic_path"`
	ProfilePicUploadedAt *time.Time     `json:"profile_pic_uploaded_at,omitempty" db:"profile_pic_uploaded_at"`
	Consent              bool           `json:"consent" db:"consent"`
	Audit
}

func (d *Doctor) FullName() string {
	return joinName(d.FirstName, d.MiddleName, d.LastName, d.NameSuffix)
}

// HasContact reports whether the doctor can be reached by phone, email or a
// clinic-specific contact.
func (d *Doctor) HasContact() bool {
	if d.Phone != "" || d.Email != "" {
		return true
	}
	for _, c := range d.Clinics {
		if c.Contact != "" {
			return true
		}
	}
	return false
}

// DoctorClinicInput is one clinic entry on a doctor form. ClinicID is set
// when the entry was picked from suggestions.
type DoctorClinicInput struct {
	ClinicID       string `json:"clinic_id"`
	Name           string `json:"name"`
	BuildingStreet string `json:"building_street"`
	City           string `json:"city"`
	Province       string `json:"province"`
	Type           string `json:"type" binding:"omitempty,facility_type"`
	Contact        string `json:"contact"`
}

type DoctorRequest struct {
	FirstName        string              `json:"first_name"`
	MiddleName       string              `json:"middle_name"`
	LastName         string              `json:"last_name"`
	NameSuffix       string              `json:"name_suffix"`
	Titles           string              `json:"titles"`
	Specializations  []string            `json:"specializations"`
	Phone            string              `json:"phone"`
	Email            string              `json:"email" binding:"omitempty,email"`
	Clinics          []DoctorClinicInput `json:"clinics" binding:"dive"`
	Tier             string              `json:"tier" binding:"omitempty,oneof=regular premium"`
	Status           string              `json:"status" binding:"omitempty,doctor_status"`
	CredentialExpiry string              `json:"credential_expiry" binding:"omitempty,datetime=2006-01-02"`
}

// RegisterDoctorRequest is the public self-registration form.
type RegisterDoctorRequest struct {
	DoctorRequest
	Consent bool `json:"consent"`
}

type DoctorStatusRequest struct {
	Status string `json:"status" binding:"required,doctor_status"`
}

// DoctorFilter represents doctor list parameters
type DoctorFilter struct {
	BaseFilter
	Specialization string `json:"specialization" form:"specialization"`
}
