package model

type FacilityType string

const (
	FacilityClinic     FacilityType = "clinic"
	FacilityLaboratory FacilityType = "laboratory"
	FacilityHospital   FacilityType = "hospital"
)

func (f FacilityType) Valid() bool {
	switch f {
	case FacilityClinic, FacilityLaboratory, FacilityHospital:
		return true
	}
	return false
}

// Defaults applied to clinics created without an address.
const (
	DefaultCity     = "Naga City"
	DefaultProvince = "Camarines Sur"
)

// Clinic is a facility that doctors practice in. NameKey is the normalized
// name and is unique.
type Clinic struct {
	Base
	Name           string       `json:"name" db:"name"`
	NameKey        string       `json:"name_key" db:"name_key"`
	BuildingStreet string       `json:"building_street,omitempty" db:"building_street"`
	City           string       `json:"city" db:"city"`
	Province       string       `json:"province" db:"province"`
	Contact        string       `json:"contact,omitempty" db:"contact"`
	Type           FacilityType `json:"type" db:"type"`
}

// ClinicSuggestion is an autocomplete entry.
type ClinicSuggestion struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	BuildingStreet string       `json:"building_street,omitempty"`
	City           string       `json:"city,omitempty"`
	Province       string       `json:"province,omitempty"`
	Contact        string       `json:"contact,omitempty"`
	Type           FacilityType `json:"type"`
}

type UpdateClinicRequest struct {
	Name           *string `json:"name"`
	BuildingStreet *string `json:"building_street"`
	City           *string `json:"city"`
	Province       *string `json:"province"`
	Contact        *string `json:"contact"`
	Type           *string `json:"type" binding:"omitempty,facility_type"`
}

// ClinicFilter represents clinic list parameters
type ClinicFilter struct {
	BaseFilter
	Type string `json:"type" form:"type"`
}
