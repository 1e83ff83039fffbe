package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Offset returns the row offset for the page, treating page 0 as page 1.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// BaseFilter contains common filter fields
type BaseFilter struct {
	Search string `json:"search" form:"search"`
	Status string `json:"status" form:"status"`
	City   string `json:"city" form:"city"`
	Pagination
}

// Actor identifies the staff member performing a write.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SystemActor is recorded for writes that no signed-in staff member made,
// such as public self-registration.
var SystemActor = Actor{Name: "System"}

// Audit holds who created and last updated a record.
type Audit struct {
	CreatedBy     *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedByName string     `json:"created_by_name,omitempty" db:"created_by_name"`
	UpdatedBy     *uuid.UUID `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedByName string     `json:"updated_by_name,omitempty" db:"updated_by_name"`
}

func (a *Audit) SetCreated(actor Actor) {
	a.CreatedByName = actor.Name
	if actor.ID != uuid.Nil {
		id := actor.ID
		a.CreatedBy = &id
	}
}

func (a *Audit) SetUpdated(actor Actor) {
	a.UpdatedByName = actor.Name
	if actor.ID != uuid.Nil {
		id := actor.ID
		a.UpdatedBy = &id
	}
}
