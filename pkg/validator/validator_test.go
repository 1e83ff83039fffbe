package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
)

type sample struct {
	Role     string `json:"role" validate:"required,person_role"`
	Status   string `json:"status" validate:"omitempty,doctor_status"`
	Facility string `json:"type" validate:"omitempty,facility_type"`
}

func TestDomainTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	assert.NoError(t, v.Struct(sample{Role: "staff", Status: "pending", Facility: "hospital"}))

	tests := []struct {
		name  string
		in    sample
		field string
	}{
		{"missing role", sample{}, "role"},
		{"bad role", sample{Role: "doctor"}, "role"},
		{"bad status", sample{Role: "admin", Status: "verified"}, "status"},
		{"bad facility", sample{Role: "owner", Facility: "pharmacy"}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := Translate(v.Struct(tt.in))
			assert.Equal(t, errors.ErrValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestTranslateOtherErrors(t *testing.T) {
	appErr := Translate(assert.AnError)
	assert.Equal(t, errors.ErrBadRequest, appErr.Code)
}
