// Package validator registers the domain tags on go-playground/validator
// and turns binding failures into AppErrors.
package validator

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
)

var messages = map[string]string{
	"required":      "is required",
	"email":         "must be a valid email",
	"min":           "is too short",
	"max":           "is too long",
	"eqfield":       "does not match",
	"oneof":         "has an unsupported value",
	"datetime":      "must be a date in YYYY-MM-DD format",
	"person_role":   "must be one of owner, admin, staff",
	"person_status": "must be one of pending, active, on_leave, resigned, suspended",
	"doctor_status": "must be one of pending, active, suspended",
	"facility_type": "must be one of clinic, laboratory, hospital",
}

func stringIn(allowed ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, a := range allowed {
			if v == a {
				return true
			}
		}
		return false
	}
}

// Register adds the domain tags to v and reports fields by their json name.
func Register(v *validator.Validate) error {
	tags := map[string]validator.Func{
		"person_role": stringIn(
			string(model.PersonRoleOwner), string(model.PersonRoleAdmin), string(model.PersonRoleStaff)),
		"person_status": stringIn(
			string(model.PersonStatusPending), string(model.PersonStatusActive), string(model.PersonStatusOnLeave),
			string(model.PersonStatusResigned), string(model.PersonStatusSuspended)),
		"doctor_status": stringIn(
			string(model.DoctorStatusPending), string(model.DoctorStatusActive), string(model.DoctorStatusSuspended)),
		"facility_type": func(fl validator.FieldLevel) bool {
			return model.FacilityType(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", tag, err)
		}
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return nil
}

// RegisterGin installs the domain tags on gin's binding engine.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

// Translate converts a binding error into an AppError. The first failing
// field is reported.
func Translate(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		msg, ok := messages[e.Tag()]
		if !ok {
			msg = "is invalid"
		}
		return errors.Validation(e.Field(), e.Field()+" "+msg)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &typeErr):
		return errors.Validation(typeErr.Field, typeErr.Field+" has the wrong type")
	case stderrors.As(err, &syntaxErr):
		return errors.BadRequest("malformed JSON body", err)
	}
	return errors.BadRequest("invalid request", err)
}
