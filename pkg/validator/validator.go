package validator

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance with the recording_source rule
// registered for request payloads carrying a capture origin.
func New() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("recording_source", validRecordingSource)
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

func validRecordingSource(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "in_person", "virtual_meeting", "phone_call", "dictation":
		return true
	}
	return false
}
