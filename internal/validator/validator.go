package validator

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	ierr "iva-service/internal/errors"
)

var (
	once     sync.Once
	validate *validator.Validate

	periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// GetValidator returns the shared validator with the custom tags registered
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("period", func(fl validator.FieldLevel) bool {
			return periodPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidateRequest checks req against its struct tags and returns a
// validation error naming every failing field.
func ValidateRequest(req interface{}) error {
	if err := GetValidator().Struct(req); err != nil {
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) && len(validateErrs) > 0 {
			first := validateErrs[0]
			return ierr.Mark(
				ierr.Newf("field %s failed on %s (%d problems)", first.Field(), first.Tag(), len(validateErrs)),
				ierr.ErrValidation,
			)
		}
		return ierr.Mark(ierr.Wrap(err, "request validation failed"), ierr.ErrValidation)
	}
	return nil
}

// IsPeriod reports whether s is a YYYY-MM period
func IsPeriod(s string) bool {
	return periodPattern.MatchString(s)
}
