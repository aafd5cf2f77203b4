package dto

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"customer-registry/internal/domain/customer"
	"customer-registry/internal/pkg/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var cpfPunctuation = strings.NewReplacer(".", "", "-", "")

// minimumAge is the number of full years a birth date must be strictly above.
const minimumAge = 0

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func payloadValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
			return IsValidCPF(fl.Field().String())
		})
		_ = v.RegisterValidation("birthdate", func(fl validator.FieldLevel) bool {
			return isValidBirthDate(fl.Field().String(), time.Now())
		})
		validate = v
	})
	return validate
}

// validateStruct runs the tag rules and reports every violation keyed by JSON field name.
func validateStruct(s any) error {
	err := payloadValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("", err.Error())
	}

	violations := make(apperrors.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, &apperrors.ValidationError{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return violations
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be blank"
	case "max":
		return "size must be at most " + fe.Param()
	case "email":
		return "must be a well-formed email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "cpf":
		return "must be a valid CPF"
	case "birthdate":
		return "must be a past yyyy-MM-dd date more than 0 years ago"
	default:
		return "is invalid"
	}
}

func isValidBirthDate(value string, now time.Time) bool {
	if value == "" {
		return true
	}
	date, err := time.Parse(customer.BirthDateLayout, value)
	if err != nil {
		return false
	}
	return fullYearsBetween(date, now) > minimumAge
}

// fullYearsBetween counts complete years elapsed from start to end, ignoring time of day.
func fullYearsBetween(start, end time.Time) int {
	years := end.Year() - start.Year()
	if end.Month() < start.Month() || (end.Month() == start.Month() && end.Day() < start.Day()) {
		years--
	}
	return years
}

// IsValidCPF checks length and both check digits of a Brazilian individual taxpayer number.
// Dots and dashes are ignored.
func IsValidCPF(value string) bool {
	stripped := cpfPunctuation.Replace(strings.TrimSpace(value))
	digits := onlyDigits(stripped)
	if len(digits) != 11 || len(stripped) != len(digits) {
		return false
	}

	allSame := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	return cpfCheckDigit(digits[:9]) == int(digits[9]-'0') &&
		cpfCheckDigit(digits[:10]) == int(digits[10]-'0')
}

func cpfCheckDigit(digits string) int {
	sum := 0
	weight := len(digits) + 1
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * weight
		weight--
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

// NormalizeDocumentNumber strips punctuation so the same CPF is always stored the same way.
func NormalizeDocumentNumber(value string) string {
	return onlyDigits(value)
}

func onlyDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
