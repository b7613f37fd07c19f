package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	aadharPattern = regexp.MustCompile(`^\d{12}$`)
	gstinPattern  = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}[Z]{1}[0-9A-Z]{1}$`)
	mobilePattern = regexp.MustCompile(`^(\+?\d{1,4}[-.\s]?)?\d{10}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "aadhar", matches(aadharPattern))
	mustRegister(v, "gstin", matches(gstinPattern))
	mustRegister(v, "mobile", matches(mobilePattern))
	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// IsStrongPassword requires a lowercase letter, an uppercase letter, a digit and one of !@#$%^&*.
func IsStrongPassword(s string) bool {
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("!@#$%^&*", r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// ValidateAndDecode decodes the JSON body into payload and validates it.
func ValidateAndDecode(r *http.Request, payload interface{}) *AppError {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		return NewAppError(http.StatusBadRequest, "Invalid request body", err)
	}
	return Validate(payload)
}

// Validate runs struct validation and maps failures to a 400 AppError.
func Validate(payload interface{}) *AppError {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fieldMessage(fe.Field(), fe))
	}
	return NewValidationError(messages[0], messages)
}

// ValidateField checks a single value against tag, reporting failures under name.
func ValidateField(name, value, tag string) *AppError {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	}
	message := fieldMessage(name, validationErrors[0])
	return NewValidationError(message, []string{message})
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required.", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", field)
	case "strongpassword":
		return "Password must contain at least one lowercase letter, one uppercase letter, one digit, and one special character (!@#$%^&*)."
	case "aadhar":
		return "Invalid Aadhaar Number."
	case "gstin":
		return "GST Number is invalid."
	case "mobile":
		return "Invalid Phone Number. It should include a valid country code or a 10-digit number."
	case "min", "max", "len":
		return fmt.Sprintf("%s must satisfy %s=%s.", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s).", field, fe.Tag())
	}
}
