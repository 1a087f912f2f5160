package application

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
)

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// ApplicationValidator checks a RestaurantApplication before it is submitted.
type ApplicationValidator struct {
	validate *validator.Validate
}

// NewApplicationValidator registers the custom format tags used by the application model.
func NewApplicationValidator() *ApplicationValidator {
	v := validator.New()
	_ = v.RegisterValidation("phone10", validatePhone)
	_ = v.RegisterValidation("zip5", validateZip)
	_ = v.RegisterValidation("hhmm", validateClock)
	v.RegisterStructValidation(validateDayHours, domain.DayHours{})
	return &ApplicationValidator{validate: v}
}

// Validate returns a *ValidationError listing every failing field, or nil.
func (v *ApplicationValidator) Validate(app domain.RestaurantApplication) error {
	err := v.validate.Struct(app)
	if err == nil {
		return nil
	}
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	fields := make(map[string]string, len(valErrs))
	for _, fe := range valErrs {
		path := fieldPath(fe.Namespace())
		if _, seen := fields[path]; seen {
			continue
		}
		fields[path] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

// NormalizePhone strips formatting characters from a phone number.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validatePhone(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	for _, r := range raw {
		if !unicode.IsDigit(r) && !strings.ContainsRune(" ()-.+", r) {
			return false
		}
	}
	digits := NormalizePhone(raw)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return len(digits) == 10
}

func validateZip(fl validator.FieldLevel) bool {
	return zipPattern.MatchString(fl.Field().String())
}

func validateClock(fl validator.FieldLevel) bool {
	return domain.ClockPattern.MatchString(fl.Field().String())
}

func validateDayHours(sl validator.StructLevel) {
	day := sl.Current().Interface().(domain.DayHours)
	if day.Closed {
		return
	}
	if day.Open == "" {
		sl.ReportError(day.Open, "Open", "Open", "required", "")
	}
	if day.Close == "" {
		sl.ReportError(day.Close, "Close", "Close", "required", "")
	}
	open, errOpen := domain.ParseClock(day.Open)
	closing, errClose := domain.ParseClock(day.Close)
	if errOpen != nil || errClose != nil {
		return
	}
	if closing <= open {
		sl.ReportError(day.Close, "Close", "Close", "after_open", day.Open)
	}
}

// fieldPath turns "RestaurantApplication.Contact.Email" into "contact.email".
func fieldPath(namespace string) string {
	segments := strings.Split(namespace, ".")
	if len(segments) > 1 {
		segments = segments[1:]
	}
	for i, seg := range segments {
		segments[i] = lowerFirst(seg)
	}
	return strings.Join(segments, ".")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "phone10":
		return "must be a 10-digit phone number"
	case "zip5":
		return "must be a 5-digit ZIP code"
	case "hhmm":
		return "must be a time in HH:MM format"
	case "after_open":
		return fmt.Sprintf("must be later than opening time %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
