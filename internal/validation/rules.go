// Package validation checks decoded JSON request bodies against declarative
// per-field rules.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"task_tracker/internal/apierror"
)

// Type is the runtime type a field value must have.
type Type string

const (
	TypeString  Type = "string"
	TypeBoolean Type = "boolean"
	TypeNumber  Type = "number"
	TypeEmail   Type = "email"
)

// Rule describes the constraints on one body field. Zero MinLength and
// MaxLength mean no bound.
type Rule struct {
	Field     string
	Required  bool
	Type      Type
	MinLength int
	MaxLength int
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail reports whether s looks like an email address. Case is ignored.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.ToLower(s))
}

// Validate runs every rule against body and returns all failures in rule order.
func Validate(rules []Rule, body map[string]any) []apierror.FieldError {
	var errs []apierror.FieldError
	for _, rule := range rules {
		errs = append(errs, rule.check(body[rule.Field])...)
	}
	return errs
}

func (r Rule) check(value any) []apierror.FieldError {
	if isEmpty(value) {
		if r.Required {
			return []apierror.FieldError{r.fail("%s is required", r.Field)}
		}
		return nil
	}

	var errs []apierror.FieldError
	if r.Type != "" && !r.Type.matches(value) {
		errs = append(errs, r.fail("%s", r.Type.message(r.Field)))
	}

	if s, ok := value.(string); ok {
		n := utf8.RuneCountInString(s)
		if r.MinLength > 0 && n < r.MinLength {
			errs = append(errs, r.fail("%s must be at least %d characters", r.Field, r.MinLength))
		}
		if r.MaxLength > 0 && n > r.MaxLength {
			errs = append(errs, r.fail("%s must be no more than %d characters", r.Field, r.MaxLength))
		}
	}
	return errs
}

func (r Rule) fail(format string, args ...any) apierror.FieldError {
	return apierror.FieldError{Field: r.Field, Message: fmt.Sprintf(format, args...)}
}

func (t Type) matches(value any) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeNumber:
		switch value.(type) {
		case float64, float32, int, int64, int32:
			return true
		}
		return false
	case TypeEmail:
		s, ok := value.(string)
		return ok && IsEmail(s)
	}
	return true
}

func (t Type) message(field string) string {
	switch t {
	case TypeEmail:
		return field + " must be a valid email address"
	case TypeBoolean:
		return field + " must be a boolean"
	default:
		return field + " must be a " + string(t)
	}
}

// isEmpty treats absent, null and the empty string alike.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}
