package service

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/spec-kit/agency-admin/pkg/util"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	readTimePattern = regexp.MustCompile(`^\d+ min$`)
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type validator struct {
	errs []ValidationError
}

func (v *validator) add(field, message string) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: message})
}

func (v *validator) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
		return false
	}
	return true
}

func (v *validator) length(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case min > 0 && n < min:
		v.add(field, fmt.Sprintf("must have at least %d characters", min))
	case max > 0 && n > max:
		v.add(field, fmt.Sprintf("must not exceed %d characters", max))
	}
}

func (v *validator) email(field, value string) {
	if !v.required(field, value) {
		return
	}
	if !isValidEmail(value) {
		v.add(field, "is invalid")
	}
}

func (v *validator) url(field, value string) {
	if value == "" {
		return
	}
	if !isValidURL(value) {
		v.add(field, "must be a valid URL")
	}
}

// err converts collected failures into a VALIDATION_FAILED domain error.
func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	fields := make(map[string]any, len(v.errs))
	for _, e := range v.errs {
		if _, exists := fields[e.Field]; !exists {
			fields[e.Field] = e.Message
		}
	}
	return apperrors.NewValidationError("invalid payload", map[string]any{"fields": fields})
}

func isValidEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}

func isValidURL(value string) bool {
	u, err := url.ParseRequestURI(value)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// isStrongPassword requires upper and lower case letters and a digit.
func isStrongPassword(pw string) bool {
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func (v *validator) password(field, value string) {
	if !v.required(field, value) {
		return
	}
	v.length(field, value, 8, 100)
	if !isStrongPassword(value) {
		v.add(field, "must contain upper case, lower case and numbers")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// optional trims s and returns nil when empty.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
