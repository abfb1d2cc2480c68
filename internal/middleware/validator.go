package middleware

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
)

// Input validation and sanitization utilities

const MinPasswordLength = 8

// ValidationError carries every problem found in one request body.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// Validator collects problems; Err returns nil when there are none.
type Validator struct {
	errs []string
}

func (v *Validator) Check(ok bool, format string, args ...any) {
	if !ok {
		v.errs = append(v.errs, fmt.Sprintf(format, args...))
	}
}

func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errs}
}

// ValidEmail accepts a bare address (no display name).
func ValidEmail(email string) bool {
	a, err := mail.ParseAddress(email)
	return err == nil && a.Address == email
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateRegistration checks the register body.
func ValidateRegistration(email, password, firstName, lastName, org string) error {
	var v Validator
	v.Check(ValidEmail(email), "valid email is required")
	v.Check(len(password) >= MinPasswordLength, "password must be at least %d characters", MinPasswordLength)
	v.Check(firstName != "", "firstName is required")
	v.Check(lastName != "", "lastName is required")
	v.Check(org != "", "organizationName is required")
	return v.Err()
}

// ValidateInvite checks the invitation body. Empty role means viewer.
func ValidateInvite(email string, role identity.Role) error {
	var v Validator
	v.Check(ValidEmail(email), "valid email is required")
	v.Check(role == "" || identity.ValidRole(role), "role must be one of admin, auditor, viewer")
	return v.Err()
}

// ValidateUserPatch rejects unknown roles.
func ValidateUserPatch(p identity.UserPatch) error {
	var v Validator
	v.Check(p.Role == nil || identity.ValidRole(*p.Role), "role must be one of admin, auditor, viewer")
	return v.Err()
}

// ValidID reports whether s is a uuid; report and user ids are uuids.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
