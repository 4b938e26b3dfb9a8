package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/scmportal/accounts-api/internal/core/domain"
)

// Services validate their own input so the rules hold for the CLI as well
// as for HTTP callers.
var validate = validator.New()

const (
	msgRequired = "This field is required."
	msgEmail    = "Enter a valid email address."
)

func msgMaxLen(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

func msgMinLen(n int) string {
	return fmt.Sprintf("Ensure this field has at least %d characters.", n)
}

// fieldChecks accumulates per-field errors into a domain.ValidationError.
type fieldChecks struct {
	errs domain.ValidationError
}

func (f *fieldChecks) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		f.errs.Add(field, msgRequired)
		return false
	}
	return true
}

func (f *fieldChecks) email(field, value string) {
	if !f.required(field, value) {
		return
	}
	if validate.Var(value, "email") != nil {
		f.errs.Add(field, msgEmail)
		return
	}
	f.maxLen(field, value, domain.UserEmailMaxLength)
}

func (f *fieldChecks) maxLen(field, value string, n int) {
	if validate.Var(value, fmt.Sprintf("max=%d", n)) != nil {
		f.errs.Add(field, msgMaxLen(n))
	}
}

func (f *fieldChecks) password(field, value string) {
	if !f.required(field, value) {
		return
	}
	if validate.Var(value, fmt.Sprintf("min=%d", domain.PasswordMinLength)) != nil {
		f.errs.Add(field, msgMinLen(domain.PasswordMinLength))
	}
}

func (f *fieldChecks) name(field, value string, max int) {
	if f.required(field, value) {
		f.maxLen(field, strings.TrimSpace(value), max)
	}
}

func (f *fieldChecks) err() error {
	if f.errs.Empty() {
		return nil
	}
	e := f.errs
	return &e
}
