package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

// Request locations a field can come from
const (
	LocationBody   = "body"
	LocationQuery  = "query"
	LocationParams = "params"
)

// FieldError describes one failed rule. The JSON shape is the one the
// dashboard already renders: {type, value, msg, path, location}.
type FieldError struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// Errors is the ordered list of failed rules for one request
type Errors []FieldError

// Error implements error
func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation passed"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fmt.Sprintf("%s: %s", fe.Path, fe.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator accumulates field errors for one request location. Every rule
// runs; failures are reported in the order the rules were applied.
type Validator struct {
	location string
	errs     Errors
}

// NewValidator creates a validator for fields read from location
func NewValidator(location string) *Validator {
	if location == "" {
		location = LocationBody
	}
	return &Validator{location: location}
}

// Check records msg against path unless ok holds
func (v *Validator) Check(ok bool, path, value, msg string) *Validator {
	if !ok {
		v.errs = append(v.errs, FieldError{
			Type:     "field",
			Value:    value,
			Msg:      msg,
			Path:     path,
			Location: v.location,
		})
	}
	return v
}

// NotEmpty requires a non-empty value
func (v *Validator) NotEmpty(path, value, msg string) *Validator {
	return v.Check(value != "", path, value, msg)
}

// Email requires a bare address of the form local@domain.tld
func (v *Validator) Email(path, value, msg string) *Validator {
	return v.Check(IsEmail(value), path, value, msg)
}

// Valid reports whether every rule passed
func (v *Validator) Valid() bool {
	return len(v.errs) == 0
}

// Errors returns the failures recorded so far
func (v *Validator) Errors() Errors {
	return v.errs
}

// Err returns the failures as an error, or nil when valid
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return v.errs
}

// IsEmail reports whether s is a plain mailbox address with a dotted domain.
// Display names ("Bob <bob@example.com>") are rejected.
func IsEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}

	at := strings.LastIndex(s, "@")
	domain := s[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return false
		}
	}
	return true
}
