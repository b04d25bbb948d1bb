package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")                                     // 404
	ErrInvalidCredentials = errors.New("No active account found with the given credentials") // 401
	ErrUnauthorized       = errors.New("authentication credentials were not provided")       // 401
	ErrInvalidToken       = errors.New("token is invalid or expired")                        // 401
	ErrForbidden          = errors.New("access forbidden")                                   // 403
	ErrBusy               = errors.New("identifier reservation timed out, retry")            // 503

	// Profile update conflicts. The messages are part of the public contract.
	ErrUsernameTaken = errors.New("El nombre de usuario ya está en uso")
	ErrEmailTaken    = errors.New("El correo electrónico ya está en uso")
)

// Field-level messages shared by validation and uniqueness checks.
const (
	MsgRequired       = "This field is required."
	MsgInvalidEmail   = "Enter a valid email address."
	MsgEmailExists    = "user with this email already exists."
	MsgUsernameExists = "A user with that username already exists."
)

// MaxPasswordLength is the longest accepted password, in characters.
const MaxPasswordLength = 128

const MsgPasswordTooLong = "Ensure this field has no more than 128 characters."

const MsgInvalidUsername = "Enter a valid username. This value may contain only letters, " +
	"numbers, and @/./+/-/_ characters."

// ValidationError carries one or more messages per input field.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends msg to field.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Merge copies every message of other into e. A nil other is a no-op.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		e.Fields[field] = append(e.Fields[field], msgs...)
	}
}

// Empty reports whether no field errors were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Has reports whether field has at least one message.
func (e *ValidationError) Has(field string) bool {
	return e != nil && len(e.Fields[field]) > 0
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
