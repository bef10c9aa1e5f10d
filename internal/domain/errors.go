package domain

import (
	"errors"
	"strings"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("domain: not found")
	ErrConflict     = errors.New("domain: conflict")
	ErrUnauthorized = errors.New("domain: unauthorized")
	ErrForbidden    = errors.New("domain: forbidden")
	ErrValidation   = errors.New("domain: validation failed")
)

// Validation messages shared by Company and User.
const (
	MsgBlank         = "can't be blank"
	MsgTaken         = "has already been taken"
	MsgTakenInTenant = "already exists in this company"
	MsgInvalid       = "is invalid"
	MsgSubdomainChar = "only lowercase letters, numbers, and hyphens allowed"
	MsgNotInList     = "is not included in the list"
)

// ValidationError collects field-level messages. Fields keep the order in
// which their first message was added.
type ValidationError struct {
	fields   []string
	messages map[string][]string
}

// NewValidationError returns a ValidationError holding a single message.
func NewValidationError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, msg)
	return e
}

func (e *ValidationError) Add(field, msg string) {
	if e.messages == nil {
		e.messages = make(map[string][]string)
	}
	if _, ok := e.messages[field]; !ok {
		e.fields = append(e.fields, field)
	}
	e.messages[field] = append(e.messages[field], msg)
}

// Fields returns the names of all fields with at least one message.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Messages returns the messages recorded for field.
func (e *ValidationError) Messages(field string) []string {
	return e.messages[field]
}

func (e *ValidationError) Empty() bool {
	return len(e.fields) == 0
}

// OrNil returns nil when no messages were added, so callers can
// `return verr.OrNil()` without a typed-nil interface.
func (e *ValidationError) OrNil() error {
	if e == nil || e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, f := range e.fields {
		for j, m := range e.messages[f] {
			if i > 0 || j > 0 {
				b.WriteString("; ")
			}
			b.WriteString(f)
			b.WriteByte(' ')
			b.WriteString(m)
		}
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError reports a write or lookup the store could not complete.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
