package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type Code int

const (
	Internal   Code = http.StatusInternalServerError
	NotFound   Code = http.StatusNotFound
	Forbidden  Code = http.StatusForbidden
	Validation Code = http.StatusBadRequest
)

// Reason describes why a request-query input was rejected
type Reason string

const (
	// Required is reported when a required value is missing or empty
	Required Reason = "required"
	// Type is reported when a value has the wrong type
	Type Reason = "type"
	// NotAllowed is reported when an operator or sort order is not in the allowed set
	NotAllowed Reason = "not_allowed"
	// Arity is reported when a list value has too few elements
	Arity Reason = "arity"
	// Range is reported when a number is out of bounds
	Range Reason = "range"
	// Syntax is reported when an encoded value cannot be decoded
	Syntax Reason = "syntax"
)

// Error is a custom error
type Error struct {
	Code     Code     `json:"code"`
	Field    string   `json:"field,omitempty"`
	Reason   Reason   `json:"reason,omitempty"`
	Messages []string `json:"messages"`
	Err      error    `json:"err,omitempty"`
}

// Error returns the Error as a json string
func (e *Error) Error() string {
	if e.Code == 0 {
		e.Code = http.StatusOK
	}
	bits, _ := json.Marshal(e)
	return string(bits)
}

// Unwrap returns the wrapped error if one exists
func (e *Error) Unwrap() error {
	return e.Err
}

// RemoveError removes the error from the Error and leaves it's messages and code
func (e *Error) RemoveError() *Error {
	return &Error{
		Code:     e.Code,
		Field:    e.Field,
		Reason:   e.Reason,
		Messages: e.Messages,
		Err:      nil,
	}
}

// New creates a new error with the given code and message
func New(code Code, msg string, args ...any) error {
	return &Error{
		Code:     code,
		Messages: []string{fmt.Sprintf(msg, args...)},
	}
}

// Invalid creates a validation error for the given field
func Invalid(field string, reason Reason, msg string, args ...any) error {
	return &Error{
		Code:     Validation,
		Field:    field,
		Reason:   reason,
		Messages: []string{fmt.Sprintf(msg, args...)},
	}
}

// Extract extracts the custom Error from the given error
func Extract(err error) *Error {
	e, ok := err.(*Error)
	if !ok {
		return &Error{
			Code:     0,
			Messages: nil,
			Err:      err,
		}
	}
	return e
}

// IsValidation returns true if the error is a request-query validation error
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	return Extract(err).Code == Validation
}

// Wraps the given error and returns a new one
func Wrap(err error, code Code, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	e, ok := err.(*Error)
	if ok {
		if msg != "" {
			e.Messages = append(e.Messages, fmt.Sprintf(msg, args...))
		}
		if code > 0 {
			e.Code = code
		}
		return e
	} else {
		e = &Error{
			Code: code,
			Err:  err,
		}
		if msg != "" {
			e.Messages = append(e.Messages, fmt.Sprintf(msg, args...))
		}
		return e
	}
}
