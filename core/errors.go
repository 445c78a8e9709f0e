package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports missing or invalid input the user can correct.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return "validation failed"
	}
	return err.Err.Error()
}

// ConflictError reports a uniqueness violation (e.g. a duplicate email).
type ConflictError struct {
	Field string
	Msg   string
}

func NewConflictError(field, msg string) error {
	return &ConflictError{Field: field, Msg: msg}
}

func (err ConflictError) Error() string { return err.Msg }

// AuthError is deliberately generic: it never tells which credential was wrong.
type AuthError struct {
	Msg string
}

func NewAuthError(msg string) error {
	return &AuthError{Msg: msg}
}

func (err AuthError) Error() string { return err.Msg }

// NotFoundError reports an unknown quiz, enrollment, proof...
type NotFoundError struct {
	Resource string
	Msg      string
}

func NewNotFoundError(resource, msg string) error {
	return &NotFoundError{Resource: resource, Msg: msg}
}

func (err NotFoundError) Error() string {
	if err.Msg != "" {
		return err.Msg
	}
	return err.Resource + " not found"
}

// StorageError wraps a blob store failure.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func (err StorageError) Error() string {
	if err.Err == nil {
		return err.Op
	}
	return err.Op + ": " + err.Err.Error()
}

func (err StorageError) Unwrap() error { return err.Err }

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

func IsAuth(err error) bool {
	_, ok := errors.Cause(err).(*AuthError)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsStorage(err error) bool {
	var sErr *StorageError
	return errors.As(err, &sErr)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
