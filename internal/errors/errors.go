package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Error kinds. Wrap a cause with Mark(err, ErrX) and test with errors.Is.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrAlreadyExists    = errors.New("resource already exists")
	ErrValidation       = errors.New("validation error")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrDatabase         = errors.New("database error")

	statusCodeMap = map[error]int{
		ErrNotFound:         http.StatusNotFound,
		ErrAlreadyExists:    http.StatusConflict,
		ErrValidation:       http.StatusBadRequest,
		ErrInvalidOperation: http.StatusUnprocessableEntity,
		ErrDatabase:         http.StatusInternalServerError,
	}
)

// New returns a fresh error with a stack trace
func New(msg string) error {
	return errors.New(msg)
}

// Newf returns a formatted error with a stack trace
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// Wrap annotates err with msg, keeping its kind
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapf annotates err with a formatted message, keeping its kind
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Mark tags err with kind so errors.Is(err, kind) holds
func Mark(err error, kind error) error {
	return errors.Mark(err, kind)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// HTTPStatusFromErr maps an error kind to the status the API answers with
func HTTPStatusFromErr(err error) int {
	for kind, status := range statusCodeMap {
		if errors.Is(err, kind) {
			return status
		}
	}
	return http.StatusInternalServerError
}
