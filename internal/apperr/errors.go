// Package apperr defines the error taxonomy shared by the recorder, the
// visit store and the analytics service, and maps it onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in JSON error bodies.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeStorage         = "STORAGE_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrUnauthenticated is returned when a request carries no valid identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// ValidationError represents a missing or malformed required field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError represents a referenced resource that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AuthorizationError represents a caller acting on a resource it does not own.
type AuthorizationError struct {
	Resource string
	ID       string
	UserID   string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s does not own %s %s", e.UserID, e.Resource, e.ID)
}

// NewAuthorizationError creates a new AuthorizationError
func NewAuthorizationError(resource, id, userID string) *AuthorizationError {
	return &AuthorizationError{Resource: resource, ID: id, UserID: userID}
}

// StorageError wraps a failure of the underlying persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// UpstreamPartialFailure records that one site's visit fetch failed during a
// multi-site aggregation. It is recovered locally and never reaches clients.
type UpstreamPartialFailure struct {
	SiteID string
	Err    error
}

func (e *UpstreamPartialFailure) Error() string {
	return fmt.Sprintf("visit fetch failed for site %s: %v", e.SiteID, e.Err)
}

func (e *UpstreamPartialFailure) Unwrap() error {
	return e.Err
}

// HTTPStatusCode maps an error onto the status code surfaced to clients.
func HTTPStatusCode(err error) int {
	var validationErr *ValidationError
	var notFoundErr *NotFoundError
	var authzErr *AuthorizationError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &authzErr):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable code for an error.
func Code(err error) string {
	var storageErr *StorageError

	switch HTTPStatusCode(err) {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	}
	if errors.As(err, &storageErr) {
		return CodeStorage
	}
	return CodeInternal
}

// PublicMessage returns the message that is safe to show to a client.
// Storage and unclassified failures never leak their cause.
func PublicMessage(err error) string {
	var storageErr *StorageError

	switch HTTPStatusCode(err) {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusForbidden:
		return err.Error()
	case http.StatusUnauthorized:
		return "Unauthorized"
	}
	if errors.As(err, &storageErr) {
		return "Storage unavailable"
	}
	return "Internal server error"
}
