package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Stable error codes surfaced to API consumers. Callers branch on these, so
// they must never change meaning.
const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeConflict           = "CONFLICT"
	CodeAlreadyActive      = "ALREADY_ACTIVE"
	CodeAlreadyRemoved     = "ALREADY_REMOVED"
	CodeDuplicateActive    = "DUPLICATE_ACTIVE_MEMBERSHIP"
	CodeCooldownNotElapsed = "COOLDOWN_NOT_ELAPSED"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewInvalidTransition names the status an operation was attempted from so an
// operator can correct and resubmit.
func NewInvalidTransition(operation, currentStatus string) error {
	return NewDomainError(
		CodeInvalidTransition,
		fmt.Sprintf("cannot %s a record in status %s", operation, currentStatus),
		http.StatusConflict,
		map[string]any{"operation": operation, "current_status": currentStatus},
	)
}

func NewAlreadyActive(personID string) error {
	return NewDomainError(
		CodeAlreadyActive,
		"person already has an active membership",
		http.StatusConflict,
		map[string]any{"person_id": personID},
	)
}

func NewAlreadyRemoved(recordID string) error {
	return NewDomainError(
		CodeAlreadyRemoved,
		"membership record is already removed",
		http.StatusConflict,
		map[string]any{"record_id": recordID},
	)
}

func NewDuplicateActiveMembership(personID, activeRecordID string) error {
	return NewDomainError(
		CodeDuplicateActive,
		"another active membership already exists for this person",
		http.StatusConflict,
		map[string]any{"person_id": personID, "active_record_id": activeRecordID},
	)
}

func NewCooldownNotElapsed(details map[string]any) error {
	return NewDomainError(
		CodeCooldownNotElapsed,
		"reapplication cooldown has not elapsed",
		http.StatusUnprocessableEntity,
		details,
	)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
