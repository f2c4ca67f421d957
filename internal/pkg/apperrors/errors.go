package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrAuthorization  ErrorType = "AUTHORIZATION_ERROR"
	ErrState          ErrorType = "STATE_ERROR"
	ErrParameter      ErrorType = "PARAMETER_ERROR"
	ErrContractRevert ErrorType = "CONTRACT_REVERT"
	ErrInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrNotFound       ErrorType = "NOT_FOUND"
	ErrRateLimited    ErrorType = "RATE_LIMITED"
	ErrUpstream       ErrorType = "UPSTREAM_ERROR"
	ErrReadOnly       ErrorType = "READ_ONLY"
	ErrInternal       ErrorType = "INTERNAL_ERROR"
)

// Stable rejection reasons. They are part of the protocol's observable
// contract and must never be reworded.
const (
	ReasonSignerNotOwner       = "signer-not-owner"
	ReasonContractNotApproved  = "contract-not-approved"
	ReasonOfferDoesNotExist    = "offer-does-not-exist"
	ReasonOfferRevoked         = "offer-revoked"
	ReasonOfferExpired         = "offer-expired"
	ReasonExpiresTooLow        = "expires-too-low"
	ReasonExpiresNotSupported  = "expires-not-supported"
	ReasonInvalidTokenID       = "invalid-token-id"
	ReasonContractNotFound     = "contract-not-found"
	ReasonOperationUnsupported = "operation-not-supported"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Reason     string    `json:"reason,omitempty"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and reason so callers can compare against the
// package-level constructors, e.g. errors.Is(err, apperrors.State(ReasonOfferRevoked)).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Reason == t.Reason
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func newReason(errType ErrorType, reason string) *AppError {
	e := New(errType, reason, nil)
	e.Reason = reason
	return e
}

// Authorization reports a signer/ownership or approval mismatch.
func Authorization(reason string) *AppError {
	return newReason(ErrAuthorization, reason)
}

// State reports a registry lifecycle precondition violation.
func State(reason string) *AppError {
	return newReason(ErrState, reason)
}

// Parameter reports a caller-supplied value outside protocol bounds.
func Parameter(reason string) *AppError {
	return newReason(ErrParameter, reason)
}

// Revert reports a failure raised by a token contract.
func Revert(reason string) *AppError {
	return newReason(ErrContractRevert, reason)
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func NewNotFound(msg string) *AppError {
	return New(ErrNotFound, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// ReasonOf returns the machine-readable reason carried by err, or "" when
// err is not a reasoned AppError.
func ReasonOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return ""
}

// TypeOf returns the error class of err; unknown errors are internal.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrInternal
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrParameter, ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrAuthorization:
		return http.StatusForbidden
	case ErrState:
		return http.StatusConflict
	case ErrContractRevert:
		return http.StatusUnprocessableEntity
	case ErrNotFound:
		return http.StatusNotFound
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrUpstream:
		return http.StatusBadGateway
	case ErrReadOnly:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrAuthorization:
		return "Check token ownership and that the escrow is approved for the token."
	case ErrState:
		return "Re-read the offer state before resubmitting."
	case ErrParameter:
		return "Correct the offer parameters and sign again."
	case ErrRateLimited:
		return "Retry after a short delay."
	case ErrReadOnly:
		return "The gateway is in read-only mode; only views are served."
	default:
		return ""
	}
}
