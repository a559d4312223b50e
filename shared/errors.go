package shared

import (
	"errors"
	"net/http"
)

// Error kinds surfaced to clients. A rejected submission always carries the
// specific kind so a bad token can never be mistaken for a wrong answer.
const (
	KindMalformedToken   = "MALFORMED_TOKEN"
	KindBadSignature     = "BAD_SIGNATURE"
	KindTokenExpired     = "TOKEN_EXPIRED"
	KindActorMismatch    = "ACTOR_MISMATCH"
	KindInstanceNotFound = "INSTANCE_NOT_FOUND"
	KindSessionNotFound  = "SESSION_NOT_FOUND"
	KindSessionCompleted = "SESSION_COMPLETED"
	KindUnauthenticated  = "UNAUTHENTICATED"
	KindForbidden        = "FORBIDDEN"
	KindBadRequest       = "BAD_REQUEST"
	KindNotFound         = "NOT_FOUND"
	KindRateLimited      = "RATE_LIMITED"
	KindConflict         = "CONFLICT"
	KindInternal         = "INTERNAL_ERROR"
)

type AppError struct {
	StatusCode int         `json:"-"`
	Kind       string      `json:"kind"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Err        error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(statusCode int, kind string, err error, message string) *AppError {
	return &AppError{StatusCode: statusCode, Kind: kind, Message: message, Err: err}
}

func NewBadRequestError(err error, message string) *AppError {
	return NewAppError(http.StatusBadRequest, KindBadRequest, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return NewAppError(http.StatusUnauthorized, KindUnauthenticated, err, message)
}

func NewForbiddenError(err error, message string) *AppError {
	return NewAppError(http.StatusForbidden, KindForbidden, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return NewAppError(http.StatusNotFound, KindNotFound, err, message)
}

func NewConflictError(err error, message string) *AppError {
	return NewAppError(http.StatusConflict, KindConflict, err, message)
}

func NewInternalError(err error, message string) *AppError {
	return NewAppError(http.StatusInternalServerError, KindInternal, err, message)
}

// Capability token rejections.

func NewMalformedTokenError(err error) *AppError {
	return NewAppError(http.StatusBadRequest, KindMalformedToken, err, "Practice token is malformed")
}

func NewBadSignatureError() *AppError {
	return NewAppError(http.StatusUnauthorized, KindBadSignature, nil, "Practice token signature is invalid")
}

func NewTokenExpiredError() *AppError {
	return NewAppError(http.StatusUnauthorized, KindTokenExpired, nil, "Practice token has expired")
}

func NewActorMismatchError() *AppError {
	return NewAppError(http.StatusForbidden, KindActorMismatch, nil, "Practice token was issued to a different actor")
}

func NewInstanceNotFoundError(instanceID string) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		Kind:       KindInstanceNotFound,
		Message:    "Practice instance not found",
		Data:       map[string]string{"instance_id": instanceID},
	}
}

func NewSessionNotFoundError() *AppError {
	return NewAppError(http.StatusNotFound, KindSessionNotFound, nil, "Practice session not found")
}

func NewSessionCompletedError() *AppError {
	return NewAppError(http.StatusConflict, KindSessionCompleted, nil, "Practice session is already completed")
}

func NewRateLimitedError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, KindRateLimited, nil, message)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
