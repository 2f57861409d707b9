package errors

import (
	"errors"
	"net/http"
	"time"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	RetryAfter time.Duration // only meaningful for 429
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// Unauthenticated: no, invalid, expired or revoked credential.
func Unauthenticated(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusUnauthorized}
}

// Unauthorized: authenticated, but the identity lacks the permission.
func Unauthorized(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusForbidden}
}

func RateLimited(retryAfter time.Duration) error {
	return &ErrorWithStatusCode{
		Message:    "Rate limit exceeded, try again later",
		StatusCode: http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
}

func ContentRejected(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusUnprocessableEntity}
}

func Validation(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusBadRequest}
}

func NotFound(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusNotFound}
}

func Conflict(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusConflict}
}

// StatusCode returns the status carried by err, or 500 for plain errors.
func StatusCode(err error) int {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

func HasStatus(err error, code int) bool {
	var e *ErrorWithStatusCode
	return errors.As(err, &e) && e.StatusCode == code
}

func IsNotFound(err error) bool {
	return HasStatus(err, http.StatusNotFound)
}
