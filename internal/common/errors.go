package common

import (
	"errors"
	"net/http"
)

// Error codes surfaced in responses. Codes named after validation faults are
// caller-input errors (HTTP 400, never retried); the Upstream* codes carry
// the external system's structured detail verbatim.
const (
	CodeBadRequest            = "BAD_REQUEST"
	CodeNoItems               = "NoItems"
	CodeInvalidQuantities     = "InvalidQuantities"
	CodeInvalidTotal          = "InvalidTotal"
	CodeNegativeItemsSubtotal = "NegativeItemsSubtotal"
	CodeInvalidAddress        = "InvalidAddress"
	CodeUpstreamAuthFailure   = "UpstreamAuthFailure"
	CodeUpstreamRejection     = "UpstreamRejection"
	CodeUpstreamUnavailable   = "UpstreamUnavailable"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInternal              = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// BadRequest constructs a caller-input fault with HTTP 400.
func BadRequest(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: http.StatusBadRequest}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
