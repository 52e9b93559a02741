package dto

import (
	"errors"
)

// Error codes returned in ErrorResponse.Error.
const (
	CodeInvalidRequest = "invalid_request"
	CodeInvalidArgs    = "invalid_argument"
	CodeNotFound       = "not_found"
	CodeNotConnected   = "not_connected"
	CodeInternal       = "internal_error"
)

// Field limits
const (
	MaxTextLength     = 256
	MaxFilterValues   = 100
	MaxAttributeCount = 50
	MaxIDLength       = 256
)

// Validation errors
var (
	ErrTextTooLong       = errors.New("text exceeds maximum length (256)")
	ErrTooManyValues     = errors.New("filter list exceeds maximum size (100)")
	ErrTooManyAttributes = errors.New("attribute filters exceed maximum count (50)")
	ErrIDTooLong         = errors.New("id exceeds maximum length (256)")
)

// Result represents a generic API result
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      int    `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ValidationIssue describes one rejected record of a bulk request.
type ValidationIssue struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func checkList(n int) error {
	if n > MaxFilterValues {
		return ErrTooManyValues
	}
	return nil
}
