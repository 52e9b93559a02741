package types

import (
	"errors"
	"fmt"
)

// Query errors. Typed errors below match these through errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrNotConnected    = errors.New("not connected")
	ErrInvalidArgument = errors.New("invalid argument")
)

// NotFoundError reports a lookup of a record id that does not exist.
type NotFoundError struct {
	Kind RecordKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotConnectedError reports that both endpoints exist but no path joins
// them within the depth bound.
type NotConnectedError struct {
	SourceID string
	TargetID string
	MaxDepth int
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("no path from %q to %q within %d hops", e.SourceID, e.TargetID, e.MaxDepth)
}

func (e *NotConnectedError) Is(target error) bool {
	return target == ErrNotConnected
}

// InvalidArgumentError reports a malformed query parameter.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ValidationError describes one rejected record of a bulk load.
type ValidationError struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Field string `json:"field,omitempty"`
	Err   error  `json:"-"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("record %d (%s): %s: %v", e.Index, e.ID, e.Field, e.Err)
	}
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.ID, e.Err)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// Reason returns the underlying message, suitable for JSON responses.
func (e ValidationError) Reason() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// NewNotFound is a shorthand for constructing a NotFoundError.
func NewNotFound(kind RecordKind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// NewInvalidArgument is a shorthand for constructing an InvalidArgumentError.
func NewInvalidArgument(field, format string, args ...interface{}) error {
	return &InvalidArgumentError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
