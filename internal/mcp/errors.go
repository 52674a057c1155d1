package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/captionlog/internal/domain/activity"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unrecognized errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var storage *activity.StorageError
	switch {
	case errors.Is(err, activity.ErrUnknownType):
		return &APIError{Code: "UNKNOWN_TYPE", Message: err.Error(), RecoveryHint: "Read captionlog://kinds for valid types"}
	case errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Check stream, sort and cursor values"}
	case errors.As(err, &storage):
		return &APIError{Code: "STORAGE_ERROR", Message: "activity storage unavailable", Details: storage.Op, RecoveryHint: "Retry later"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
