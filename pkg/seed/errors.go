package seed

import (
	"fmt"
	"net/http"
)

// ValidationError is returned when a seed is malformed. Nothing is stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid seed: field %q: %s", e.Field, e.Message)
	}
	return "invalid seed: " + e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *ValidationError) Hint() string {
	if e.Field != "" {
		return fmt.Sprintf("Check the value of %q in the seed.", e.Field)
	}
	return "Operation seeds need operationName and a seedResponse with data and/or errors; network error seeds need operationName."
}

// NotFoundError describes an update or delete whose target seed does not
// exist. The registry logs it and treats the call as a no-op.
type NotFoundError struct {
	GroupID       string
	OperationName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no seed for operation %q in group %q matches the given arguments", e.OperationName, e.GroupID)
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *NotFoundError) Hint() string {
	return fmt.Sprintf("List the seeds of group %q and pass the matchArguments the seed was registered with.", e.GroupID)
}
