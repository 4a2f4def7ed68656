// Package errors defines the error taxonomy for the standardization service.
//
// Fatal errors abort a standardization call before any output is produced:
// ConfigError for invalid or unknown configuration, SchemaError for target
// columns that are missing or non-numeric. Both carry enough structure to be
// rendered as RFC 7807 problem documents by the HTTP layer.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ConfigError indicates invalid or unknown configuration. It is fatal and
// aborts the call before computation starts.
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// NewConfigError creates a ConfigError for the given configuration field
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// SchemaError indicates a target column that is absent from the input table
// or not numeric. It is fatal and aborts the call.
type SchemaError struct {
	Column  string `json:"column"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: column %q: %s", e.Column, e.Message)
}

// NewSchemaError creates a SchemaError for the given column
func NewSchemaError(column, format string, args ...any) *SchemaError {
	return &SchemaError{Column: column, Message: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is (or wraps) a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsSchemaError reports whether err is (or wraps) a SchemaError
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// Problem is an RFC 7807 problem document returned by the HTTP surface
type Problem struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Status  int    `json:"status"`
	Detail  string `json:"detail"`
	TraceID string `json:"trace_id,omitempty"`
}

// WriteProblem writes p as an application/problem+json response.
// chi/render replaces the Content-Type on its way out, so problem
// documents bypass it.
func WriteProblem(w http.ResponseWriter, p *Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	json.NewEncoder(w).Encode(p)
}

// ToProblem maps an error to a problem document. ConfigError and SchemaError
// map to 400 and 422 respectively; anything else becomes a 500.
func ToProblem(err error, traceID string) *Problem {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return &Problem{
			Type:    "/errors/config-error",
			Title:   "Invalid Configuration",
			Status:  http.StatusBadRequest,
			Detail:  ce.Error(),
			TraceID: traceID,
		}
	}

	var se *SchemaError
	if errors.As(err, &se) {
		return &Problem{
			Type:    "/errors/schema-error",
			Title:   "Schema Mismatch",
			Status:  http.StatusUnprocessableEntity,
			Detail:  se.Error(),
			TraceID: traceID,
		}
	}

	return &Problem{
		Type:    "/errors/internal-server-error",
		Title:   "Internal Server Error",
		Status:  http.StatusInternalServerError,
		Detail:  "An unexpected error occurred",
		TraceID: traceID,
	}
}
