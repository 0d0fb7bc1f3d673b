package graphql

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Request represents an incoming GraphQL request.
type Request struct {
	// Query is the GraphQL operation text.
	Query string `json:"query"`
	// OperationName selects the operation to run in multi-operation documents.
	OperationName string `json:"operationName,omitempty"`
	// Variables are the runtime variable values.
	Variables map[string]any `json:"variables,omitempty"`
}

// Response is a GraphQL response body.
type Response struct {
	// Data is the result tree. It is nil when the operation could not run.
	Data map[string]any `json:"data"`
	// Errors contains request or field errors.
	Errors gqlerror.List `json:"errors,omitempty"`
	// Extensions carries response metadata such as seed warnings.
	Extensions map[string]any `json:"extensions,omitempty"`
}

// SetExtension sets a response extension, allocating the map on first use.
func (r *Response) SetExtension(key string, value any) {
	if r.Extensions == nil {
		r.Extensions = make(map[string]any)
	}
	r.Extensions[key] = value
}

// SyntaxError is returned when operation text cannot be parsed.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return "syntax error: " + e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e *SyntaxError) StatusCode() int {
	return 400
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *SyntaxError) Hint() string {
	return "Check the operation text; it must be a valid GraphQL document."
}

// ResolveError is returned when a re-synthesis path or type cannot be
// resolved against the operation and schema.
type ResolveError struct {
	Path     []string
	TypeName string
	Reason   string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("cannot resolve %s at %q: %s", e.TypeName, strings.Join(e.Path, "."), e.Reason)
}
