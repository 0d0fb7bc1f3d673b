package merge

import (
	"fmt"
	"net/http"
	"strings"
)

// Warning messages.
const (
	MsgKeyNotFound      = "key not found in source"
	MsgExpectedList     = "expected a list in source"
	MsgExpectedObject   = "expected an object in source"
	MsgNoTemplate       = "list directive has no template item"
	MsgInvalidLength    = "list length must be an integer between 0 and the maximum list length"
	MsgIndexOutOfRange  = "index override out of range"
	MsgVerbatimOverride = "type changed without a generator; override used verbatim"
)

// Warning is a non-fatal mismatch between a patch and its baseline.
type Warning struct {
	// Path is the dotted location of the key, with [i] for list positions.
	Path string `json:"path"`
	// Key is the patch key that could not be applied.
	Key string `json:"key"`
	// Message describes the mismatch.
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// SchemaInconsistencyError is returned when an object of a concrete type
// cannot be re-synthesized at a path. It means the operation, schema and
// seed disagree and the merge cannot produce a correctly typed response.
type SchemaInconsistencyError struct {
	Path     []string
	TypeName string
	Err      error
}

func (e *SchemaInconsistencyError) Error() string {
	return fmt.Sprintf("cannot synthesize %s at %q: %v", e.TypeName, strings.Join(e.Path, "."), e.Err)
}

func (e *SchemaInconsistencyError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for this error.
func (e *SchemaInconsistencyError) StatusCode() int {
	return http.StatusInternalServerError
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *SchemaInconsistencyError) Hint() string {
	return fmt.Sprintf("Check that %s is a concrete type that can appear at %q in the operation's selection.", e.TypeName, strings.Join(e.Path, "."))
}
