package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

const optionsSchema = `{
  "type": "object",
  "properties": {
    "usesLeft": {"type": "integer", "minimum": -1},
    "partialArgsMatch": {"type": "boolean"},
    "statusCode": {"type": "integer", "minimum": 100, "maximum": 599}
  }
}`

const operationSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["groupId", "operationName", "seedResponse"],
  "properties": {
    "groupId": {"type": "string", "minLength": 1},
    "operationName": {"type": "string", "minLength": 1},
    "matchArguments": {"type": ["object", "null"]},
    "seedResponse": {
      "type": "object",
      "anyOf": [{"required": ["data"]}, {"required": ["errors"]}],
      "properties": {
        "data": {"type": ["object", "null"]},
        "errors": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["message"],
            "properties": {"message": {"type": "string"}}
          }
        }
      }
    },
    "options": ` + optionsSchema + `
  }
}`

const networkErrorSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["groupId", "operationName"],
  "properties": {
    "groupId": {"type": "string", "minLength": 1},
    "operationName": {"type": "string", "minLength": 1},
    "matchArguments": {"type": ["object", "null"]},
    "options": ` + optionsSchema + `
  }
}`

// kindValidator compiles the JSON Schema for one seed kind on first use.
type kindValidator struct {
	name   string
	source string

	once      sync.Once
	schema    *jsonschema.Schema
	schemaErr error
}

func (v *kindValidator) compiled() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		url := v.name + ".json"
		if err := compiler.AddResource(url, strings.NewReader(v.source)); err != nil {
			v.schemaErr = fmt.Errorf("failed to add %s seed schema: %w", v.name, err)
			return
		}
		v.schema, v.schemaErr = compiler.Compile(url)
	})
	return v.schema, v.schemaErr
}

var validators = map[Kind]*kindValidator{
	KindOperation:    {name: string(KindOperation), source: operationSchema},
	KindNetworkError: {name: string(KindNetworkError), source: networkErrorSchema},
}

// Validate checks a seed against the schema of its kind and returns the
// seed it describes, with defaults applied and a fresh ID. Argument and
// response values are normalized to their JSON forms.
func Validate(groupID string, kind Kind, in Input, opts OptionsInput) (*Seed, error) {
	v, ok := validators[kind]
	if !ok {
		return nil, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown seed kind %q", kind)}
	}
	schema, err := v.compiled()
	if err != nil {
		return nil, err
	}

	doc := map[string]any{
		"groupId":        groupID,
		"operationName":  in.OperationName,
		"matchArguments": in.MatchArguments,
		"options":        opts,
	}
	if in.SeedResponse != nil {
		doc["seedResponse"] = in.SeedResponse
	}

	normalized, err := toJSONValue(doc)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if err := schema.Validate(normalized); err != nil {
		return nil, toValidationError(err)
	}

	fields := normalized.(map[string]any)
	args, _ := fields["matchArguments"].(map[string]any)
	s := &Seed{
		ID:             uuid.NewString(),
		GroupID:        groupID,
		Kind:           kind,
		OperationName:  in.OperationName,
		MatchArguments: args,
		Response:       fields["seedResponse"],
		Options:        opts.resolve(kind),
		CreatedAt:      time.Now(),
	}

	if kind == KindOperation {
		patch, err := decodePatch(s.Response.(map[string]any))
		if err != nil {
			return nil, err
		}
		s.patch = patch
	}
	return s, nil
}

// decodePatch splits a validated operation seedResponse into data and
// GraphQL errors.
func decodePatch(resp map[string]any) (*operationPatch, error) {
	patch := &operationPatch{}
	if data, ok := resp["data"]; ok {
		patch.hasData = true
		patch.data, _ = data.(map[string]any)
	}
	if raw, ok := resp["errors"]; ok {
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, &ValidationError{Field: "seedResponse.errors", Message: err.Error()}
		}
		if err := json.Unmarshal(b, &patch.errors); err != nil {
			return nil, &ValidationError{Field: "seedResponse.errors", Message: err.Error()}
		}
	}
	return patch, nil
}

// toJSONValue round-trips v through encoding/json so numbers, maps and
// slices have the types a JSON decoder produces.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("seed is not representable as JSON: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("seed is not representable as JSON: %w", err)
	}
	return out, nil
}

// toValidationError flattens a JSON Schema failure into a ValidationError
// naming the first offending field.
func toValidationError(err error) error {
	var schemaErr *jsonschema.ValidationError
	if !errors.As(err, &schemaErr) {
		return &ValidationError{Message: err.Error()}
	}

	var leaves []*jsonschema.ValidationError
	collectLeaves(schemaErr, &leaves)
	if len(leaves) == 0 {
		return &ValidationError{Message: schemaErr.Message}
	}

	messages := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		msg := leaf.Message
		if field := fieldFromPointer(leaf.InstanceLocation); field != "" {
			msg = field + ": " + msg
		}
		messages = append(messages, msg)
	}
	return &ValidationError{
		Field:   fieldFromPointer(leaves[0].InstanceLocation),
		Message: strings.Join(messages, "; "),
	}
}

func collectLeaves(err *jsonschema.ValidationError, out *[]*jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		*out = append(*out, err)
		return
	}
	for _, cause := range err.Causes {
		collectLeaves(cause, out)
	}
}

// fieldFromPointer converts a JSON Pointer to dot notation.
func fieldFromPointer(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	return strings.ReplaceAll(pointer, "/", ".")
}

// errorsOf returns the GraphQL errors an operation seed declares.
func (s *Seed) errorsOf() gqlerror.List {
	if s.patch == nil {
		return nil
	}
	return s.patch.errors
}
