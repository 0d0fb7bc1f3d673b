package graphql

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/getmockd/seedql/pkg/logging"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Executor executes GraphQL operations against a schema, producing
// structurally valid mock data with a ValueGenerator.
type Executor struct {
	schema    *Schema
	generator ValueGenerator
	log       *slog.Logger
}

// NewExecutor creates a new executor. A nil generator uses NewGenerator with
// default settings.
func NewExecutor(schema *Schema, generator ValueGenerator, logger *slog.Logger) *Executor {
	if generator == nil {
		generator = NewGenerator(GeneratorConfig{})
	}
	return &Executor{
		schema:    schema,
		generator: generator,
		log:       logging.Component(logger, "executor"),
	}
}

// Schema returns the schema the executor runs against.
func (e *Executor) Schema() *Schema {
	return e.schema
}

// Execute parses, validates and executes a request.
func (e *Executor) Execute(ctx context.Context, req *Request) *Response {
	if req == nil || req.Query == "" {
		return &Response{Errors: gqlerror.List{gqlerror.Errorf("query is required")}}
	}
	if err := ctx.Err(); err != nil {
		return &Response{Errors: gqlerror.List{gqlerror.Errorf("request cancelled: %v", err)}}
	}

	doc, errs := gqlparser.LoadQuery(e.schema.AST(), req.Query)
	if len(errs) > 0 {
		return &Response{Errors: errs}
	}

	op := selectOperation(doc, req.OperationName)
	if op == nil {
		if req.OperationName != "" {
			return &Response{Errors: gqlerror.List{gqlerror.Errorf("operation %q not found", req.OperationName)}}
		}
		return &Response{Errors: gqlerror.List{gqlerror.Errorf("operation name is required for documents with several operations")}}
	}

	root := e.schema.RootType(op.Operation)
	if root == nil {
		return &Response{Errors: gqlerror.List{gqlerror.Errorf("schema does not support %s operations", op.Operation)}}
	}

	run := &execution{
		Executor:  e,
		doc:       doc,
		variables: req.Variables,
	}
	data := run.resolveObject(root, op.SelectionSet)
	e.log.Debug("executed operation", "operation", op.Name, "type", op.Operation)

	return &Response{Data: data}
}

// execution holds per-request state.
type execution struct {
	*Executor
	doc       *ast.QueryDocument
	variables map[string]any
}

// fieldGroup is every field selected under one response key.
type fieldGroup struct {
	key    string
	fields []*ast.Field
}

// resolveObject builds the value of a concrete object type.
func (x *execution) resolveObject(def *ast.Definition, set ast.SelectionSet) map[string]any {
	result := make(map[string]any)
	for _, group := range x.collectFields(def, set, nil, map[string]bool{}) {
		field := group.fields[0]
		if field.Name == TypenameField {
			result[group.key] = def.Name
			continue
		}

		fieldDef := def.Fields.ForName(field.Name)
		if fieldDef == nil {
			continue
		}

		var children ast.SelectionSet
		for _, f := range group.fields {
			children = append(children, f.SelectionSet...)
		}
		result[group.key] = x.resolveType(fieldDef.Type, children)
	}
	return result
}

// resolveType builds a value of the given type reference.
func (x *execution) resolveType(t *ast.Type, set ast.SelectionSet) any {
	if t.Elem != nil {
		n := x.generator.ListLength()
		items := make([]any, n)
		for i := range items {
			items[i] = x.resolveType(t.Elem, set)
		}
		return items
	}

	def := x.schema.GetType(t.NamedType)
	if def == nil {
		return nil
	}

	switch def.Kind {
	case ast.Scalar:
		return x.generator.Scalar(def.Name)
	case ast.Enum:
		return x.generator.Enum(def)
	case ast.Object:
		return x.resolveObject(def, set)
	case ast.Interface, ast.Union:
		concrete := x.generator.PickType(x.schema.PossibleTypes(def.Name))
		if concrete == nil {
			return nil
		}
		return x.resolveObject(concrete, set)
	default:
		return nil
	}
}

// collectFields groups the fields of a selection set by response key, in
// first-seen order, following inline fragments and fragment spreads whose
// type condition applies to def.
func (x *execution) collectFields(def *ast.Definition, set ast.SelectionSet, groups []*fieldGroup, visited map[string]bool) []*fieldGroup {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if !x.shouldInclude(s.Directives) {
				continue
			}
			key := responseKey(s)
			found := false
			for _, g := range groups {
				if g.key == key {
					g.fields = append(g.fields, s)
					found = true
					break
				}
			}
			if !found {
				groups = append(groups, &fieldGroup{key: key, fields: []*ast.Field{s}})
			}

		case *ast.InlineFragment:
			if !x.shouldInclude(s.Directives) || !x.schema.Applies(s.TypeCondition, def.Name) {
				continue
			}
			groups = x.collectFields(def, s.SelectionSet, groups, visited)

		case *ast.FragmentSpread:
			if visited[s.Name] || !x.shouldInclude(s.Directives) {
				continue
			}
			frag := x.doc.Fragments.ForName(s.Name)
			if frag == nil || !x.schema.Applies(frag.TypeCondition, def.Name) {
				continue
			}
			visited[s.Name] = true
			groups = x.collectFields(def, frag.SelectionSet, groups, visited)
		}
	}
	return groups
}

// shouldInclude evaluates @skip and @include.
func (x *execution) shouldInclude(directives ast.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil {
		if arg := d.Arguments.ForName("if"); arg != nil && truthy(x.resolveValue(arg.Value)) {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if arg := d.Arguments.ForName("if"); arg != nil && !truthy(x.resolveValue(arg.Value)) {
			return false
		}
	}
	return true
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// resolveValue resolves an AST value to a Go value.
func (x *execution) resolveValue(value *ast.Value) any {
	if value == nil {
		return nil
	}

	switch value.Kind {
	case ast.Variable:
		return x.variables[value.Raw]
	case ast.IntValue:
		n, err := strconv.ParseInt(value.Raw, 10, 64)
		if err != nil {
			return value.Raw
		}
		return n
	case ast.FloatValue:
		f, err := strconv.ParseFloat(value.Raw, 64)
		if err != nil {
			return value.Raw
		}
		return f
	case ast.StringValue, ast.BlockValue, ast.EnumValue:
		return value.Raw
	case ast.BooleanValue:
		return value.Raw == "true"
	case ast.NullValue:
		return nil
	case ast.ListValue:
		list := make([]any, 0, len(value.Children))
		for _, child := range value.Children {
			list = append(list, x.resolveValue(child.Value))
		}
		return list
	case ast.ObjectValue:
		obj := make(map[string]any, len(value.Children))
		for _, child := range value.Children {
			obj[child.Name] = x.resolveValue(child.Value)
		}
		return obj
	default:
		return fmt.Sprint(value.Raw)
	}
}
