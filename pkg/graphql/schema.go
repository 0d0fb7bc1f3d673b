package graphql

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// ResynthPrefix namespaces the private root fields and operations used for
// scoped re-synthesis. User schemas must not declare fields with this prefix.
const ResynthPrefix = "_seedqlResynth"

// Schema represents a parsed GraphQL schema with convenient accessors for
// types, root fields and the private re-synthesis entry points.
type Schema struct {
	ast     *ast.Schema
	queries map[string]*ast.FieldDefinition
	resynth map[string]string // object type -> private root field
}

// ParseSchema parses a GraphQL SDL string and returns a Schema.
func ParseSchema(sdl string) (*Schema, error) {
	return parseSchema("schema", sdl)
}

// ParseSchemaFile parses a GraphQL schema from a file and returns a Schema.
func ParseSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return parseSchema(path, string(data))
}

// parseSchema loads the SDL twice: once to discover the object types and the
// query root, then again with an extension that adds one private root field
// per object type.
func parseSchema(name, sdl string) (*Schema, error) {
	base, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL schema from %s: %w", name, err)
	}
	if base.Query == nil {
		return nil, fmt.Errorf("schema %s must define a Query type", name)
	}

	resynth := make(map[string]string)
	var ext strings.Builder
	fmt.Fprintf(&ext, "extend type %s {\n", base.Query.Name)
	for _, typeName := range sortedObjectTypes(base) {
		field := ResynthPrefix + "_" + typeName
		resynth[typeName] = field
		fmt.Fprintf(&ext, "  %s: %s\n", field, typeName)
	}
	ext.WriteString("}\n")

	full, err := gqlparser.LoadSchema(
		&ast.Source{Name: name, Input: sdl},
		&ast.Source{Name: "seedql-resynth", Input: ext.String()},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to extend GraphQL schema from %s: %w", name, err)
	}

	s := &Schema{
		ast:     full,
		queries: make(map[string]*ast.FieldDefinition),
		resynth: resynth,
	}
	for _, field := range full.Query.Fields {
		if isIntrospectionField(field.Name) || strings.HasPrefix(field.Name, ResynthPrefix) {
			continue
		}
		s.queries[field.Name] = field
	}
	return s, nil
}

func sortedObjectTypes(schema *ast.Schema) []string {
	names := make([]string, 0, len(schema.Types))
	for name, def := range schema.Types {
		if def.Kind == ast.Object && !isIntrospectionField(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// isIntrospectionField returns true if the name is reserved for introspection.
func isIntrospectionField(name string) bool {
	return strings.HasPrefix(name, "__")
}

// AST returns the underlying gqlparser AST schema.
func (s *Schema) AST() *ast.Schema {
	return s.ast
}

// GetType returns a type definition by name, or nil if not found.
func (s *Schema) GetType(name string) *ast.Definition {
	return s.ast.Types[name]
}

// RootType returns the root object type for an operation kind, or nil when
// the schema does not define it.
func (s *Schema) RootType(op ast.Operation) *ast.Definition {
	switch op {
	case ast.Mutation:
		return s.ast.Mutation
	case ast.Subscription:
		return s.ast.Subscription
	default:
		return s.ast.Query
	}
}

// ListQueries returns the public query field names in sorted order.
func (s *Schema) ListQueries() []string {
	names := make([]string, 0, len(s.queries))
	for name := range s.queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsObjectType returns true if the given type name is an object type.
func (s *Schema) IsObjectType(name string) bool {
	def := s.GetType(name)
	return def != nil && def.Kind == ast.Object
}

// PossibleTypes returns the concrete object types a value of the named type
// may have, sorted by name. An object type yields itself.
func (s *Schema) PossibleTypes(name string) []*ast.Definition {
	def := s.GetType(name)
	if def == nil {
		return nil
	}
	if def.Kind == ast.Object {
		return []*ast.Definition{def}
	}
	if !def.IsAbstractType() {
		return nil
	}
	possible := append([]*ast.Definition(nil), s.ast.GetPossibleTypes(def)...)
	sort.Slice(possible, func(i, j int) bool { return possible[i].Name < possible[j].Name })
	return possible
}

// Applies reports whether a selection guarded by typeCondition applies to
// values of the concrete object type objectType.
func (s *Schema) Applies(typeCondition, objectType string) bool {
	if typeCondition == "" || typeCondition == objectType {
		return true
	}
	for _, def := range s.PossibleTypes(typeCondition) {
		if def.Name == objectType {
			return true
		}
	}
	return false
}

// ResynthField returns the private root field that produces a value of the
// named object type, and false when the type has none.
func (s *Schema) ResynthField(typeName string) (string, bool) {
	field, ok := s.resynth[typeName]
	return field, ok
}
