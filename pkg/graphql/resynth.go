package graphql

import (
	"github.com/vektah/gqlparser/v2/ast"
)

// ResynthOperationName names the synthetic operations built by
// BuildScopedQuery.
const ResynthOperationName = ResynthPrefix

// ScopedQuery is a synthetic operation that produces a single object of a
// concrete type, shaped like the selection found at a path of the original
// operation.
type ScopedQuery struct {
	Query         string
	OperationName string
	// RootField is the response key holding the produced object.
	RootField string
}

// BuildScopedQuery re-roots the selection set found at path in the rewritten
// operation onto the private root field for typeName. Path elements are
// response keys; list positions are not part of the path. An empty path
// re-roots the operation's own selection set.
func BuildScopedQuery(schema *Schema, rewritten, operationName string, path []string, typeName string) (*ScopedQuery, error) {
	def := schema.GetType(typeName)
	if def == nil {
		return nil, &ResolveError{Path: path, TypeName: typeName, Reason: "unknown type"}
	}
	rootField, ok := schema.ResynthField(typeName)
	if !ok || !schema.IsObjectType(typeName) {
		return nil, &ResolveError{Path: path, TypeName: typeName, Reason: "not an object type"}
	}

	doc, err := ParseOperation(rewritten)
	if err != nil {
		return nil, err
	}
	op := selectOperation(doc, operationName)
	if op == nil {
		return nil, &ResolveError{Path: path, TypeName: typeName, Reason: "operation " + operationName + " not found"}
	}

	set := op.SelectionSet
	for i, key := range path {
		set = selectionAt(set, key)
		if len(set) == 0 {
			return nil, &ResolveError{Path: path[:i+1], TypeName: typeName, Reason: "path does not select an object"}
		}
	}

	scoped := scopeToType(schema, set, typeName)
	if !hasTypename(scoped) {
		scoped = append(ast.SelectionSet{&ast.Field{Alias: TypenameField, Name: TypenameField}}, scoped...)
	}

	used := make(map[string]bool)
	collectVariables(scoped, used)
	var vars ast.VariableDefinitionList
	for _, v := range op.VariableDefinitions {
		if used[v.Variable] {
			vars = append(vars, v)
		}
	}

	synthetic := &ast.QueryDocument{
		Operations: ast.OperationList{{
			Operation:           ast.Query,
			Name:                ResynthOperationName,
			VariableDefinitions: vars,
			SelectionSet: ast.SelectionSet{&ast.Field{
				Alias:        rootField,
				Name:         rootField,
				SelectionSet: scoped,
			}},
		}},
	}

	return &ScopedQuery{
		Query:         FormatDocument(synthetic),
		OperationName: ResynthOperationName,
		RootField:     rootField,
	}, nil
}

// selectOperation returns the named operation, or the only one when name is
// empty.
func selectOperation(doc *ast.QueryDocument, name string) *ast.OperationDefinition {
	if name != "" {
		return doc.Operations.ForName(name)
	}
	if len(doc.Operations) == 1 {
		return doc.Operations[0]
	}
	return nil
}

// selectionAt concatenates the sub-selections of every field answering to
// key, looking through inline fragments.
func selectionAt(set ast.SelectionSet, key string) ast.SelectionSet {
	var out ast.SelectionSet
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if responseKey(s) == key {
				out = append(out, s.SelectionSet...)
			}
		case *ast.InlineFragment:
			out = append(out, selectionAt(s.SelectionSet, key)...)
		}
	}
	return out
}

// scopeToType drops inline fragments that cannot apply to typeName.
func scopeToType(schema *Schema, set ast.SelectionSet, typeName string) ast.SelectionSet {
	out := make(ast.SelectionSet, 0, len(set))
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.InlineFragment:
			if !schema.Applies(s.TypeCondition, typeName) {
				continue
			}
			frag := *s
			frag.SelectionSet = scopeToType(schema, s.SelectionSet, typeName)
			out = append(out, &frag)
		default:
			out = append(out, sel)
		}
	}
	return out
}

func collectVariables(set ast.SelectionSet, used map[string]bool) {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			for _, arg := range s.Arguments {
				collectValueVariables(arg.Value, used)
			}
			collectDirectiveVariables(s.Directives, used)
			collectVariables(s.SelectionSet, used)
		case *ast.InlineFragment:
			collectDirectiveVariables(s.Directives, used)
			collectVariables(s.SelectionSet, used)
		}
	}
}

func collectDirectiveVariables(directives ast.DirectiveList, used map[string]bool) {
	for _, d := range directives {
		for _, arg := range d.Arguments {
			collectValueVariables(arg.Value, used)
		}
	}
}

func collectValueVariables(v *ast.Value, used map[string]bool) {
	if v == nil {
		return
	}
	if v.Kind == ast.Variable {
		used[v.Raw] = true
		return
	}
	for _, child := range v.Children {
		collectValueVariables(child.Value, used)
	}
}
