package graphql

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// TypenameField is the discriminator injected into every selection set.
const TypenameField = "__typename"

// Rewritten is an operation after fragment inlining and discriminator
// injection.
type Rewritten struct {
	// Query is the rewritten operation text.
	Query string
	// OperationName is the operation the request targets. When the request
	// named none and the document holds a single operation, it is that
	// operation's name.
	OperationName string
	// Document is the rewritten AST.
	Document *ast.QueryDocument
}

// Rewrite parses query, inlines every fragment spread, injects __typename
// into every selection set and formats the result back to text.
func Rewrite(query, operationName string) (*Rewritten, error) {
	doc, err := ParseOperation(query)
	if err != nil {
		return nil, err
	}
	if err := InlineFragments(doc); err != nil {
		return nil, err
	}
	InjectTypename(doc)

	name := operationName
	if name == "" && len(doc.Operations) == 1 {
		name = doc.Operations[0].Name
	}

	return &Rewritten{
		Query:         FormatDocument(doc),
		OperationName: name,
		Document:      doc,
	}, nil
}

// ParseOperation parses operation text without a schema. Parse failures are
// returned as *SyntaxError.
func ParseOperation(query string) (*ast.QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "operation", Input: query})
	if err != nil {
		return nil, toSyntaxError(err)
	}
	if len(doc.Operations) == 0 {
		return nil, &SyntaxError{Message: "document contains no operation"}
	}
	return doc, nil
}

func toSyntaxError(err error) *SyntaxError {
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		se := &SyntaxError{Message: gqlErr.Message}
		if len(gqlErr.Locations) > 0 {
			se.Line = gqlErr.Locations[0].Line
			se.Column = gqlErr.Locations[0].Column
		}
		return se
	}
	return &SyntaxError{Message: err.Error()}
}

// FormatDocument prints a query document as GraphQL text.
func FormatDocument(doc *ast.QueryDocument) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	return buf.String()
}

// InlineFragments replaces every fragment spread with an inline fragment that
// carries the fragment's type condition and selections, then drops the
// fragment definitions.
func InlineFragments(doc *ast.QueryDocument) error {
	fragments := make(map[string]*ast.FragmentDefinition, len(doc.Fragments))
	for _, frag := range doc.Fragments {
		fragments[frag.Name] = frag
	}

	for _, op := range doc.Operations {
		set, err := inlineSelections(op.SelectionSet, fragments, map[string]bool{})
		if err != nil {
			return err
		}
		op.SelectionSet = set
	}
	doc.Fragments = nil
	return nil
}

func inlineSelections(set ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, active map[string]bool) (ast.SelectionSet, error) {
	out := make(ast.SelectionSet, 0, len(set))
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if len(s.SelectionSet) > 0 {
				children, err := inlineSelections(s.SelectionSet, fragments, active)
				if err != nil {
					return nil, err
				}
				s.SelectionSet = children
			}
			out = append(out, s)

		case *ast.InlineFragment:
			children, err := inlineSelections(s.SelectionSet, fragments, active)
			if err != nil {
				return nil, err
			}
			s.SelectionSet = children
			out = append(out, s)

		case *ast.FragmentSpread:
			frag, ok := fragments[s.Name]
			if !ok {
				return nil, spreadError(s, fmt.Sprintf("unknown fragment %q", s.Name))
			}
			if active[s.Name] {
				return nil, spreadError(s, fmt.Sprintf("fragment %q spreads itself", s.Name))
			}

			active[s.Name] = true
			children, err := inlineSelections(cloneSelectionSet(frag.SelectionSet), fragments, active)
			delete(active, s.Name)
			if err != nil {
				return nil, err
			}

			out = append(out, &ast.InlineFragment{
				TypeCondition: frag.TypeCondition,
				Directives:    s.Directives,
				SelectionSet:  children,
				Position:      s.Position,
			})
		}
	}
	return out, nil
}

func spreadError(s *ast.FragmentSpread, msg string) *SyntaxError {
	se := &SyntaxError{Message: msg}
	if s.Position != nil {
		se.Line = s.Position.Line
		se.Column = s.Position.Column
	}
	return se
}

// cloneSelectionSet copies the selection tree so a fragment spread in several
// places does not share nodes.
func cloneSelectionSet(set ast.SelectionSet) ast.SelectionSet {
	if set == nil {
		return nil
	}
	out := make(ast.SelectionSet, 0, len(set))
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			f := *s
			f.SelectionSet = cloneSelectionSet(s.SelectionSet)
			out = append(out, &f)
		case *ast.InlineFragment:
			frag := *s
			frag.SelectionSet = cloneSelectionSet(s.SelectionSet)
			out = append(out, &frag)
		case *ast.FragmentSpread:
			spread := *s
			out = append(out, &spread)
		}
	}
	return out
}

// InjectTypename adds an unaliased __typename field to every selection set
// that lacks one. Inline fragment bodies rely on the field of their
// enclosing selection set.
func InjectTypename(doc *ast.QueryDocument) {
	for _, op := range doc.Operations {
		op.SelectionSet = injectTypename(op.SelectionSet, true)
	}
}

func injectTypename(set ast.SelectionSet, add bool) ast.SelectionSet {
	if len(set) == 0 {
		return set
	}

	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			s.SelectionSet = injectTypename(s.SelectionSet, true)
		case *ast.InlineFragment:
			s.SelectionSet = injectTypename(s.SelectionSet, false)
		}
	}

	if !add || hasTypename(set) {
		return set
	}
	typename := &ast.Field{Alias: TypenameField, Name: TypenameField}
	return append(ast.SelectionSet{typename}, set...)
}

func hasTypename(set ast.SelectionSet) bool {
	for _, sel := range set {
		if f, ok := sel.(*ast.Field); ok && f.Name == TypenameField && responseKey(f) == TypenameField {
			return true
		}
	}
	return false
}

// responseKey returns the key a field occupies in the response.
func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}
