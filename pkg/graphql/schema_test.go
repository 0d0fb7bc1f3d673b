package graphql

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const petSchema = `
scalar DateTime

type Query {
	pet(id: ID!): Pet
	pets(first: Int): [Pet!]!
	owner(id: ID!): Owner
	search(term: String!): [SearchResult!]!
}

interface Pet {
	id: ID!
	name: String!
}

type Dog implements Pet {
	id: ID!
	name: String!
	bark: Boolean!
	owner(verbose: Boolean): Owner
}

type Cat implements Pet {
	id: ID!
	name: String!
	meow: Boolean!
	lives: Int!
}

type Owner {
	id: ID!
	name: String!
	pets: [Pet!]!
	rating: Float
	status: Status!
	since: DateTime
}

enum Status {
	ACTIVE
	INACTIVE
}

union SearchResult = Dog | Cat | Owner
`

func mustParseSchema(t *testing.T) *Schema {
	t.Helper()
	schema, err := ParseSchema(petSchema)
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}
	return schema
}

func TestParseSchema_AddsResynthFields(t *testing.T) {
	schema := mustParseSchema(t)

	for _, typeName := range []string{"Dog", "Cat", "Owner", "Query"} {
		field, ok := schema.ResynthField(typeName)
		if !ok {
			t.Fatalf("ResynthField(%q) missing", typeName)
		}
		if !strings.HasPrefix(field, ResynthPrefix) {
			t.Errorf("ResynthField(%q) = %q, want prefix %q", typeName, field, ResynthPrefix)
		}
		if def := schema.AST().Query.Fields.ForName(field); def == nil || def.Type.Name() != typeName {
			t.Errorf("root field %q does not return %s", field, typeName)
		}
	}

	for _, typeName := range []string{"Pet", "SearchResult", "Status", "DateTime"} {
		if _, ok := schema.ResynthField(typeName); ok {
			t.Errorf("ResynthField(%q) should not exist for non-object types", typeName)
		}
	}
}

func TestParseSchema_ListQueriesHidesPrivateFields(t *testing.T) {
	schema := mustParseSchema(t)

	got := strings.Join(schema.ListQueries(), ",")
	if got != "owner,pet,pets,search" {
		t.Errorf("ListQueries() = %s, want owner,pet,pets,search", got)
	}
}

func TestParseSchema_Invalid(t *testing.T) {
	if _, err := ParseSchema(`type Query { broken: Missing }`); err == nil {
		t.Fatal("expected error for undefined type")
	}
	if _, err := ParseSchema(`type Mutation { a: Int }`); err == nil {
		t.Fatal("expected error for schema without Query")
	}
}

func TestParseSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.graphql")
	if err := os.WriteFile(path, []byte(petSchema), 0o644); err != nil {
		t.Fatal(err)
	}

	schema, err := ParseSchemaFile(path)
	if err != nil {
		t.Fatalf("ParseSchemaFile() error = %v", err)
	}
	if !schema.IsObjectType("Dog") {
		t.Error("Dog should be an object type")
	}

	if _, err := ParseSchemaFile(filepath.Join(t.TempDir(), "missing.graphql")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSchema_PossibleTypes(t *testing.T) {
	schema := mustParseSchema(t)

	tests := []struct {
		name string
		want string
	}{
		{"Pet", "Cat,Dog"},
		{"SearchResult", "Cat,Dog,Owner"},
		{"Dog", "Dog"},
		{"Status", ""},
		{"Nope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for _, def := range schema.PossibleTypes(tt.name) {
				names = append(names, def.Name)
			}
			if got := strings.Join(names, ","); got != tt.want {
				t.Errorf("PossibleTypes(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestSchema_Applies(t *testing.T) {
	schema := mustParseSchema(t)

	tests := []struct {
		cond, object string
		want         bool
	}{
		{"", "Dog", true},
		{"Dog", "Dog", true},
		{"Pet", "Dog", true},
		{"SearchResult", "Owner", true},
		{"Cat", "Dog", false},
		{"Pet", "Owner", false},
	}

	for _, tt := range tests {
		if got := schema.Applies(tt.cond, tt.object); got != tt.want {
			t.Errorf("Applies(%q, %q) = %v, want %v", tt.cond, tt.object, got, tt.want)
		}
	}
}
