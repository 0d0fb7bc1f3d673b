// Package graphql holds the GraphQL side of seedql: schema loading, the
// query rewriter, the structural executor that produces baseline responses,
// and the scoped re-synthesis query builder.
//
// Incoming operations are rewritten before execution so that every object in
// a baseline response carries its concrete type:
//
//	rw, err := graphql.Rewrite(`
//	    query Pet($id: ID!) { pet(id: $id) { ...PetFields } }
//	    fragment PetFields on Pet { name }
//	`, "")
//	// rw.Query:
//	// query Pet ($id: ID!) {
//	//     __typename
//	//     pet(id: $id) {
//	//         __typename
//	//         ... on Pet {
//	//             name
//	//         }
//	//     }
//	// }
//
// The Executor validates the rewritten operation against the schema and
// generates data for every selected field with a ValueGenerator:
//
//	schema, _ := graphql.ParseSchemaFile("schema.graphql")
//	exec := graphql.NewExecutor(schema, graphql.NewGenerator(graphql.GeneratorConfig{Seed: 7}), logger)
//	resp := exec.Execute(ctx, &graphql.Request{Query: rw.Query, Variables: vars})
//
// When a seed replaces a polymorphic value with a different concrete type,
// BuildScopedQuery derives a synthetic operation that produces a fresh object
// of that type with the selections found at the same path. It runs through
// private root fields (prefixed with ResynthPrefix) that ParseSchema adds for
// every object type.
package graphql
