// Package config loads the seedql project file and seed files.
//
// A project file names the schemas to serve and tunes the server, the
// response generator, and the merge directives:
//
//	server:
//	  addr: ":4280"
//	schemas:
//	  - name: pets
//	    file: schema/pets.graphql
//	  - name: pets
//	    variant: next
//	    files: [schema/pets.graphql, schema/pets-next.graphql]
//	seedFiles:
//	  - seeds/**/*.yaml
//
// Seed files hold a list of seed records, optionally under a seeds key.
// Records are registered on each matching instance when it is built.
package config
