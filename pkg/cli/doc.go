// Package cli provides the command-line interface for seedql.
//
// Commands:
//   - serve: Run the mock server for the schemas in a project file
//   - validate: Check seed files without starting a server
//   - merge: Apply a seed patch to a baseline offline and print warnings
//   - rewrite: Print an operation as the server rewrites it
//   - version: Show seedql version
//
// Every command accepts --json for machine-readable output and
// --log-level/--log-format for diagnostics on stderr.
//
// Usage:
//
//	seedql serve -c seedql.yaml
//	seedql validate 'seeds/**/*.yaml'
//	seedql merge --baseline baseline.json --patch seed.yaml
//	seedql rewrite queries/owner.graphql
package cli
