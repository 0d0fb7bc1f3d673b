// Package instance ties the rewriter, executor, seed registry and merge
// engine together into a mock instance per (schema source, variant).
//
// A request flows through an instance as follows: the operation text is
// rewritten (fragments inlined, __typename injected), executed against the
// schema to produce a baseline, matched against the group's seeds and,
// when a seed matches, merged with its override. When the merge needs a
// fresh object of a concrete type it re-roots the operation at that path
// and executes the scoped query with the same executor.
//
// The Manager builds instances lazily. Construction for a key runs at most
// once at a time, so concurrent first requests share one registry.
package instance
