// Package merge overlays partial seed responses onto generated baselines.
//
// A baseline is a complete response tree produced by the executor. A patch is
// the partial tree a seed author wrote. Merge walks the patch and layers each
// key onto a copy of the baseline:
//
//   - objects merge recursively
//   - scalars replace the baseline value when the baseline has the key
//   - arrays are rebuilt from the baseline's first item, which serves as a
//     template for every patch item
//   - {"$length": n, "$0": {...}} grows or shrinks a list to n freshly
//     generated items and patches individual positions
//   - a __typename that differs from the baseline's asks the Generator for a
//     fresh object of the patch's type before merging into it
//
// Keys the baseline does not have are dropped with a Warning rather than an
// error, so an author iterating on a seed always gets a response back. Only a
// failure to re-synthesize a typed object aborts the merge, with a
// *SchemaInconsistencyError.
package merge
