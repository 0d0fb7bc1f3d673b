// Package seed implements the seed registry: the data model for user-authored
// response overrides, their validation, the argument matching rules and the
// per-instance store that orders seeds by registration.
//
// A seed belongs to a group (an opaque scope such as a test scenario) and an
// operation name. Seeds of kind "operation" carry a partial {data, errors}
// patch that is merged onto the generated baseline; seeds of kind
// "networkError" replace the response outright.
//
// Matching:
//
// Every key in a seed's matchArguments must be present in the request
// variables with a deep-equal value; nested objects are matched recursively.
// Unless partialArgsMatch is set, the recursive key count of matchArguments
// must also equal that of the variables. When several seeds match, the most
// recently registered one wins.
//
// Thread Safety:
//
// Store and Registry are safe for concurrent use. Stored seeds are never
// modified in place; updates and usage decrements swap in a copy, so a seed
// returned by FindBestMatch stays consistent for the caller.
//
// Usage:
//
//	reg := seed.NewRegistry(seed.WithEngine(engine), seed.WithLogger(logger))
//	_, err := reg.Register("scenario-1", seed.KindOperation, seed.Input{
//	    OperationName:  "GetUser",
//	    MatchArguments: map[string]any{"id": "1"},
//	    SeedResponse:   map[string]any{"data": map[string]any{"user": map[string]any{"name": "Ada"}}},
//	}, seed.OptionsInput{})
//
//	res, err := reg.ResolveResponse(ctx, "GetUser", vars, baseline, "scenario-1", mc)
package seed
