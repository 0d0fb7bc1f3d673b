package instance

import (
	"context"
	"log/slog"

	"github.com/getmockd/seedql/pkg/graphql"
	"github.com/getmockd/seedql/pkg/merge"
	"github.com/getmockd/seedql/pkg/seed"
)

// DefaultGroup is the group used when a request names none.
const DefaultGroup = "default"

// Instance is a running mock for one schema variant. It owns its seed
// registry; seeds do not outlive it.
type Instance struct {
	Key      Key
	Schema   *graphql.Schema
	Executor *graphql.Executor
	Registry *seed.Registry
	Engine   *merge.Engine

	log *slog.Logger
}

// Execute answers a request: the operation is rewritten, executed to
// produce a baseline, and resolved through the seed registry. Unparsable
// operation text returns *graphql.SyntaxError before anything runs.
func (i *Instance) Execute(ctx context.Context, groupID string, req *graphql.Request) (*seed.Resolution, error) {
	if req == nil || req.Query == "" {
		return nil, &graphql.SyntaxError{Message: graphql.ErrEmptyQuery.Error()}
	}
	if groupID == "" {
		groupID = DefaultGroup
	}

	rewritten, err := graphql.Rewrite(req.Query, req.OperationName)
	if err != nil {
		return nil, err
	}

	baseline := i.Executor.Execute(ctx, &graphql.Request{
		Query:         rewritten.Query,
		OperationName: req.OperationName,
		Variables:     req.Variables,
	})

	mc := &merge.Context{
		OperationName: rewritten.OperationName,
		Variables:     req.Variables,
		Query:         rewritten.Query,
		Generator: &resynthesizer{
			executor:      i.Executor,
			query:         rewritten.Query,
			operationName: req.OperationName,
			variables:     req.Variables,
		},
	}

	res, err := i.Registry.ResolveResponse(ctx, rewritten.OperationName, req.Variables, baseline, groupID, mc)
	if err != nil {
		return nil, err
	}
	if res.Matched {
		i.log.Debug("request answered by seed",
			"operation", rewritten.OperationName,
			"group", groupID,
			"seed", res.SeedID,
			"warnings", len(res.Warnings),
		)
	}
	return res, nil
}
