package instance

import (
	"context"
	"fmt"

	"github.com/getmockd/seedql/pkg/graphql"
	"github.com/getmockd/seedql/pkg/merge"
	"github.com/ohler55/ojg/jp"
)

// resynthesizer regenerates objects for the merge engine by re-rooting the
// request's operation at a path and executing it with the instance's
// executor.
type resynthesizer struct {
	executor      *graphql.Executor
	query         string
	operationName string
	variables     map[string]any
}

var _ merge.Generator = (*resynthesizer)(nil)

// Generate returns a fresh object of typeName shaped like the selection at
// path.
func (r *resynthesizer) Generate(ctx context.Context, path []string, typeName string) (map[string]any, error) {
	scoped, err := graphql.BuildScopedQuery(r.executor.Schema(), r.query, r.operationName, path, typeName)
	if err != nil {
		return nil, err
	}

	resp := r.executor.Execute(ctx, &graphql.Request{
		Query:         scoped.Query,
		OperationName: scoped.OperationName,
		Variables:     r.variables,
	})
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("scoped query failed: %w", resp.Errors)
	}

	obj, ok := jp.R().C(scoped.RootField).First(resp.Data).(map[string]any)
	if !ok {
		return nil, &graphql.ResolveError{Path: path, TypeName: typeName, Reason: "scoped query produced no object"}
	}
	return obj, nil
}
