package seed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/getmockd/seedql/pkg/graphql"
	"github.com/getmockd/seedql/pkg/merge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

type recordingObserver struct {
	mu        sync.Mutex
	matches   int
	misses    int
	exhausted int
	warnings  int
	errors    int
}

func (o *recordingObserver) OnRegister(string, string, Kind) {}
func (o *recordingObserver) OnMatch(string, string, Kind)    { o.inc(&o.matches) }
func (o *recordingObserver) OnMiss(string, string)           { o.inc(&o.misses) }
func (o *recordingObserver) OnWarnings(_ string, n int)      { o.add(&o.warnings, n) }
func (o *recordingObserver) OnExhausted(string, string)      { o.inc(&o.exhausted) }
func (o *recordingObserver) OnError(string, error)           { o.inc(&o.errors) }

func (o *recordingObserver) inc(n *int) { o.add(n, 1) }

func (o *recordingObserver) add(n *int, d int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	*n += d
}

func userBaseline() *graphql.Response {
	return &graphql.Response{Data: map[string]any{
		"__typename": "Query",
		"user": map[string]any{
			"__typename": "User",
			"id":         "generated",
			"name":       "Hello World",
		},
	}}
}

func userSeed(name string) Input {
	return Input{
		OperationName:  "GetUser",
		MatchArguments: map[string]any{"id": "1"},
		SeedResponse: map[string]any{
			"data": map[string]any{"user": map[string]any{"name": name}},
		},
	}
}

func resolve(t *testing.T, reg *Registry, vars map[string]any) *Resolution {
	t.Helper()
	res, err := reg.ResolveResponse(context.Background(), "GetUser", vars, userBaseline(), "g", &merge.Context{OperationName: "GetUser"})
	require.NoError(t, err)
	return res
}

func userName(t *testing.T, res *Resolution) any {
	t.Helper()
	resp, ok := res.Body.(*graphql.Response)
	require.True(t, ok, "expected *graphql.Response body, got %T", res.Body)
	return resp.Data["user"].(map[string]any)["name"]
}

func TestRegistry_LastMatchWins(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("g", KindOperation, userSeed("first"), OptionsInput{})
	require.NoError(t, err)
	second, err := reg.Register("g", KindOperation, userSeed("second"), OptionsInput{})
	require.NoError(t, err)

	res := resolve(t, reg, map[string]any{"id": "1"})
	assert.True(t, res.Matched)
	assert.Equal(t, second.ID, res.SeedID)
	assert.Equal(t, "second", userName(t, res))
}

func TestRegistry_UsageExhaustion(t *testing.T) {
	obs := &recordingObserver{}
	reg := NewRegistry(WithObserver(obs))
	_, err := reg.Register("g", KindOperation, userSeed("seeded"), OptionsInput{UsesLeft: intPtr(1)})
	require.NoError(t, err)

	first := resolve(t, reg, map[string]any{"id": "1"})
	assert.True(t, first.Matched)
	assert.Equal(t, "seeded", userName(t, first))

	second := resolve(t, reg, map[string]any{"id": "1"})
	assert.False(t, second.Matched)
	assert.Equal(t, 200, second.StatusCode)
	assert.Equal(t, "Hello World", userName(t, second))

	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 1, obs.matches)
	assert.Equal(t, 1, obs.misses)
	assert.Equal(t, 1, obs.exhausted)
}

func TestRegistry_FallsBackToEarlierSeedAfterExhaustion(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("g", KindOperation, userSeed("older"), OptionsInput{})
	require.NoError(t, err)
	_, err = reg.Register("g", KindOperation, userSeed("newer"), OptionsInput{UsesLeft: intPtr(2)})
	require.NoError(t, err)

	assert.Equal(t, "newer", userName(t, resolve(t, reg, map[string]any{"id": "1"})))
	assert.Equal(t, "newer", userName(t, resolve(t, reg, map[string]any{"id": "1"})))
	assert.Equal(t, "older", userName(t, resolve(t, reg, map[string]any{"id": "1"})))
	assert.Equal(t, "older", userName(t, resolve(t, reg, map[string]any{"id": "1"})))
}

func TestRegistry_PartialVersusExactMatching(t *testing.T) {
	args := map[string]any{"id": "1", "extra": "x"}

	exact := NewRegistry()
	_, err := exact.Register("g", KindOperation, userSeed("seeded"), OptionsInput{PartialArgsMatch: boolPtr(false)})
	require.NoError(t, err)
	assert.Nil(t, exact.FindBestMatch("g", "GetUser", args))

	partial := NewRegistry()
	_, err = partial.Register("g", KindOperation, userSeed("seeded"), OptionsInput{PartialArgsMatch: boolPtr(true)})
	require.NoError(t, err)
	assert.NotNil(t, partial.FindBestMatch("g", "GetUser", args))
}

func TestRegistry_GroupsAreIsolated(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("a", KindOperation, userSeed("seeded"), OptionsInput{})
	require.NoError(t, err)

	assert.NotNil(t, reg.FindBestMatch("a", "GetUser", map[string]any{"id": "1"}))
	assert.Nil(t, reg.FindBestMatch("b", "GetUser", map[string]any{"id": "1"}))
	assert.Nil(t, reg.FindBestMatch("a", "OtherOp", map[string]any{"id": "1"}))
}

func TestRegistry_RegisterRejectsInvalidSeed(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("", KindOperation, userSeed("x"), OptionsInput{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, reg.Len(), "nothing is stored on validation failure")
}

func TestRegistry_Update(t *testing.T) {
	reg := NewRegistry()
	original, err := reg.Register("g", KindOperation, userSeed("before"), OptionsInput{UsesLeft: intPtr(5)})
	require.NoError(t, err)

	updated, err := reg.Update("g", map[string]any{"id": "1"}, Input{
		OperationName:  "GetUser",
		MatchArguments: map[string]any{"id": "2"},
		SeedResponse:   map[string]any{"data": map[string]any{"user": map[string]any{"name": "after"}}},
	}, OptionsInput{})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, 5, updated.Options.UsesLeft, "unset options keep their values")

	assert.Nil(t, reg.FindBestMatch("g", "GetUser", map[string]any{"id": "1"}))
	res := resolve(t, reg, map[string]any{"id": "2"})
	assert.Equal(t, "after", userName(t, res))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_UpdateMissingIsNoop(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("g", KindOperation, userSeed("before"), OptionsInput{})
	require.NoError(t, err)

	updated, err := reg.Update("g", map[string]any{"id": "404"}, userSeed("after"), OptionsInput{})
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.Equal(t, "before", userName(t, resolve(t, reg, map[string]any{"id": "1"})))
}

func TestRegistry_UpdateValidatesAsOperation(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Update("g", nil, Input{OperationName: "GetUser"}, OptionsInput{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRegistry_Delete(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("g", KindOperation, userSeed("seeded"), OptionsInput{})
	require.NoError(t, err)

	assert.Nil(t, reg.Delete("g", "GetUser", map[string]any{"id": "2"}))
	assert.Equal(t, 1, reg.Len())

	deleted := reg.Delete("g", "GetUser", map[string]any{"id": "1"})
	require.NotNil(t, deleted)
	assert.Equal(t, "GetUser", deleted.OperationName)
	assert.Equal(t, 0, reg.Len())
	assert.Nil(t, reg.Delete("g", "GetUser", map[string]any{"id": "1"}))
}

func TestRegistry_UpdateAndDeleteFollowMatchingRules(t *testing.T) {
	args := map[string]any{"id": "1", "extra": "x"}

	exact := NewRegistry()
	_, err := exact.Register("g", KindOperation, userSeed("before"), OptionsInput{})
	require.NoError(t, err)
	updated, err := exact.Update("g", args, userSeed("after"), OptionsInput{})
	require.NoError(t, err)
	assert.Nil(t, updated, "exact seed does not accept extra arguments")
	assert.Nil(t, exact.Delete("g", "GetUser", args))
	assert.Equal(t, 1, exact.Len())

	partial := NewRegistry()
	original, err := partial.Register("g", KindOperation, userSeed("before"), OptionsInput{PartialArgsMatch: boolPtr(true)})
	require.NoError(t, err)

	updated, err = partial.Update("g", args, userSeed("after"), OptionsInput{})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, original.ID, updated.ID)
	assert.True(t, updated.Options.PartialArgsMatch)
	assert.Equal(t, "after", userName(t, resolve(t, partial, args)))

	deleted := partial.Delete("g", "GetUser", args)
	require.NotNil(t, deleted)
	assert.Equal(t, original.ID, deleted.ID)
	assert.Equal(t, 0, partial.Len())
}

func TestRegistry_NetworkError(t *testing.T) {
	reg := NewRegistry()
	payload := map[string]any{"message": "upstream unavailable"}
	_, err := reg.Register("g", KindNetworkError, Input{
		OperationName:  "GetUser",
		MatchArguments: map[string]any{"id": "1"},
		SeedResponse:   payload,
	}, OptionsInput{StatusCode: intPtr(503)})
	require.NoError(t, err)

	res := resolve(t, reg, map[string]any{"id": "1"})
	assert.True(t, res.Matched)
	assert.Equal(t, 503, res.StatusCode)
	assert.Equal(t, payload, res.Body)
}

func TestRegistry_OperationErrorsAndNullData(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("g", KindOperation, Input{
		OperationName: "GetUser",
		SeedResponse: map[string]any{
			"data":   nil,
			"errors": []any{map[string]any{"message": "seeded failure"}},
		},
	}, OptionsInput{})
	require.NoError(t, err)

	baseline := userBaseline()
	baseline.Errors = gqlerror.List{gqlerror.Errorf("baseline failure")}

	res, err := reg.ResolveResponse(context.Background(), "GetUser", nil, baseline, "g", nil)
	require.NoError(t, err)

	resp := res.Body.(*graphql.Response)
	assert.Nil(t, resp.Data)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, "seeded failure", resp.Errors[0].Message)
	assert.Equal(t, "baseline failure", resp.Errors[1].Message)
	assert.Equal(t, 200, res.StatusCode)
}

func TestRegistry_ErrorsOnlyKeepsBaselineData(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("g", KindOperation, Input{
		OperationName: "GetUser",
		SeedResponse:  map[string]any{"errors": []any{map[string]any{"message": "partial"}}},
	}, OptionsInput{})
	require.NoError(t, err)

	res, err := reg.ResolveResponse(context.Background(), "GetUser", nil, userBaseline(), "g", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", userName(t, res))
}

func TestRegistry_WarningsExtension(t *testing.T) {
	obs := &recordingObserver{}
	reg := NewRegistry(WithObserver(obs))
	_, err := reg.Register("g", KindOperation, Input{
		OperationName:  "GetUser",
		MatchArguments: map[string]any{"id": "1"},
		SeedResponse: map[string]any{"data": map[string]any{
			"user": map[string]any{"name": "Ada", "email": "ada@example.com"},
		}},
	}, OptionsInput{})
	require.NoError(t, err)

	res := resolve(t, reg, map[string]any{"id": "1"})
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "user.email", res.Warnings[0].Path)

	resp := res.Body.(*graphql.Response)
	assert.Equal(t, res.Warnings, resp.Extensions[WarningsExtension])
	assert.Equal(t, 1, obs.warnings)
}

func TestRegistry_SchemaInconsistencyIsFatal(t *testing.T) {
	obs := &recordingObserver{}
	reg := NewRegistry(WithObserver(obs))
	_, err := reg.Register("g", KindOperation, Input{
		OperationName: "GetUser",
		SeedResponse: map[string]any{"data": map[string]any{
			"user": map[string]any{"__typename": "Admin"},
		}},
	}, OptionsInput{UsesLeft: intPtr(1)})
	require.NoError(t, err)

	failing := merge.GeneratorFunc(func(context.Context, []string, string) (map[string]any, error) {
		return nil, errors.New("no such type")
	})
	_, err = reg.ResolveResponse(context.Background(), "GetUser", nil, userBaseline(), "g", &merge.Context{Generator: failing})

	var inconsistency *merge.SchemaInconsistencyError
	require.ErrorAs(t, err, &inconsistency)
	assert.Equal(t, 1, obs.errors)
	assert.Equal(t, 1, reg.Len(), "a failed merge does not consume the seed")
}

func TestRegistry_DoesNotMutateBaseline(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("g", KindOperation, userSeed("seeded"), OptionsInput{})
	require.NoError(t, err)

	baseline := userBaseline()
	_, err = reg.ResolveResponse(context.Background(), "GetUser", map[string]any{"id": "1"}, baseline, "g", nil)
	require.NoError(t, err)
	assert.Equal(t, userBaseline(), baseline)
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("g", KindOperation, userSeed("seeded"), OptionsInput{UsesLeft: intPtr(10)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.ResolveResponse(context.Background(), "GetUser", map[string]any{"id": "1"}, userBaseline(), "g", nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, reg.Len())
}
