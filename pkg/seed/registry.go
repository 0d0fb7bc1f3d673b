package seed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getmockd/seedql/pkg/graphql"
	"github.com/getmockd/seedql/pkg/logging"
	"github.com/getmockd/seedql/pkg/merge"
	"github.com/mohae/deepcopy"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// WarningsExtension is the response extension that lists merge warnings.
const WarningsExtension = "seedWarnings"

// Resolution is the outcome of answering a request through the registry.
type Resolution struct {
	// Body is the response to send: a *graphql.Response for unmatched
	// requests and operation seeds, the seed payload for network errors.
	Body any
	// StatusCode is the HTTP status to send.
	StatusCode int
	// Warnings are the non-fatal merge mismatches.
	Warnings []merge.Warning
	// SeedID is the ID of the matched seed, if any.
	SeedID string
	// Matched reports whether a seed answered the request.
	Matched bool
}

// Registry is the seed table of one mock instance.
type Registry struct {
	store    *Store
	engine   *merge.Engine
	observer Observer
	log      *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.log = logging.Component(logger, "seeds")
	}
}

// WithEngine sets the merge engine used for operation seeds.
func WithEngine(engine *merge.Engine) Option {
	return func(r *Registry) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// WithObserver sets the observer notified of registry events.
func WithObserver(observer Observer) Option {
	return func(r *Registry) {
		if observer != nil {
			r.observer = observer
		}
	}
}

// WithStore sets the backing store.
func WithStore(store *Store) Option {
	return func(r *Registry) {
		if store != nil {
			r.store = store
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		store:    NewStore(),
		observer: NoopObserver{},
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.engine == nil {
		r.engine = merge.NewEngine(merge.DefaultOptions(), r.log)
	}
	return r
}

// Register validates a seed and appends it to its bucket.
func (r *Registry) Register(groupID string, kind Kind, in Input, opts OptionsInput) (*Seed, error) {
	s, err := Validate(groupID, kind, in, opts)
	if err != nil {
		return nil, err
	}
	r.Add(s)
	return s, nil
}

// Add appends an already validated seed, such as one restored from disk.
func (r *Registry) Add(s *Seed) {
	r.store.Append(s)
	r.observer.OnRegister(s.GroupID, s.OperationName, s.Kind)
	r.log.Info("seed registered",
		"id", s.ID,
		"group", s.GroupID,
		"operation", s.OperationName,
		"kind", s.Kind,
		"usesLeft", s.Options.UsesLeft,
	)
}

// Update replaces the override of the seed that oldArgs identifies. The
// target is the most recent seed in the group's bucket for
// in.OperationName whose matching rules accept oldArgs. The replacement is
// validated as an operation seed; nil option fields keep their current
// values. When no seed matches, Update logs and returns nil.
func (r *Registry) Update(groupID string, oldArgs map[string]any, in Input, opts OptionsInput) (*Seed, error) {
	updated, err := Validate(groupID, KindOperation, in, opts)
	if err != nil {
		return nil, err
	}

	target := r.store.Find(groupID, in.OperationName, func(s *Seed) bool {
		return s.Matches(oldArgs)
	})
	if target == nil {
		r.notFound(groupID, in.OperationName, "update")
		return nil, nil
	}

	updated.ID = target.ID
	updated.CreatedAt = target.CreatedAt
	updated.Options = opts.overlay(target.Options)
	if !r.store.Replace(updated) {
		r.notFound(groupID, in.OperationName, "update")
		return nil, nil
	}

	r.log.Info("seed updated", "id", updated.ID, "group", groupID, "operation", in.OperationName)
	return updated, nil
}

// Delete removes the seed that oldArgs identifies and returns it. A missing
// seed is logged, not returned as an error, and Delete returns nil.
func (r *Registry) Delete(groupID, operationName string, oldArgs map[string]any) *Seed {
	target := r.store.Find(groupID, operationName, func(s *Seed) bool {
		return s.Matches(oldArgs)
	})
	if target == nil || !r.store.Remove(groupID, operationName, target.ID) {
		r.notFound(groupID, operationName, "delete")
		return nil
	}

	r.log.Info("seed deleted", "id", target.ID, "group", groupID, "operation", operationName)
	return target
}

func (r *Registry) notFound(groupID, operationName, action string) {
	err := &NotFoundError{GroupID: groupID, OperationName: operationName}
	r.log.Warn("seed "+action+" ignored", "error", err)
}

// FindBestMatch returns the most recently registered seed of the group that
// matches the runtime arguments, or nil.
func (r *Registry) FindBestMatch(groupID, operationName string, args map[string]any) *Seed {
	return r.store.Find(groupID, operationName, func(s *Seed) bool {
		return s.Options.UsesLeft != 0 && s.Matches(args)
	})
}

// List returns the seeds of a group, or all seeds when groupID is empty.
func (r *Registry) List(groupID string) []*Seed {
	return r.store.List(groupID)
}

// Len returns the number of registered seeds.
func (r *Registry) Len() int {
	return r.store.Len()
}

// ResolveResponse answers a request. Without a matching seed the baseline
// is returned with status 200. A network error seed answers with its
// payload; an operation seed's data is merged onto the baseline and its
// errors are placed before the baseline's. The matched seed's use count is
// decremented once the response is built.
func (r *Registry) ResolveResponse(ctx context.Context, operationName string, variables map[string]any, baseline *graphql.Response, groupID string, mc *merge.Context) (*Resolution, error) {
	if baseline == nil {
		baseline = &graphql.Response{}
	}

	s := r.FindBestMatch(groupID, operationName, variables)
	if s == nil {
		r.observer.OnMiss(groupID, operationName)
		return &Resolution{Body: baseline, StatusCode: http.StatusOK}, nil
	}

	res := &Resolution{
		StatusCode: s.Options.StatusCode,
		SeedID:     s.ID,
		Matched:    true,
	}

	switch s.Kind {
	case KindNetworkError:
		res.Body = deepcopy.Copy(s.Response)

	case KindOperation:
		resp, warnings, err := r.applyPatch(ctx, s, baseline, mc)
		if err != nil {
			r.observer.OnError(operationName, err)
			r.log.Error("seed merge failed", "operation", operationName, "seed", s.ID, "error", err)
			return nil, err
		}
		res.Body = resp
		res.Warnings = warnings
		if len(warnings) > 0 {
			r.observer.OnWarnings(operationName, len(warnings))
		}

	default:
		return nil, fmt.Errorf("seed %s has unknown kind %q", s.ID, s.Kind)
	}

	r.observer.OnMatch(groupID, operationName, s.Kind)
	if _, removed := r.store.Consume(s); removed {
		r.observer.OnExhausted(groupID, operationName)
		r.log.Debug("seed exhausted", "id", s.ID, "group", groupID, "operation", operationName)
	}
	return res, nil
}

func (r *Registry) applyPatch(ctx context.Context, s *Seed, baseline *graphql.Response, mc *merge.Context) (*graphql.Response, []merge.Warning, error) {
	resp := &graphql.Response{Data: baseline.Data}
	for k, v := range baseline.Extensions {
		resp.SetExtension(k, v)
	}

	var warnings []merge.Warning
	if s.patch != nil && s.patch.hasData {
		if s.patch.data == nil {
			resp.Data = nil
		} else {
			merged, w, err := r.engine.Merge(ctx, baseline.Data, s.patch.data, mc)
			if err != nil {
				return nil, nil, err
			}
			resp.Data = merged
			warnings = w
		}
	}

	resp.Errors = append(copyErrors(s.errorsOf()), baseline.Errors...)
	if len(warnings) > 0 {
		resp.SetExtension(WarningsExtension, warnings)
	}
	return resp, warnings, nil
}

// copyErrors returns fresh copies of the seed's errors so responses never
// share them.
func copyErrors(errs gqlerror.List) gqlerror.List {
	if len(errs) == 0 {
		return nil
	}
	out := make(gqlerror.List, len(errs))
	for i, e := range errs {
		cp := *e
		out[i] = &cp
	}
	return out
}
