package instance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/getmockd/seedql/pkg/graphql"
	"github.com/getmockd/seedql/pkg/logging"
	"github.com/getmockd/seedql/pkg/merge"
	"github.com/getmockd/seedql/pkg/seed"
	"golang.org/x/sync/singleflight"
)

// PreloadFunc populates a freshly built instance, typically with seeds from
// seed files and the persistence store. An error aborts construction.
type PreloadFunc func(ctx context.Context, inst *Instance) error

// Observer is notified when instances are built.
type Observer interface {
	OnInstanceCreated(source, variant string, duration time.Duration)
}

// Options configures a Manager.
type Options struct {
	Generator    graphql.GeneratorConfig
	Merge        merge.Options
	Preload      PreloadFunc
	SeedObserver seed.Observer
	Observer     Observer
	Logger       *slog.Logger
}

// Manager builds mock instances on first use and keeps them for the life of
// the process. Concurrent first requests for the same key share a single
// construction.
type Manager struct {
	source SchemaSource
	opts   Options
	log    *slog.Logger

	mu        sync.RWMutex
	instances map[Key]*Instance
	sf        singleflight.Group
}

// NewManager creates a manager reading schemas from source.
func NewManager(source SchemaSource, opts Options) *Manager {
	return &Manager{
		source:    source,
		opts:      opts,
		log:       logging.Component(opts.Logger, "instances"),
		instances: make(map[Key]*Instance),
	}
}

// Get returns the instance for key, building it if needed.
func (m *Manager) Get(ctx context.Context, key Key) (*Instance, error) {
	if inst := m.lookup(key); inst != nil {
		return inst, nil
	}

	v, err, _ := m.sf.Do(key.String(), func() (any, error) {
		if inst := m.lookup(key); inst != nil {
			return inst, nil
		}
		inst, err := m.build(ctx, key)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.instances[key] = inst
		m.mu.Unlock()
		return inst, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Instance), nil
}

func (m *Manager) lookup(key Key) *Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[key]
}

func (m *Manager) build(ctx context.Context, key Key) (*Instance, error) {
	start := time.Now()

	sdl, err := m.source.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	schema, err := graphql.ParseSchema(sdl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema for %s: %w", key, err)
	}

	log := m.log.With("source", key.Source, "variant", key.Variant)
	engine := merge.NewEngine(m.opts.Merge, log)
	inst := &Instance{
		Key:      key,
		Schema:   schema,
		Executor: graphql.NewExecutor(schema, graphql.NewGenerator(m.opts.Generator), log),
		Engine:   engine,
		Registry: seed.NewRegistry(
			seed.WithEngine(engine),
			seed.WithObserver(m.opts.SeedObserver),
			seed.WithLogger(log),
		),
		log: log,
	}

	if m.opts.Preload != nil {
		if err := m.opts.Preload(ctx, inst); err != nil {
			return nil, fmt.Errorf("failed to preload %s: %w", key, err)
		}
	}

	elapsed := time.Since(start)
	if m.opts.Observer != nil {
		m.opts.Observer.OnInstanceCreated(key.Source, key.Variant, elapsed)
	}
	log.Info("mock instance ready",
		"queries", len(schema.ListQueries()),
		"seeds", inst.Registry.Len(),
		"duration", elapsed,
	)
	return inst, nil
}

// Keys returns the keys of the built instances in sorted order.
func (m *Manager) Keys() []Key {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]Key, 0, len(m.instances))
	for k := range m.instances {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Close drops every instance and its seeds.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances = make(map[Key]*Instance)
	return nil
}

// ChainPreload runs preload functions in order, stopping at the first
// error. Nil entries are skipped.
func ChainPreload(fns ...PreloadFunc) PreloadFunc {
	return func(ctx context.Context, inst *Instance) error {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(ctx, inst); err != nil {
				return err
			}
		}
		return nil
	}
}
