package merge

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/getmockd/seedql/pkg/logging"
	"github.com/mohae/deepcopy"
)

// Default directive keys.
const (
	DefaultLengthKey     = "$length"
	DefaultIndexPrefix   = "$"
	DefaultDiscriminator = "__typename"
	DefaultMaxLength     = 1000
)

// Generator synthesizes a fresh object of a concrete type, shaped like the
// operation's selection at path. Path elements are response keys; list
// positions are not included.
type Generator interface {
	Generate(ctx context.Context, path []string, typeName string) (map[string]any, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, path []string, typeName string) (map[string]any, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, path []string, typeName string) (map[string]any, error) {
	return f(ctx, path, typeName)
}

// Options configures the reserved keys the engine recognizes.
type Options struct {
	// LengthKey marks an object as a list-with-count directive.
	LengthKey string `json:"lengthKey,omitempty" yaml:"lengthKey,omitempty"`
	// IndexPrefix prefixes per-position overrides inside a list directive.
	// Patch keys with this prefix are never reported as unknown.
	IndexPrefix string `json:"indexPrefix,omitempty" yaml:"indexPrefix,omitempty"`
	// Discriminator is the field naming an object's concrete type.
	Discriminator string `json:"discriminator,omitempty" yaml:"discriminator,omitempty"`
	// MaxLength caps the item count a list directive may request.
	MaxLength int `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
}

// DefaultOptions returns the standard directive keys.
func DefaultOptions() Options {
	return Options{
		LengthKey:     DefaultLengthKey,
		IndexPrefix:   DefaultIndexPrefix,
		Discriminator: DefaultDiscriminator,
		MaxLength:     DefaultMaxLength,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LengthKey == "" {
		o.LengthKey = d.LengthKey
	}
	if o.IndexPrefix == "" {
		o.IndexPrefix = d.IndexPrefix
	}
	if o.Discriminator == "" {
		o.Discriminator = d.Discriminator
	}
	if o.MaxLength <= 0 {
		o.MaxLength = d.MaxLength
	}
	return o
}

// Context is the per-request state a merge runs with.
type Context struct {
	OperationName string
	Variables     map[string]any
	// Query is the rewritten operation text.
	Query     string
	Generator Generator
}

// Engine merges seed patches into baselines. It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	opts Options
	log  *slog.Logger
}

// NewEngine creates an engine. Empty option fields take their defaults.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		opts: opts.withDefaults(),
		log:  logging.Component(logger, "merge"),
	}
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Merge layers patch onto a copy of baseline. Neither input is modified and
// the result shares no maps or slices with them.
func (e *Engine) Merge(ctx context.Context, baseline, patch map[string]any, mc *Context) (map[string]any, []Warning, error) {
	if mc == nil {
		mc = &Context{}
	}
	r := &run{Engine: e, ctx: ctx, mc: mc}

	result, err := r.mergeObject(baseline, patch, location{})
	if err != nil {
		return nil, nil, err
	}

	for _, w := range r.warnings {
		e.log.Debug("seed key not applied", "operation", mc.OperationName, "path", w.Path, "reason", w.Message)
	}
	return result, r.warnings, nil
}

// run carries the state of one Merge call.
type run struct {
	*Engine
	ctx      context.Context
	mc       *Context
	warnings []Warning
}

// location tracks both the generator path (response keys only) and the
// display path used in warnings.
type location struct {
	keys    []string
	display string
}

func (l location) child(key string) location {
	keys := make([]string, len(l.keys), len(l.keys)+1)
	copy(keys, l.keys)
	display := key
	if l.display != "" {
		display = l.display + "." + key
	}
	return location{keys: append(keys, key), display: display}
}

func (l location) index(i int) location {
	return location{keys: l.keys, display: l.display + "[" + strconv.Itoa(i) + "]"}
}

func (r *run) warn(loc location, key, msg string) {
	r.warnings = append(r.warnings, Warning{Path: loc.display, Key: key, Message: msg})
}

func (r *run) mergeObject(base, patch map[string]any, loc location) (map[string]any, error) {
	result := cloneObject(base)

	if patchType, ok := r.discriminator(patch); ok {
		if baseType, ok := r.discriminator(base); ok && baseType != patchType {
			if r.mc.Generator == nil {
				r.warn(loc.child(r.opts.Discriminator), r.opts.Discriminator, MsgVerbatimOverride)
				return cloneObject(patch), nil
			}
			fresh, err := r.generate(loc, patchType)
			if err != nil {
				return nil, err
			}
			result = fresh
		}
	}

	for _, key := range sortedKeys(patch) {
		value := patch[key]
		current, exists := result[key]
		keyLoc := loc.child(key)

		if !exists {
			if !r.isPseudoKey(key) {
				r.warn(keyLoc, key, MsgKeyNotFound)
			}
			continue
		}

		switch v := value.(type) {
		case map[string]any:
			if _, ok := v[r.opts.LengthKey]; ok {
				items, ok, err := r.growList(current, v, keyLoc)
				if err != nil {
					return nil, err
				}
				if ok {
					result[key] = items
				}
				continue
			}

			switch c := current.(type) {
			case map[string]any:
				merged, err := r.mergeObject(c, v, keyLoc)
				if err != nil {
					return nil, err
				}
				result[key] = merged
			case nil:
				// A null baseline is an empty sentinel and takes the patch as is.
				result[key] = deepcopy.Copy(v)
			default:
				r.warn(keyLoc, key, MsgExpectedObject)
			}

		case []any:
			items, ok, err := r.mergeList(current, v, keyLoc)
			if err != nil {
				return nil, err
			}
			if ok {
				result[key] = items
			}

		default:
			result[key] = value
		}
	}

	return result, nil
}

// mergeList rebuilds a list from the baseline's first item.
func (r *run) mergeList(current any, patch []any, loc location) ([]any, bool, error) {
	list, ok := current.([]any)
	if !ok || len(list) == 0 {
		r.warn(loc, lastKey(loc), MsgExpectedList)
		return nil, false, nil
	}
	template := list[0]

	out := make([]any, len(patch))
	for i, item := range patch {
		obj, isObject := item.(map[string]any)
		switch {
		case !isObject:
			out[i] = deepcopy.Copy(item)
		case len(obj) == 0:
			out[i] = deepcopy.Copy(template)
		default:
			tmpl, ok := template.(map[string]any)
			if !ok {
				r.warn(loc.index(i), lastKey(loc), MsgExpectedObject)
				out[i] = deepcopy.Copy(template)
				continue
			}
			merged, err := r.mergeObject(tmpl, obj, loc.index(i))
			if err != nil {
				return nil, false, err
			}
			out[i] = merged
		}
	}
	return out, true, nil
}

// growList handles {"$length": n, "$i": {...}} directives.
func (r *run) growList(current any, directive map[string]any, loc location) ([]any, bool, error) {
	list, ok := current.([]any)
	if !ok {
		r.warn(loc, lastKey(loc), MsgExpectedList)
		return nil, false, nil
	}
	if len(list) == 0 {
		r.warn(loc, lastKey(loc), MsgNoTemplate)
		return nil, false, nil
	}
	n, ok := toLength(directive[r.opts.LengthKey], r.opts.MaxLength)
	if !ok {
		r.warn(loc.child(r.opts.LengthKey), r.opts.LengthKey, MsgInvalidLength)
		return nil, false, nil
	}

	items := make([]any, n)
	for i := range items {
		item, err := r.synthesize(list[0], loc)
		if err != nil {
			return nil, false, err
		}
		items[i] = item
	}

	for _, key := range sortedKeys(directive) {
		if key == r.opts.LengthKey {
			continue
		}
		idx, ok := r.indexKey(key)
		if !ok {
			r.warn(loc.child(key), key, MsgKeyNotFound)
			continue
		}
		if idx >= n {
			r.warn(loc.child(key), key, MsgIndexOutOfRange)
			continue
		}

		override := directive[key]
		patch, isObject := override.(map[string]any)
		item, itemIsObject := items[idx].(map[string]any)
		if !isObject || !itemIsObject {
			items[idx] = deepcopy.Copy(override)
			continue
		}
		merged, err := r.mergeObject(item, patch, loc.index(idx))
		if err != nil {
			return nil, false, err
		}
		items[idx] = merged
	}

	return items, true, nil
}

// synthesize produces a new list item shaped like template. Typed objects
// are generated fresh; anything else is copied.
func (r *run) synthesize(template any, loc location) (any, error) {
	obj, ok := template.(map[string]any)
	if !ok || r.mc.Generator == nil {
		return deepcopy.Copy(template), nil
	}
	typeName, ok := r.discriminator(obj)
	if !ok {
		return deepcopy.Copy(template), nil
	}
	return r.generate(loc, typeName)
}

func (r *run) generate(loc location, typeName string) (map[string]any, error) {
	fresh, err := r.mc.Generator.Generate(r.ctx, loc.keys, typeName)
	if err != nil {
		return nil, &SchemaInconsistencyError{Path: loc.keys, TypeName: typeName, Err: err}
	}
	if fresh == nil {
		fresh = map[string]any{r.opts.Discriminator: typeName}
	}
	return fresh, nil
}

func (r *run) discriminator(obj map[string]any) (string, bool) {
	if obj == nil {
		return "", false
	}
	s, ok := obj[r.opts.Discriminator].(string)
	return s, ok && s != ""
}

func (r *run) isPseudoKey(key string) bool {
	return key == r.opts.LengthKey || strings.HasPrefix(key, r.opts.IndexPrefix)
}

func (r *run) indexKey(key string) (int, bool) {
	digits, ok := strings.CutPrefix(key, r.opts.IndexPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func lastKey(loc location) string {
	if len(loc.keys) == 0 {
		return ""
	}
	return loc.keys[len(loc.keys)-1]
}

// toLength accepts the integer encodings JSON and YAML decoders produce.
// Values outside [0, max] are rejected before conversion.
func toLength(v any, max int) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n >= 0 && n <= max
	case int64:
		if n < 0 || n > int64(max) {
			return 0, false
		}
		return int(n), true
	case float64:
		if n < 0 || n > float64(max) || n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 || i > int64(max) {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func cloneObject(obj map[string]any) map[string]any {
	if obj == nil {
		return make(map[string]any)
	}
	return deepcopy.Copy(obj).(map[string]any)
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
