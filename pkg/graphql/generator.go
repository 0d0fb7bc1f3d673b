package graphql

import (
	"fmt"
	mathrand "math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/ast"
)

// DefaultListLength is the number of items generated for list fields.
const DefaultListLength = 2

// defaultString is the value produced for String fields and unconfigured
// custom scalars.
const defaultString = "Hello World"

// ValueGenerator produces field-level values for the structural executor.
type ValueGenerator interface {
	// Scalar returns a value for a built-in or custom scalar type.
	Scalar(typeName string) any
	// Enum returns one of the enum's values.
	Enum(def *ast.Definition) any
	// ListLength returns the number of items to produce for a list field.
	ListLength() int
	// PickType chooses the concrete type for an abstract field.
	PickType(candidates []*ast.Definition) *ast.Definition
}

// GeneratorConfig configures the default value generator.
type GeneratorConfig struct {
	// ListLength is the number of items per list. Defaults to DefaultListLength.
	ListLength int `json:"listLength,omitempty" yaml:"listLength,omitempty"`
	// Seed makes generation deterministic. Zero seeds from the clock.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	// Scalars maps custom scalar names to fixed values.
	Scalars map[string]any `json:"scalars,omitempty" yaml:"scalars,omitempty"`
}

// Generator is the default ValueGenerator. It is safe for concurrent use.
type Generator struct {
	mu         sync.Mutex
	rng        *mathrand.Rand
	listLength int
	scalars    map[string]any
}

var _ ValueGenerator = (*Generator)(nil)

// NewGenerator creates a Generator from cfg.
func NewGenerator(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	listLength := cfg.ListLength
	if listLength <= 0 {
		listLength = DefaultListLength
	}
	return &Generator{
		rng:        mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		listLength: listLength,
		scalars:    cfg.Scalars,
	}
}

// Scalar returns a value for the named scalar type.
func (g *Generator) Scalar(typeName string) any {
	if v, ok := g.scalars[typeName]; ok {
		return v
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch typeName {
	case "Int":
		return g.rng.IntN(100)
	case "Float":
		return float64(g.rng.IntN(10000)) / 100
	case "Boolean":
		return g.rng.IntN(2) == 1
	case "ID":
		var b [16]byte
		for i := range b {
			b[i] = byte(g.rng.IntN(256))
		}
		id, err := uuid.FromBytes(b[:])
		if err != nil {
			return fmt.Sprintf("%x", b)
		}
		// Set version 4 and variant bits
		id[6] = (id[6] & 0x0f) | 0x40
		id[8] = (id[8] & 0x3f) | 0x80
		return id.String()
	default:
		return defaultString
	}
}

// Enum returns a random member of the enum.
func (g *Generator) Enum(def *ast.Definition) any {
	if def == nil || len(def.EnumValues) == 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return def.EnumValues[g.rng.IntN(len(def.EnumValues))].Name
}

// ListLength returns the configured list length.
func (g *Generator) ListLength() int {
	return g.listLength
}

// PickType chooses a random candidate.
func (g *Generator) PickType(candidates []*ast.Definition) *ast.Definition {
	if len(candidates) == 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return candidates[g.rng.IntN(len(candidates))]
}
