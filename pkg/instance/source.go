package instance

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
)

// DefaultVariant is used when a key names no variant.
const DefaultVariant = "current"

// Key identifies a mock instance: one schema source at one variant.
type Key struct {
	Source  string `json:"source"`
	Variant string `json:"variant"`
}

// NewKey builds a key, defaulting the variant.
func NewKey(source, variant string) Key {
	if variant == "" {
		variant = DefaultVariant
	}
	return Key{Source: source, Variant: variant}
}

func (k Key) String() string {
	return k.Source + "@" + k.Variant
}

// SchemaSource supplies the SDL of a schema variant.
type SchemaSource interface {
	Load(ctx context.Context, key Key) (string, error)
}

// UnknownSchemaError is returned when no schema is configured for a key.
type UnknownSchemaError struct {
	Key Key
}

func (e *UnknownSchemaError) Error() string {
	return fmt.Sprintf("no schema configured for %s", e.Key)
}

// StatusCode returns the HTTP status code for this error.
func (e *UnknownSchemaError) StatusCode() int {
	return http.StatusNotFound
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *UnknownSchemaError) Hint() string {
	return fmt.Sprintf("Add a schema entry with name %q and variant %q to the configuration.", e.Key.Source, e.Key.Variant)
}

// MapSource serves SDL held in memory.
type MapSource map[Key]string

// Load returns the SDL stored under key.
func (m MapSource) Load(_ context.Context, key Key) (string, error) {
	sdl, ok := m[key]
	if !ok {
		return "", &UnknownSchemaError{Key: key}
	}
	return sdl, nil
}

// FileSource reads SDL from files. A key may map to several files; their
// contents are concatenated.
type FileSource struct {
	files map[Key][]string
}

// NewFileSource creates a source over the given key to file paths mapping.
func NewFileSource(files map[Key][]string) *FileSource {
	return &FileSource{files: files}
}

// Load reads and concatenates the files configured for key.
func (s *FileSource) Load(ctx context.Context, key Key) (string, error) {
	paths, ok := s.files[key]
	if !ok || len(paths) == 0 {
		return "", &UnknownSchemaError{Key: key}
	}

	var sb strings.Builder
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read schema %s for %s: %w", path, key, err)
		}
		sb.Write(data)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// Keys returns the configured keys, sorted.
func (s *FileSource) Keys() []Key {
	keys := make([]Key, 0, len(s.files))
	for k := range s.files {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}
