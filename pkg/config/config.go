package config

import (
	"fmt"
	"path/filepath"

	"github.com/getmockd/seedql/pkg/graphql"
	"github.com/getmockd/seedql/pkg/instance"
	"github.com/getmockd/seedql/pkg/merge"
)

// Defaults.
const (
	DefaultAddr        = ":4280"
	DefaultGroupHeader = "X-Seed-Group"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// Config is the project configuration read by seedql serve.
type Config struct {
	Server    ServerConfig            `json:"server" yaml:"server"`
	Log       LogConfig               `json:"log" yaml:"log"`
	DataDir   string                  `json:"dataDir,omitempty" yaml:"dataDir,omitempty"`
	Schemas   []SchemaConfig          `json:"schemas" yaml:"schemas"`
	Generator graphql.GeneratorConfig `json:"generator" yaml:"generator"`
	Merge     merge.Options           `json:"merge" yaml:"merge"`
	SeedFiles []string                `json:"seedFiles,omitempty" yaml:"seedFiles,omitempty"`

	// baseDir resolves relative paths; it is the directory of the loaded
	// file.
	baseDir string
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// GroupHeader names the request header carrying the seed group.
	GroupHeader string `json:"groupHeader,omitempty" yaml:"groupHeader,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// SchemaConfig declares one schema variant.
type SchemaConfig struct {
	Name    string `json:"name" yaml:"name"`
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
	// File is the SDL file. Files lists additional SDL files concatenated
	// after it.
	File  string   `json:"file,omitempty" yaml:"file,omitempty"`
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`
}

// Key returns the instance key of the schema.
func (s SchemaConfig) Key() instance.Key {
	return instance.NewKey(s.Name, s.Variant)
}

func (s SchemaConfig) paths() []string {
	var paths []string
	if s.File != "" {
		paths = append(paths, s.File)
	}
	return append(paths, s.Files...)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.GroupHeader == "" {
		c.Server.GroupHeader = DefaultGroupHeader
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Generator.ListLength <= 0 {
		c.Generator.ListLength = graphql.DefaultListLength
	}
	d := merge.DefaultOptions()
	if c.Merge.LengthKey == "" {
		c.Merge.LengthKey = d.LengthKey
	}
	if c.Merge.IndexPrefix == "" {
		c.Merge.IndexPrefix = d.IndexPrefix
	}
	if c.Merge.Discriminator == "" {
		c.Merge.Discriminator = d.Discriminator
	}
	if c.Merge.MaxLength == 0 {
		c.Merge.MaxLength = d.MaxLength
	}
	for i := range c.Schemas {
		if c.Schemas[i].Variant == "" {
			c.Schemas[i].Variant = instance.DefaultVariant
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Schemas) == 0 {
		return &ValidationError{Field: "schemas", Message: "at least one schema is required"}
	}

	seen := make(map[instance.Key]bool, len(c.Schemas))
	for i, s := range c.Schemas {
		field := fmt.Sprintf("schemas[%d]", i)
		if s.Name == "" {
			return &ValidationError{Field: field + ".name", Message: "name is required"}
		}
		if len(s.paths()) == 0 {
			return &ValidationError{Field: field + ".file", Message: "a schema file is required"}
		}
		key := s.Key()
		if seen[key] {
			return &ValidationError{Field: field, Message: fmt.Sprintf("duplicate schema %s", key)}
		}
		seen[key] = true
	}

	if c.Merge.LengthKey == "" {
		return &ValidationError{Field: "merge.lengthKey", Message: "must not be empty"}
	}
	if c.Merge.LengthKey == c.Merge.Discriminator {
		return &ValidationError{Field: "merge.lengthKey", Message: "must differ from merge.discriminator"}
	}
	if c.Merge.MaxLength < 0 {
		return &ValidationError{Field: "merge.maxLength", Message: "must not be negative"}
	}
	if c.Generator.ListLength < 0 {
		return &ValidationError{Field: "generator.listLength", Message: "must not be negative"}
	}
	return nil
}

// BaseDir returns the directory relative paths are resolved against.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// SetBaseDir sets the directory relative paths are resolved against.
func (c *Config) SetBaseDir(dir string) {
	c.baseDir = dir
}

// SchemaSource returns a schema source over the configured files.
func (c *Config) SchemaSource() *instance.FileSource {
	files := make(map[instance.Key][]string, len(c.Schemas))
	for _, s := range c.Schemas {
		var resolved []string
		for _, p := range s.paths() {
			resolved = append(resolved, ResolvePath(c.baseDir, p))
		}
		files[s.Key()] = resolved
	}
	return instance.NewFileSource(files)
}

// ResolvePath resolves path against baseDir unless it is absolute.
func ResolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ValidationError describes an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}
