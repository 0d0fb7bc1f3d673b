package config

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/getmockd/seedql/pkg/instance"
	"github.com/getmockd/seedql/pkg/seed"
	"gopkg.in/yaml.v3"
)

// SeedRecord is one seed declared in a seed file. An empty Schema applies
// the seed to every instance; an empty Variant applies it to every variant
// of Schema.
type SeedRecord struct {
	Schema     string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Variant    string `json:"variant,omitempty" yaml:"variant,omitempty"`
	Group      string `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	Kind       string `json:"kind,omitempty" yaml:"kind,omitempty"`
	seed.Input `yaml:",inline"`
	Options    seed.OptionsInput `json:"options,omitempty" yaml:"options,omitempty"`

	// File is the file the record was read from.
	File string `json:"-" yaml:"-"`
}

// AppliesTo reports whether the record targets key.
func (r SeedRecord) AppliesTo(key instance.Key) bool {
	if r.Schema != "" && r.Schema != key.Source {
		return false
	}
	return r.Variant == "" || r.Variant == key.Variant
}

// GroupID returns the record's group, defaulting to instance.DefaultGroup.
func (r SeedRecord) GroupID() string {
	if r.Group == "" {
		return instance.DefaultGroup
	}
	return r.Group
}

type seedFile struct {
	Seeds []SeedRecord `json:"seeds" yaml:"seeds"`
}

// LoadSeedFiles reads every file matched by patterns. Relative patterns are
// resolved against baseDir. Patterns containing ** match recursively.
// Files are read in sorted order within each pattern; a pattern with no
// matches is not an error.
func LoadSeedFiles(baseDir string, patterns []string) ([]SeedRecord, error) {
	var records []SeedRecord
	for _, pattern := range patterns {
		matches, err := ExpandGlob(ResolvePath(baseDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("expanding glob pattern %q: %w", pattern, err)
		}
		sort.Strings(matches)

		for _, match := range matches {
			recs, err := LoadSeedFile(match)
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
		}
	}
	return records, nil
}

// LoadSeedFile reads one seed file. The file holds either a list of records
// or an object with a seeds list.
func LoadSeedFile(path string) ([]SeedRecord, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var records []SeedRecord
	if isYAML(path) {
		records, err = decodeSeedsYAML(data)
	} else {
		records, err = decodeSeedsJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for i := range records {
		records[i].File = path
	}
	return records, nil
}

func decodeSeedsYAML(data []byte) ([]SeedRecord, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var records []SeedRecord
		if err := node.Decode(&records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		return records, nil
	}
	var f seedFile
	if err := node.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return f.Seeds, nil
}

func decodeSeedsJSON(data []byte) ([]SeedRecord, error) {
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		var records []SeedRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return records, nil
	}
	var f seedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return f.Seeds, nil
}

// SeedPreload returns a preload function registering the records that
// apply to each built instance. An invalid record fails the build.
func SeedPreload(records []SeedRecord) instance.PreloadFunc {
	return func(_ context.Context, inst *instance.Instance) error {
		for i, rec := range records {
			if !rec.AppliesTo(inst.Key) {
				continue
			}
			kind, err := seed.ParseKind(rec.Kind)
			if err != nil {
				return fmt.Errorf("%s: seed %d: %w", rec.File, i, err)
			}
			if _, err := inst.Registry.Register(rec.GroupID(), kind, rec.Input, rec.Options); err != nil {
				return fmt.Errorf("%s: seed %d: %w", rec.File, i, err)
			}
		}
		return nil
	}
}

// ExpandGlob expands pattern, using doublestar when it contains **.
func ExpandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return doublestar.FilepathGlob(pattern)
	}
	return filepath.Glob(pattern)
}
