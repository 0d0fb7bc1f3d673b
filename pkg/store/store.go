// Package store persists registered seeds so they survive restarts.
//
// Seeds are kept in one JSON file per mock instance, named after the
// instance's schema source and variant. Every mutation rewrites the file
// atomically (write to a temporary file, then rename). Usage counters are
// not persisted: a restored seed starts again with the usesLeft it was
// registered with.
//
// The default data directory follows the XDG Base Directory Specification:
// $XDG_DATA_HOME/seedql, or the platform equivalent.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/getmockd/seedql/pkg/instance"
	"github.com/getmockd/seedql/pkg/logging"
	"github.com/getmockd/seedql/pkg/seed"
)

// Current data format version for migration support
const dataVersion = 1

// ErrUnsupportedVersion is returned for data files written by a newer release.
var ErrUnsupportedVersion = errors.New("unsupported seed file version")

// DefaultDataDir returns the default data directory following XDG conventions.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "seedql")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".seedql", "data")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "seedql")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "seedql")
		}
		return filepath.Join(home, "AppData", "Local", "seedql")
	}
	return filepath.Join(home, ".local", "share", "seedql")
}

// Record is the persisted form of a seed.
type Record struct {
	ID             string            `json:"id"`
	GroupID        string            `json:"groupId"`
	Kind           seed.Kind         `json:"kind"`
	OperationName  string            `json:"operationName"`
	MatchArguments map[string]any    `json:"matchArguments,omitempty"`
	SeedResponse   any               `json:"seedResponse,omitempty"`
	Options        seed.OptionsInput `json:"options"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// RecordFromSeed captures a registered seed.
func RecordFromSeed(s *seed.Seed) Record {
	opts := s.Options
	return Record{
		ID:             s.ID,
		GroupID:        s.GroupID,
		Kind:           s.Kind,
		OperationName:  s.OperationName,
		MatchArguments: s.MatchArguments,
		SeedResponse:   s.Response,
		Options: seed.OptionsInput{
			UsesLeft:         &opts.UsesLeft,
			PartialArgsMatch: &opts.PartialArgsMatch,
			StatusCode:       &opts.StatusCode,
		},
		CreatedAt: s.CreatedAt,
	}
}

// Seed validates the record and rebuilds the seed it describes, keeping its
// ID and creation time.
func (r Record) Seed() (*seed.Seed, error) {
	s, err := seed.Validate(r.GroupID, r.Kind, seed.Input{
		OperationName:  r.OperationName,
		MatchArguments: r.MatchArguments,
		SeedResponse:   r.SeedResponse,
	}, r.Options)
	if err != nil {
		return nil, err
	}
	if r.ID != "" {
		s.ID = r.ID
	}
	if !r.CreatedAt.IsZero() {
		s.CreatedAt = r.CreatedAt
	}
	return s, nil
}

// fileData is the on-disk layout of one instance's seeds.
type fileData struct {
	Version int      `json:"version"`
	Source  string   `json:"source"`
	Variant string   `json:"variant"`
	Seeds   []Record `json:"seeds"`
}

// FileStore keeps seeds in per-instance JSON files under a directory.
// It is safe for concurrent use within one process.
type FileStore struct {
	dir string
	mu  sync.Mutex
	log *slog.Logger
}

// NewFileStore creates a store rooted at dir. An empty dir uses
// DefaultDataDir.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if dir == "" {
		dir = DefaultDataDir()
	}
	return &FileStore{
		dir: dir,
		log: logging.Component(logger, "store"),
	}
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file holding the seeds of key.
func (s *FileStore) Path(key instance.Key) string {
	name := url.PathEscape(key.Source) + "__" + url.PathEscape(key.Variant) + ".json"
	return filepath.Join(s.dir, name)
}

// Load returns the records stored for key in registration order. A missing
// file yields no records.
func (s *FileStore) Load(key instance.Key) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(key)
	if err != nil {
		return nil, err
	}
	return data.Seeds, nil
}

// Put stores rec, replacing the record with the same ID or appending it.
func (s *FileStore) Put(key instance.Key, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(key)
	if err != nil {
		return err
	}
	replaced := false
	for i := range data.Seeds {
		if data.Seeds[i].ID == rec.ID {
			data.Seeds[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		data.Seeds = append(data.Seeds, rec)
	}
	return s.write(key, data)
}

// Remove deletes the record with the given ID. It reports whether one was
// removed.
func (s *FileStore) Remove(key instance.Key, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(key)
	if err != nil {
		return false, err
	}
	for i := range data.Seeds {
		if data.Seeds[i].ID == id {
			data.Seeds = append(data.Seeds[:i], data.Seeds[i+1:]...)
			return true, s.write(key, data)
		}
	}
	return false, nil
}

// Preload registers the stored seeds of an instance. It has the signature
// of instance.PreloadFunc. Records that no longer validate are skipped with
// a warning.
func (s *FileStore) Preload(_ context.Context, inst *instance.Instance) error {
	records, err := s.Load(inst.Key)
	if err != nil {
		return err
	}
	restored := 0
	for _, rec := range records {
		sd, err := rec.Seed()
		if err != nil {
			s.log.Warn("skipping stored seed", "id", rec.ID, "instance", inst.Key.String(), "error", err)
			continue
		}
		inst.Registry.Add(sd)
		restored++
	}
	if restored > 0 {
		s.log.Info("restored seeds", "instance", inst.Key.String(), "count", restored)
	}
	return nil
}

func (s *FileStore) read(key instance.Key) (*fileData, error) {
	path := s.Path(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileData{Version: dataVersion, Source: key.Source, Variant: key.Variant}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if data.Version > dataVersion {
		return nil, fmt.Errorf("%w: %s has version %d", ErrUnsupportedVersion, path, data.Version)
	}
	return &data, nil
}

func (s *FileStore) write(key instance.Key, data *fileData) error {
	data.Version = dataVersion
	data.Source = key.Source
	data.Variant = key.Variant

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal seeds: %w", err)
	}
	raw = append(raw, '\n')

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}

	// Write to temporary file first (atomic write pattern)
	path := s.Path(key)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
