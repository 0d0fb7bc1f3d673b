package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getmockd/seedql/pkg/instance"
	"github.com/getmockd/seedql/pkg/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if dir := DefaultDataDir(); dir != "/custom/data/seedql" {
		t.Errorf("with XDG_DATA_HOME: got %q, want %q", dir, "/custom/data/seedql")
	}

	t.Setenv("XDG_DATA_HOME", "")
	if dir := DefaultDataDir(); filepath.Base(dir) != "seedql" {
		t.Errorf("dir should end with 'seedql', got %q", dir)
	}
}

func validSeed(t *testing.T, group, name string) *seed.Seed {
	t.Helper()
	s, err := seed.Validate(group, seed.KindOperation, seed.Input{
		OperationName:  "GetUser",
		MatchArguments: map[string]any{"id": "1"},
		SeedResponse:   map[string]any{"data": map[string]any{"user": map[string]any{"name": name}}},
	}, seed.OptionsInput{})
	require.NoError(t, err)
	return s
}

func TestFileStore_PutLoadRemove(t *testing.T) {
	fs := NewFileStore(t.TempDir(), nil)
	key := instance.NewKey("catalog", "v1")

	records, err := fs.Load(key)
	require.NoError(t, err)
	assert.Empty(t, records)

	first := RecordFromSeed(validSeed(t, "g", "first"))
	second := RecordFromSeed(validSeed(t, "g", "second"))
	require.NoError(t, fs.Put(key, first))
	require.NoError(t, fs.Put(key, second))

	records, err = fs.Load(key)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, second.ID, records[1].ID)

	first.SeedResponse = map[string]any{"data": map[string]any{"user": map[string]any{"name": "changed"}}}
	require.NoError(t, fs.Put(key, first))
	records, err = fs.Load(key)
	require.NoError(t, err)
	require.Len(t, records, 2, "put with an existing ID replaces")
	assert.Equal(t, first.SeedResponse, records[0].SeedResponse)

	removed, err := fs.Remove(key, first.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = fs.Remove(key, first.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = os.Stat(fs.Path(key) + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must not be left behind")
}

func TestFileStore_KeysAreIsolated(t *testing.T) {
	fs := NewFileStore(t.TempDir(), nil)
	a := instance.NewKey("catalog", "v1")
	b := instance.NewKey("catalog/other", "v1")

	require.NoError(t, fs.Put(a, RecordFromSeed(validSeed(t, "g", "a"))))

	records, err := fs.Load(b)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, fs.Dir(), filepath.Dir(fs.Path(b)), "source names are escaped")
}

func TestFileStore_RejectsNewerVersion(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir, nil)
	key := instance.NewKey("catalog", "v1")
	require.NoError(t, os.WriteFile(fs.Path(key), []byte(`{"version": 99, "seeds": []}`), 0644))

	_, err := fs.Load(key)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestRecord_RoundTrip(t *testing.T) {
	uses := 3
	original, err := seed.Validate("g", seed.KindNetworkError, seed.Input{
		OperationName: "GetUser",
		SeedResponse:  map[string]any{"error": "down"},
	}, seed.OptionsInput{UsesLeft: &uses})
	require.NoError(t, err)

	restored, err := RecordFromSeed(original).Seed()
	require.NoError(t, err)
	assert.Equal(t, original.ID, restored.ID)
	assert.Equal(t, original.Options, restored.Options)
	assert.Equal(t, original.Response, restored.Response)
	assert.True(t, original.CreatedAt.Equal(restored.CreatedAt))
}

const userSDL = `
type User { id: ID! name: String! }
type Query { user(id: ID!): User }
`

func TestFileStore_Preload(t *testing.T) {
	fs := NewFileStore(t.TempDir(), nil)
	key := instance.NewKey("users", "")

	require.NoError(t, fs.Put(key, RecordFromSeed(validSeed(t, "g", "persisted"))))
	require.NoError(t, fs.Put(key, Record{ID: "broken", GroupID: "", Kind: seed.KindOperation, OperationName: "GetUser"}))

	m := instance.NewManager(instance.MapSource{key: userSDL}, instance.Options{Preload: fs.Preload})
	inst, err := m.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 1, inst.Registry.Len(), "invalid records are skipped")

	s := inst.Registry.FindBestMatch("g", "GetUser", map[string]any{"id": "1"})
	require.NotNil(t, s)
}
