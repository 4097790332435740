package output

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betversa/ev-engine/internal/models"
)

func readArtifact(t *testing.T, path string) []models.Play {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var plays []models.Play
	require.NoError(t, json.Unmarshal(data, &plays))
	return plays
}

func TestFileWriter_WriteAndReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "plays.json")
	w := NewFileWriter(path, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, []models.Play{{UniqueID: "a", EV: 0.02}}))
	assert.Len(t, readArtifact(t, path), 1)

	require.NoError(t, w.Write(ctx, []models.Play{{UniqueID: "b"}, {UniqueID: "c"}}))
	plays := readArtifact(t, path)
	require.Len(t, plays, 2)
	assert.Equal(t, "b", plays[0].UniqueID)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileWriter_EmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plays.json")
	require.NoError(t, NewFileWriter(path, zerolog.Nop()).Write(context.Background(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestFileWriter_FailureKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plays.json")
	w := NewFileWriter(path, zerolog.Nop())
	require.NoError(t, w.Write(context.Background(), []models.Play{{UniqueID: "keep"}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Write(ctx, []models.Play{{UniqueID: "lost"}})
	assert.ErrorIs(t, err, ErrSerialization)

	plays := readArtifact(t, path)
	require.Len(t, plays, 1)
	assert.Equal(t, "keep", plays[0].UniqueID)
}

func TestFileWriter_RenameFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plays.json")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0o755))

	err := NewFileWriter(path, zerolog.Nop()).Write(context.Background(), []models.Play{{UniqueID: "a"}})
	assert.ErrorIs(t, err, ErrSerialization)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "plays.json", entries[0].Name())
}
