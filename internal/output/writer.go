package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/betversa/ev-engine/internal/models"
)

// ErrSerialization wraps every artifact write failure
var ErrSerialization = errors.New("artifact serialization failure")

// FileWriter replaces the plays artifact atomically
type FileWriter struct {
	path   string
	logger zerolog.Logger
}

// NewFileWriter creates a writer for the artifact at path
func NewFileWriter(path string, logger zerolog.Logger) *FileWriter {
	return &FileWriter{
		path:   path,
		logger: logger.With().Str("component", "artifact_writer").Logger(),
	}
}

// Path returns the artifact location
func (w *FileWriter) Path() string {
	return w.path
}

// Write serializes plays to a temp file beside the artifact and renames it
// into place. On failure the previous artifact is left untouched.
func (w *FileWriter) Write(ctx context.Context, plays []models.Play) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	if plays == nil {
		plays = []models.Play{}
	}

	data, err := json.MarshalIndent(plays, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal plays: %w", ErrSerialization, err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %w", ErrSerialization, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrSerialization, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp file: %w", ErrSerialization, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync temp file: %w", ErrSerialization, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %w", ErrSerialization, err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("%w: rename artifact: %w", ErrSerialization, err)
	}
	committed = true

	w.logger.Info().
		Str("path", w.path).
		Int("plays", len(plays)).
		Msg("wrote plays artifact")

	return nil
}
