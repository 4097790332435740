package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/betversa/ev-engine/internal/models"
)

// ErrPersistence wraps every storage failure
var ErrPersistence = errors.New("snapshot persistence failure")

// Store keeps a bounded, time-ordered history of snapshots per bet identity
type Store interface {
	// Append adds a snapshot without applying retention
	Append(ctx context.Context, s models.Snapshot) error
	// Prune applies retention to one identity's history
	Prune(ctx context.Context, identity string) error
	// Record appends and prunes as one atomic unit
	Record(ctx context.Context, s models.Snapshot) error
	// Query returns up to limit snapshots newest first; limit <= 0 returns all
	Query(ctx context.Context, identity string, limit int) ([]models.Snapshot, error)
	Ping(ctx context.Context) error
	Close() error
}

// Retention bounds a history by count and age. Zero disables a rule.
type Retention struct {
	MaxCount int
	MaxAge   time.Duration
}

// DefaultRetention keeps six snapshots no older than two days
func DefaultRetention() Retention {
	return Retention{MaxCount: 6, MaxAge: 48 * time.Hour}
}

// cutoff returns the oldest capture time still retained
func (r Retention) cutoff(now time.Time) (time.Time, bool) {
	if r.MaxAge <= 0 {
		return time.Time{}, false
	}
	return now.Add(-r.MaxAge), true
}
