package service

import (
	"context"

	"github.com/betversa/ev-engine/internal/models"
)

// OddsFetcher abstracts the odds provider
type OddsFetcher interface {
	Events(ctx context.Context, sportKey string) ([]models.Event, error)
	EventOdds(ctx context.Context, sportKey, eventID string, markets []string) (*models.Event, error)
}

// SnapshotStore is the part of the snapshot store the service uses
type SnapshotStore interface {
	Record(ctx context.Context, s models.Snapshot) error
	Query(ctx context.Context, identity string, limit int) ([]models.Snapshot, error)
	Ping(ctx context.Context) error
}

// PlayPublisher publishes play batches downstream
type PlayPublisher interface {
	Publish(ctx context.Context, msg models.PlaysMessage) error
}

// ArtifactWriter persists the plays artifact
type ArtifactWriter interface {
	Write(ctx context.Context, plays []models.Play) error
}
