package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betversa/ev-engine/internal/models"
)

var baseTime = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

const testIdentity = `"evt-1"|"h2h"|"Lakers"|~|~`

func newSnapshot(identity string, capturedAt time.Time) models.Snapshot {
	return models.Snapshot{
		ID:          uuid.New(),
		BetIdentity: identity,
		CapturedAt:  capturedAt,
		Quote: models.MinimizedQuote{
			EventID: "evt-1",
			Market:  "h2h",
			Outcome: "Lakers",
			Bookmakers: []models.BookQuote{
				{Key: "fanduel", Title: "FanDuel", Decimal: 2.05, American: 105},
			},
		},
	}
}

// testRedisStoreSetup is a helper struct to hold test dependencies
type testRedisStoreSetup struct {
	store     *RedisStore
	miniRedis *miniredis.Miniredis
	ctx       context.Context
}

func setupTestRedisStore(t *testing.T, retention Retention) *testRedisStoreSetup {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	store := NewRedisStore(RedisConfig{Addr: mr.Addr()}, retention, zerolog.Nop())
	store.now = func() time.Time { return baseTime }

	return &testRedisStoreSetup{
		store:     store,
		miniRedis: mr,
		ctx:       context.Background(),
	}
}

func (s *testRedisStoreSetup) cleanup() {
	s.store.Close()
	s.miniRedis.Close()
}

func TestRedisStore_RecordKeepsNewest(t *testing.T) {
	setup := setupTestRedisStore(t, Retention{MaxCount: 3, MaxAge: 48 * time.Hour})
	defer setup.cleanup()

	var recorded []models.Snapshot
	for i := 5; i >= 1; i-- {
		snap := newSnapshot(testIdentity, baseTime.Add(-time.Duration(i)*time.Hour))
		require.NoError(t, setup.store.Record(setup.ctx, snap))
		recorded = append(recorded, snap)
	}

	history, err := setup.store.Query(setup.ctx, testIdentity, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, recorded[4].ID, history[0].ID)
	assert.Equal(t, recorded[3].ID, history[1].ID)
	assert.Equal(t, recorded[2].ID, history[2].ID)
	assert.True(t, history[0].CapturedAt.Equal(recorded[4].CapturedAt))
	assert.Equal(t, "fanduel", history[0].Quote.Bookmakers[0].Key)
}

func TestRedisStore_RecordDropsAged(t *testing.T) {
	setup := setupTestRedisStore(t, DefaultRetention())
	defer setup.cleanup()

	old := newSnapshot(testIdentity, baseTime.Add(-49*time.Hour))
	require.NoError(t, setup.store.Append(setup.ctx, old))

	edge := newSnapshot(testIdentity, baseTime.Add(-48*time.Hour))
	require.NoError(t, setup.store.Append(setup.ctx, edge))

	fresh := newSnapshot(testIdentity, baseTime)
	require.NoError(t, setup.store.Record(setup.ctx, fresh))

	history, err := setup.store.Query(setup.ctx, testIdentity, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, fresh.ID, history[0].ID)
	assert.Equal(t, edge.ID, history[1].ID)

	ttl := setup.miniRedis.TTL(setup.store.key(testIdentity))
	assert.Equal(t, 48*time.Hour, ttl)
}

func TestRedisStore_AppendThenPrune(t *testing.T) {
	setup := setupTestRedisStore(t, Retention{MaxCount: 2})
	defer setup.cleanup()

	for i := 0; i < 4; i++ {
		require.NoError(t, setup.store.Append(setup.ctx, newSnapshot(testIdentity, baseTime.Add(time.Duration(i)*time.Minute))))
	}

	history, err := setup.store.Query(setup.ctx, testIdentity, 0)
	require.NoError(t, err)
	assert.Len(t, history, 4)

	require.NoError(t, setup.store.Prune(setup.ctx, testIdentity))

	history, err = setup.store.Query(setup.ctx, testIdentity, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// no age rule means no expiry
	assert.Equal(t, time.Duration(0), setup.miniRedis.TTL(setup.store.key(testIdentity)))
}

func TestRedisStore_QueryLimitAndIsolation(t *testing.T) {
	setup := setupTestRedisStore(t, DefaultRetention())
	defer setup.cleanup()

	other := `"evt-1"|"h2h"|"Celtics"|~|~`
	for i := 0; i < 4; i++ {
		require.NoError(t, setup.store.Record(setup.ctx, newSnapshot(testIdentity, baseTime.Add(-time.Duration(i)*time.Minute))))
	}
	require.NoError(t, setup.store.Record(setup.ctx, newSnapshot(other, baseTime)))

	history, err := setup.store.Query(setup.ctx, testIdentity, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, !history[0].CapturedAt.Before(history[1].CapturedAt))

	history, err = setup.store.Query(setup.ctx, other, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	history, err = setup.store.Query(setup.ctx, `"none"|"h2h"|"x"|~|~`, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRedisStore_RetentionProperty(t *testing.T) {
	retention := DefaultRetention()
	setup := setupTestRedisStore(t, retention)
	defer setup.cleanup()

	now := baseTime
	for i := 0; i < 20; i++ {
		now = now.Add(7 * time.Hour)
		current := now
		setup.store.now = func() time.Time { return current }
		require.NoError(t, setup.store.Record(setup.ctx, newSnapshot(testIdentity, current)))

		history, err := setup.store.Query(setup.ctx, testIdentity, 0)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(history), retention.MaxCount)
		for _, h := range history {
			assert.LessOrEqual(t, current.Sub(h.CapturedAt), retention.MaxAge)
		}
	}
}

func TestRedisStore_PersistenceFailure(t *testing.T) {
	setup := setupTestRedisStore(t, DefaultRetention())
	setup.miniRedis.Close()
	defer setup.store.Close()

	err := setup.store.Record(setup.ctx, newSnapshot(testIdentity, baseTime))
	assert.ErrorIs(t, err, ErrPersistence)

	_, err = setup.store.Query(setup.ctx, testIdentity, 0)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestRedisStore_Ping(t *testing.T) {
	setup := setupTestRedisStore(t, DefaultRetention())
	defer setup.cleanup()

	assert.NoError(t, setup.store.Ping(setup.ctx))
}
