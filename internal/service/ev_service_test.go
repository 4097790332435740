package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/betversa/ev-engine/internal/metrics"
	"github.com/betversa/ev-engine/internal/mocks"
	"github.com/betversa/ev-engine/internal/models"
	"github.com/betversa/ev-engine/internal/output"
	"github.com/betversa/ev-engine/pkg/engine"
	"github.com/betversa/ev-engine/pkg/market"
	"github.com/betversa/ev-engine/pkg/oddsmath"
)

var nowTime = time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC)

var nba = Sport{Label: "NBA", Key: "basketball_nba", PropMarkets: []string{"player_points", "h2h"}}

// testEVServiceSetup is a helper struct to hold test dependencies
type testEVServiceSetup struct {
	service       *EVService
	mockFetcher   *mocks.MockOddsFetcher
	mockStore     *mocks.MockSnapshotStore
	mockWriter    *mocks.MockArtifactWriter
	mockPublisher *mocks.MockPlayPublisher
	ctx           context.Context
	ctrl          *gomock.Controller
}

func setupTestEVService(t *testing.T, sports ...Sport) *testEVServiceSetup {
	ctrl := gomock.NewController(t)

	mockFetcher := mocks.NewMockOddsFetcher(ctrl)
	mockStore := mocks.NewMockSnapshotStore(ctrl)
	mockWriter := mocks.NewMockArtifactWriter(ctrl)
	mockPublisher := mocks.NewMockPlayPublisher(ctrl)
	logger := zerolog.Nop()

	if len(sports) == 0 {
		sports = []Sport{nba}
	}

	svc := NewEVService(
		mockFetcher,
		mockStore,
		engine.NewEngine(engine.DefaultParams(), logger),
		output.NewAssembler(output.DefaultPriceBand, logger),
		mockWriter,
		mockPublisher,
		metrics.NewRecorder(prometheus.NewRegistry()),
		Options{
			Sports:          sports,
			StandardMarkets: []string{"h2h", "spreads", "totals"},
			OddsFormat:      oddsmath.FormatAmerican,
		},
		logger,
	)
	svc.now = func() time.Time { return nowTime }

	return &testEVServiceSetup{
		service:       svc,
		mockFetcher:   mockFetcher,
		mockStore:     mockStore,
		mockWriter:    mockWriter,
		mockPublisher: mockPublisher,
		ctx:           context.Background(),
		ctrl:          ctrl,
	}
}

func (s *testEVServiceSetup) cleanup() {
	s.ctrl.Finish()
}

func h2h(key string, home, away float64) models.Bookmaker {
	return models.Bookmaker{Key: key, Title: key, Markets: []models.Market{
		{Key: "h2h", Outcomes: []models.Outcome{
			{Name: "Lakers", Price: models.NewPrice(home)},
			{Name: "Celtics", Price: models.NewPrice(away)},
		}},
	}}
}

func oddsDoc(id string) *models.Event {
	return &models.Event{
		ID:           id,
		SportKey:     "basketball_nba",
		HomeTeam:     "Lakers",
		AwayTeam:     "Celtics",
		CommenceTime: nowTime.Add(3 * time.Hour),
		Bookmakers: []models.Bookmaker{
			h2h("pinnacle", -110, -110),
			h2h("fanduel", 105, -125),
		},
	}
}

func TestAcceptedMarkets(t *testing.T) {
	setup := setupTestEVService(t)
	defer setup.cleanup()

	assert.Equal(t, []string{"h2h", "spreads", "totals", "player_points"}, setup.service.AcceptedMarkets(nba))
}

func TestRun_Success(t *testing.T) {
	setup := setupTestEVService(t)
	defer setup.cleanup()

	setup.mockFetcher.EXPECT().
		Events(gomock.Any(), "basketball_nba").
		Return([]models.Event{
			{ID: "evt-1", CommenceTime: nowTime.Add(3 * time.Hour)},
			{ID: "evt-live", CommenceTime: nowTime.Add(-time.Minute)},
		}, nil)
	setup.mockFetcher.EXPECT().
		EventOdds(gomock.Any(), "basketball_nba", "evt-1", []string{"h2h", "spreads", "totals", "player_points"}).
		Return(oddsDoc("evt-1"), nil)

	var recorded []models.Snapshot
	setup.mockStore.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, s models.Snapshot) error {
			recorded = append(recorded, s)
			return nil
		}).Times(2)

	var written []models.Play
	setup.mockWriter.EXPECT().
		Write(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, plays []models.Play) error {
			written = plays
			return nil
		})
	setup.mockPublisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg models.PlaysMessage) error {
			assert.NotEmpty(t, msg.RunID)
			assert.Len(t, msg.Plays, 1)
			return nil
		})

	require.NoError(t, setup.service.Run(setup.ctx))

	require.Len(t, written, 1)
	assert.Equal(t, "fanduel", written[0].Bookmaker)
	assert.Equal(t, "NBA", written[0].Sport)
	assert.Equal(t, written, setup.service.Plays())

	require.Len(t, recorded, 2)
	for _, s := range recorded {
		assert.True(t, s.CapturedAt.Equal(nowTime))
		assert.Equal(t, "NBA", s.Quote.Sport)
	}
}

func TestRun_FetchFailuresAreSkipped(t *testing.T) {
	nfl := Sport{Label: "NFL", Key: "americanfootball_nfl"}
	setup := setupTestEVService(t, nba, nfl)
	defer setup.cleanup()

	setup.mockFetcher.EXPECT().
		Events(gomock.Any(), "basketball_nba").
		Return(nil, errors.New("timeout"))
	setup.mockFetcher.EXPECT().
		Events(gomock.Any(), "americanfootball_nfl").
		Return([]models.Event{{ID: "evt-2", CommenceTime: nowTime.Add(time.Hour)}}, nil)
	setup.mockFetcher.EXPECT().
		EventOdds(gomock.Any(), "americanfootball_nfl", "evt-2", gomock.Any()).
		Return(nil, errors.New("status 500"))

	setup.mockWriter.EXPECT().
		Write(gomock.Any(), gomock.Len(0)).
		Return(nil)
	setup.mockPublisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		Return(nil)

	require.NoError(t, setup.service.Run(setup.ctx))
	assert.Empty(t, setup.service.Plays())
}

func TestRun_ArtifactFailurePropagates(t *testing.T) {
	setup := setupTestEVService(t)
	defer setup.cleanup()

	setup.mockFetcher.EXPECT().
		Events(gomock.Any(), gomock.Any()).
		Return([]models.Event{{ID: "evt-1", CommenceTime: nowTime.Add(time.Hour)}}, nil)
	setup.mockFetcher.EXPECT().
		EventOdds(gomock.Any(), gomock.Any(), "evt-1", gomock.Any()).
		Return(oddsDoc("evt-1"), nil)
	setup.mockStore.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	setup.mockWriter.EXPECT().
		Write(gomock.Any(), gomock.Any()).
		Return(output.ErrSerialization)

	err := setup.service.Run(setup.ctx)
	assert.ErrorIs(t, err, output.ErrSerialization)
	assert.Empty(t, setup.service.Plays())
}

func TestRun_SnapshotAndPublishFailuresDoNotAbort(t *testing.T) {
	setup := setupTestEVService(t)
	defer setup.cleanup()

	setup.mockFetcher.EXPECT().
		Events(gomock.Any(), gomock.Any()).
		Return([]models.Event{{ID: "evt-1", CommenceTime: nowTime.Add(time.Hour)}}, nil)
	setup.mockFetcher.EXPECT().
		EventOdds(gomock.Any(), gomock.Any(), "evt-1", gomock.Any()).
		Return(oddsDoc("evt-1"), nil)
	setup.mockStore.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		Return(errors.New("redis down")).
		Times(2)
	setup.mockWriter.EXPECT().Write(gomock.Any(), gomock.Len(1)).Return(nil)
	setup.mockPublisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		Return(errors.New("broker unavailable"))

	require.NoError(t, setup.service.Run(setup.ctx))
	assert.Len(t, setup.service.Plays(), 1)
}

func TestRun_ContextCancelled(t *testing.T) {
	setup := setupTestEVService(t)
	defer setup.cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, setup.service.Run(ctx), context.Canceled)
}

func TestIngestEvent_MergesIntoBoard(t *testing.T) {
	setup := setupTestEVService(t)
	defer setup.cleanup()

	setup.mockStore.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil).Times(4)
	setup.mockWriter.EXPECT().Write(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	setup.mockPublisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	first := models.EventOddsMessage{SportLabel: "NBA", SportKey: "basketball_nba", Event: *oddsDoc("evt-1"), FetchedAt: nowTime}
	require.NoError(t, setup.service.IngestEvent(setup.ctx, first))
	assert.Len(t, setup.service.Plays(), 1)

	second := models.EventOddsMessage{SportKey: "basketball_nba", Event: *oddsDoc("evt-2")}
	require.NoError(t, setup.service.IngestEvent(setup.ctx, second))

	plays := setup.service.Plays()
	require.Len(t, plays, 2)
	ids := []string{plays[0].EventID, plays[1].EventID}
	assert.ElementsMatch(t, []string{"evt-1", "evt-2"}, ids)
	assert.Equal(t, "NBA", plays[1].Sport)
}

func TestIngestEvent_DuringRunWriteKeepsNewerRun(t *testing.T) {
	setup := setupTestEVService(t)
	defer setup.cleanup()

	firstRun := oddsDoc("evt-1")
	secondRun := oddsDoc("evt-1")
	secondRun.Bookmakers[1] = h2h("fanduel", 110, -130)

	gomock.InOrder(
		setup.mockFetcher.EXPECT().Events(gomock.Any(), "basketball_nba").
			Return([]models.Event{{ID: "evt-1", CommenceTime: nowTime.Add(3 * time.Hour)}}, nil),
		setup.mockFetcher.EXPECT().EventOdds(gomock.Any(), "basketball_nba", "evt-1", gomock.Any()).
			Return(firstRun, nil),
		setup.mockFetcher.EXPECT().Events(gomock.Any(), "basketball_nba").
			Return([]models.Event{{ID: "evt-1", CommenceTime: nowTime.Add(3 * time.Hour)}}, nil),
		setup.mockFetcher.EXPECT().EventOdds(gomock.Any(), "basketball_nba", "evt-1", gomock.Any()).
			Return(secondRun, nil),
	)

	ingesting := make(chan struct{})
	var once sync.Once
	setup.mockStore.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, s models.Snapshot) error {
			if s.Quote.EventID == "evt-2" {
				once.Do(func() { close(ingesting) })
			}
			return nil
		}).AnyTimes()

	writing := make(chan struct{})
	release := make(chan struct{})
	var writes int32
	setup.mockWriter.EXPECT().
		Write(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ []models.Play) error {
			if atomic.AddInt32(&writes, 1) == 2 {
				close(writing)
				<-release
			}
			return nil
		}).Times(3)
	setup.mockPublisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	require.NoError(t, setup.service.Run(setup.ctx))
	require.Len(t, setup.service.Plays(), 1)
	assert.Equal(t, 105, setup.service.Plays()[0].SportsbookPrice)

	runErr := make(chan error, 1)
	go func() { runErr <- setup.service.Run(setup.ctx) }()
	<-writing

	ingestErr := make(chan error, 1)
	go func() {
		ingestErr <- setup.service.IngestEvent(setup.ctx, models.EventOddsMessage{
			SportLabel: "NBA",
			SportKey:   "basketball_nba",
			Event:      *oddsDoc("evt-2"),
			FetchedAt:  nowTime,
		})
	}()

	// let the ingest reach the commit before the run's write finishes
	<-ingesting
	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, <-runErr)
	require.NoError(t, <-ingestErr)

	byEvent := make(map[string]int)
	for _, p := range setup.service.Plays() {
		byEvent[p.EventID] = p.SportsbookPrice
	}
	assert.Equal(t, map[string]int{"evt-1": 110, "evt-2": 105}, byEvent)
}

func TestIngestEvent_StartedOrInvalid(t *testing.T) {
	setup := setupTestEVService(t)
	defer setup.cleanup()

	live := *oddsDoc("evt-live")
	live.CommenceTime = nowTime.Add(-time.Hour)
	require.NoError(t, setup.service.IngestEvent(setup.ctx, models.EventOddsMessage{Event: live}))

	assert.Error(t, setup.service.IngestEvent(setup.ctx, models.EventOddsMessage{}))
}

func TestHistory(t *testing.T) {
	setup := setupTestEVService(t)
	defer setup.cleanup()

	id := market.NewIdentity("evt-1", "h2h", "Lakers", market.NoSubject, market.NoLine).Key()
	setup.mockStore.EXPECT().
		Query(gomock.Any(), id, 5).
		Return([]models.Snapshot{{BetIdentity: id}}, nil)

	history, err := setup.service.History(setup.ctx, id, 5)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = setup.service.History(setup.ctx, "not-a-key", 5)
	assert.ErrorIs(t, err, market.ErrInvalidIdentity)
}

func TestReady(t *testing.T) {
	setup := setupTestEVService(t)
	defer setup.cleanup()

	setup.mockStore.EXPECT().Ping(gomock.Any()).Return(nil)
	assert.NoError(t, setup.service.Ready(setup.ctx))
}
