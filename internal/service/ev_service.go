package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/betversa/ev-engine/internal/metrics"
	"github.com/betversa/ev-engine/internal/models"
	"github.com/betversa/ev-engine/internal/output"
	"github.com/betversa/ev-engine/internal/snapshot"
	"github.com/betversa/ev-engine/pkg/engine"
	"github.com/betversa/ev-engine/pkg/market"
	"github.com/betversa/ev-engine/pkg/oddsmath"
)

// Sport is one configured league
type Sport struct {
	Label       string
	Key         string
	PropMarkets []string
}

// Options configures which sports and markets a run covers
type Options struct {
	Sports          []Sport
	StandardMarkets []string
	OddsFormat      oddsmath.Format
}

// EVService runs the fetch, snapshot and evaluate pipeline and keeps the
// latest board of plays
type EVService struct {
	fetcher   OddsFetcher
	store     SnapshotStore
	engine    *engine.Engine
	assembler *output.Assembler
	writer    ArtifactWriter
	publisher PlayPublisher
	metrics   *metrics.Recorder
	options   Options
	accepted  map[string]map[string]bool // sport label → markets
	now       func() time.Time
	logger    zerolog.Logger

	// commitMu serializes artifact writes between runs and ingested events
	commitMu sync.Mutex

	mu         sync.RWMutex
	board      map[string][]models.Play // event id → plays
	eventOrder []string
	plays      []models.Play
}

// NewEVService creates a new EV service. publisher may be nil.
func NewEVService(
	fetcher OddsFetcher,
	store SnapshotStore,
	eng *engine.Engine,
	assembler *output.Assembler,
	writer ArtifactWriter,
	publisher PlayPublisher,
	recorder *metrics.Recorder,
	options Options,
	logger zerolog.Logger,
) *EVService {
	accepted := make(map[string]map[string]bool, len(options.Sports))
	for _, sport := range options.Sports {
		set := make(map[string]bool, len(options.StandardMarkets)+len(sport.PropMarkets))
		for _, m := range options.StandardMarkets {
			set[m] = true
		}
		for _, m := range sport.PropMarkets {
			set[m] = true
		}
		accepted[sport.Label] = set
	}

	return &EVService{
		fetcher:   fetcher,
		store:     store,
		engine:    eng,
		assembler: assembler,
		writer:    writer,
		publisher: publisher,
		metrics:   recorder,
		options:   options,
		accepted:  accepted,
		now:       time.Now,
		logger:    logger.With().Str("component", "ev_service").Logger(),
		board:     make(map[string][]models.Play),
	}
}

// AcceptedMarkets returns the market keys requested for a sport
func (s *EVService) AcceptedMarkets(sport Sport) []string {
	markets := make([]string, 0, len(s.options.StandardMarkets)+len(sport.PropMarkets))
	seen := make(map[string]bool)
	for _, m := range append(append([]string{}, s.options.StandardMarkets...), sport.PropMarkets...) {
		if !seen[m] {
			seen[m] = true
			markets = append(markets, m)
		}
	}
	return markets
}

// Run evaluates every configured sport once. Per-sport and per-event fetch
// failures are logged and skipped; only an artifact failure is returned.
func (s *EVService) Run(ctx context.Context) error {
	start := time.Now()
	runID := uuid.New().String()
	capturedAt := s.now().UTC()
	logger := s.logger.With().Str("run_id", runID).Logger()

	board := make(map[string][]models.Play)
	var order []string
	events := 0

	for _, sport := range s.options.Sports {
		if err := ctx.Err(); err != nil {
			return err
		}

		list, err := s.fetcher.Events(ctx, sport.Key)
		if err != nil {
			s.metrics.FetchFailed("events")
			logger.Warn().Err(err).Str("sport", sport.Label).Msg("failed to list events")
			continue
		}

		markets := s.AcceptedMarkets(sport)
		for _, ev := range list {
			if err := ctx.Err(); err != nil {
				return err
			}
			if started(ev, capturedAt) {
				logger.Debug().Str("event_id", ev.ID).Time("commence_time", ev.CommenceTime).Msg("event already started")
				continue
			}

			doc, err := s.fetcher.EventOdds(ctx, sport.Key, ev.ID, markets)
			if err != nil {
				s.metrics.FetchFailed("event_odds")
				logger.Warn().Err(err).Str("sport", sport.Label).Str("event_id", ev.ID).Msg("failed to fetch event odds")
				continue
			}
			if doc.ID == "" {
				doc.ID = ev.ID
			}

			plays := s.ProcessEvent(ctx, sport, *doc, capturedAt)
			if _, ok := board[doc.ID]; !ok {
				order = append(order, doc.ID)
			}
			board[doc.ID] = plays
			events++
		}
	}

	plays, err := s.commit(ctx, runID, replaceBoard(board, order))
	s.metrics.RunCompleted(time.Since(start), err)
	if err != nil {
		return err
	}

	logger.Info().
		Int("sports", len(s.options.Sports)).
		Int("events", events).
		Int("plays", len(plays)).
		Dur("duration", time.Since(start)).
		Msg("run complete")

	return nil
}

// ProcessEvent normalizes one event document once, records a snapshot for
// every observed bet, and returns the event's plays
func (s *EVService) ProcessEvent(ctx context.Context, sport Sport, event models.Event, capturedAt time.Time) []models.Play {
	eq, errs := market.Normalize(event, s.options.OddsFormat, s.accepted[sport.Label])
	if len(errs) > 0 {
		s.metrics.MalformedQuotes(len(errs))
		for _, err := range errs {
			var qe *market.QuoteError
			if errors.As(err, &qe) {
				s.logger.Debug().
					Str("event_id", qe.EventID).
					Str("market", qe.Market).
					Str("bookmaker", qe.Bookmaker).
					Str("outcome", qe.Outcome).
					Msg(qe.Reason)
			}
		}
	}

	for _, rec := range snapshot.BuildRecords(eq, sport.Label, capturedAt) {
		if err := s.store.Record(ctx, rec); err != nil {
			s.metrics.SnapshotFailed()
			s.logger.Warn().
				Err(err).
				Str("event_id", eq.EventID).
				Str("bet_identity", rec.BetIdentity).
				Msg("failed to record snapshot")
			continue
		}
		s.metrics.SnapshotRecorded()
	}

	candidates := s.engine.Process(eq)
	plays := s.assembler.Build(sport.Label, eq, candidates)
	s.metrics.EventProcessed(sport.Label)

	return plays
}

// IngestEvent runs the pipeline for one event document received from the
// bus and updates that event's entry on the board
func (s *EVService) IngestEvent(ctx context.Context, msg models.EventOddsMessage) error {
	event := msg.Event
	if event.ID == "" {
		return fmt.Errorf("event document has no id")
	}
	if event.SportKey == "" {
		event.SportKey = msg.SportKey
	}

	capturedAt := msg.FetchedAt
	if capturedAt.IsZero() {
		capturedAt = s.now()
	}
	capturedAt = capturedAt.UTC()

	sport := s.sportFor(msg.SportLabel, event.SportKey)
	if started(event, s.now()) {
		s.logger.Debug().Str("event_id", event.ID).Msg("ignoring started event")
		return nil
	}

	plays := s.ProcessEvent(ctx, sport, event, capturedAt)

	_, err := s.commit(ctx, uuid.New().String(), func(current map[string][]models.Play, order []string) (map[string][]models.Play, []string) {
		board := make(map[string][]models.Play, len(current)+1)
		for id, p := range current {
			board[id] = p
		}
		order = append([]string(nil), order...)
		if _, ok := board[event.ID]; !ok {
			order = append(order, event.ID)
		}
		board[event.ID] = plays
		return board, order
	})
	return err
}

// boardUpdate derives the next board from the committed one. It must not
// modify its arguments.
type boardUpdate func(current map[string][]models.Play, order []string) (map[string][]models.Play, []string)

// replaceBoard discards the committed board in favor of a full run's board
func replaceBoard(board map[string][]models.Play, order []string) boardUpdate {
	return func(map[string][]models.Play, []string) (map[string][]models.Play, []string) {
		return board, order
	}
}

// commit applies update to the committed board, writes the artifact, then
// swaps the board and publishes the batch
func (s *EVService) commit(ctx context.Context, runID string, update boardUpdate) ([]models.Play, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	// the board is only replaced while commitMu is held
	board, order := update(s.board, s.eventOrder)

	var all []models.Play
	for _, id := range order {
		all = append(all, board[id]...)
	}
	plays := output.Rank(all)

	if err := s.writer.Write(ctx, plays); err != nil {
		return nil, fmt.Errorf("write plays artifact: %w", err)
	}

	s.mu.Lock()
	s.board = board
	s.eventOrder = order
	s.plays = plays
	s.mu.Unlock()

	s.metrics.PlaysEmitted(len(plays))
	s.publish(ctx, runID, plays)

	return plays, nil
}

func (s *EVService) publish(ctx context.Context, runID string, plays []models.Play) {
	if s.publisher == nil {
		return
	}

	msg := models.PlaysMessage{RunID: runID, GeneratedAt: s.now().UTC(), Plays: plays}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.metrics.PublishFailed()
		s.logger.Warn().Err(err).Str("run_id", runID).Msg("failed to publish plays")
	}
}

// Plays returns the latest board ordered by EV
func (s *EVService) Plays() []models.Play {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Play, len(s.plays))
	copy(out, s.plays)
	return out
}

// History returns the snapshot history of a bet identity, newest first
func (s *EVService) History(ctx context.Context, identity string, limit int) ([]models.Snapshot, error) {
	id, err := market.ParseIdentity(identity)
	if err != nil {
		return nil, err
	}
	return s.store.Query(ctx, id.Key(), limit)
}

// Ready reports whether the snapshot store is reachable
func (s *EVService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *EVService) sportFor(label, key string) Sport {
	for _, sport := range s.options.Sports {
		if (label != "" && sport.Label == label) || (label == "" && sport.Key == key) {
			return sport
		}
	}
	if label == "" {
		label = key
	}
	return Sport{Label: label, Key: key}
}

func started(ev models.Event, now time.Time) bool {
	return !ev.CommenceTime.IsZero() && !ev.CommenceTime.After(now)
}
