package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/betversa/ev-engine/internal/config"
	httpHandler "github.com/betversa/ev-engine/internal/handler/http"
	"github.com/betversa/ev-engine/internal/messaging"
	"github.com/betversa/ev-engine/internal/metrics"
	"github.com/betversa/ev-engine/internal/output"
	"github.com/betversa/ev-engine/internal/provider"
	"github.com/betversa/ev-engine/internal/service"
	"github.com/betversa/ev-engine/internal/snapshot"
	"github.com/betversa/ev-engine/pkg/engine"
)

func main() {
	// Load configuration; EV_ENGINE_CONFIG points at an optional YAML file
	cfg, err := config.LoadConfig(os.Getenv("EV_ENGINE_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("starting ev-engine")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create snapshot store
	store, err := newSnapshotStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Snapshots.Backend).Msg("failed to create snapshot store")
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Snapshots.Backend).Msg("failed to connect to snapshot store")
	}
	logger.Info().Str("backend", cfg.Snapshots.Backend).Msg("connected to snapshot store")

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)

	client := provider.NewClient(cfg.ToProviderConfig(), logger)
	eng := engine.NewEngine(cfg.ToEngineParams(), logger)
	assembler := output.NewAssembler(cfg.Output.PriceBand, logger)
	writer := output.NewFileWriter(cfg.Output.Path, logger)

	var publisher service.PlayPublisher
	if cfg.Kafka.Enabled {
		kp := messaging.NewKafkaPublisher(
			messaging.KafkaPublisherConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.PlaysTopic,
			},
			logger,
		)
		defer kp.Close()
		publisher = kp
	}

	evService := service.NewEVService(
		client,
		store,
		eng,
		assembler,
		writer,
		publisher,
		recorder,
		service.Options{
			Sports:          toSports(cfg.Sports),
			StandardMarkets: cfg.StandardMarkets,
			OddsFormat:      client.OddsFormat(),
		},
		logger,
	)
	logger.Info().Int("sports", len(cfg.Sports)).Msg("ev service initialized")

	if cfg.Schedule.RunOnce {
		if err := evService.Run(ctx); err != nil {
			logger.Fatal().Err(err).Msg("run failed")
		}
		logger.Info().Str("path", writer.Path()).Msg("run complete")
		return
	}

	// Background workers must stop before the store and writers close
	var wg sync.WaitGroup

	// Start Kafka consumer in goroutine
	if cfg.Kafka.Enabled {
		consumer := messaging.NewKafkaConsumer(
			messaging.KafkaConsumerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.EventsTopic,
				GroupID: cfg.Kafka.GroupID,
			},
			evService,
			logger,
		)
		defer consumer.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("Kafka consumer failed")
			}
		}()
	}

	// Start scheduler in goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		runScheduler(ctx, evService, cfg.Schedule.Interval, logger)
	}()

	// Setup HTTP server routes
	mux := http.NewServeMux()

	// Health and monitoring endpoints
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyHandler(w, r, evService)
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Register API routes
	httpHandler.NewPlaysHandler(evService, logger).RegisterRoutes(mux)
	logger.Info().Msg("API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully...")

	// Cancel context to stop consumer and scheduler
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Wait for the scheduler and consumer to finish in-flight work
	wg.Wait()

	logger.Info().Msg("shutdown complete")
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "ev-engine").Logger()
}

func newSnapshotStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (snapshot.Store, error) {
	retention := cfg.Snapshots.ToRetention()

	switch cfg.Snapshots.Backend {
	case config.BackendPostgres:
		return snapshot.NewPostgresStore(ctx, snapshot.PostgresConfig{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			ConnTimeout:  cfg.Postgres.ConnTimeout,
		}, retention, logger)
	case config.BackendMemory:
		return snapshot.NewMemoryStore(retention), nil
	default:
		return snapshot.NewRedisStore(snapshot.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, retention, logger), nil
	}
}

func toSports(in []config.SportConfig) []service.Sport {
	out := make([]service.Sport, len(in))
	for i, s := range in {
		out[i] = service.Sport{Label: s.Label, Key: s.Key, PropMarkets: s.PropMarkets}
	}
	return out
}

// runScheduler runs the pipeline immediately and then on every tick
func runScheduler(ctx context.Context, svc *service.EVService, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("run failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// healthHandler returns 200 if service is running
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler returns 200 if the snapshot store is reachable
func readyHandler(w http.ResponseWriter, r *http.Request, svc *service.EVService) {
	if err := svc.Ready(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("snapshot store unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
