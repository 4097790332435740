package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/betversa/ev-engine/internal/provider"
	"github.com/betversa/ev-engine/internal/snapshot"
	"github.com/betversa/ev-engine/pkg/engine"
	"github.com/betversa/ev-engine/pkg/oddsmath"
)

// Snapshot store backends
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration for ev-engine
type Config struct {
	Server          ServerConfig   `mapstructure:"server"`
	Redis           RedisConfig    `mapstructure:"redis"`
	Postgres        PostgresConfig `mapstructure:"postgres"`
	Snapshots       SnapshotConfig `mapstructure:"snapshots"`
	Kafka           KafkaConfig    `mapstructure:"kafka"`
	Provider        ProviderConfig `mapstructure:"provider"`
	Engine          EngineConfig   `mapstructure:"engine"`
	Kelly           KellyConfig    `mapstructure:"kelly"`
	Output          OutputConfig   `mapstructure:"output"`
	Schedule        ScheduleConfig `mapstructure:"schedule"`
	Sports          []SportConfig  `mapstructure:"sports"`
	StandardMarkets []string       `mapstructure:"standard_markets"`
	Logging         LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	DSN          string        `mapstructure:"dsn"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	ConnTimeout  time.Duration `mapstructure:"conn_timeout"`
}

// SnapshotConfig selects the snapshot backend and its retention
type SnapshotConfig struct {
	Backend  string        `mapstructure:"backend"` // redis, postgres, memory
	MaxCount int           `mapstructure:"max_count"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	EventsTopic string   `mapstructure:"events_topic"` // Topic to consume event odds from
	PlaysTopic  string   `mapstructure:"plays_topic"`  // Topic to publish plays to
	GroupID     string   `mapstructure:"group_id"`
}

// ProviderConfig holds odds provider configuration
type ProviderConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Regions         string        `mapstructure:"regions"`
	OddsFormat      string        `mapstructure:"odds_format"` // decimal, american
	DateFormat      string        `mapstructure:"date_format"`
	Bookmakers      []string      `mapstructure:"bookmakers"`
	FallbackMarkets []string      `mapstructure:"fallback_markets"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Pacing          time.Duration `mapstructure:"pacing"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Backoff         time.Duration `mapstructure:"backoff"`
}

// EngineConfig holds fair value and admission parameters
type EngineConfig struct {
	ReferenceBook  string   `mapstructure:"reference_book"`
	Board          []string `mapstructure:"board"`
	TargetBooks    []string `mapstructure:"target_books"`
	MinBoardBooks  int      `mapstructure:"min_board_books"`
	Epsilon        float64  `mapstructure:"epsilon"`          // Minimum EV (0.005 = 0.5%)
	MaxEV          float64  `mapstructure:"max_ev"`           // Maximum believable EV (0.10 = 10%)
	MaxMarketWidth float64  `mapstructure:"max_market_width"` // 0 disables
}

// KellyConfig holds staking parameters
type KellyConfig struct {
	Bankroll       float64 `mapstructure:"bankroll"`
	MainMultiplier float64 `mapstructure:"main_multiplier"`
	AltMultiplier  float64 `mapstructure:"alt_multiplier"`
}

// OutputConfig holds plays artifact configuration
type OutputConfig struct {
	Path      string `mapstructure:"path"`
	PriceBand int    `mapstructure:"price_band"` // |American| ceiling for emitted plays
}

// ScheduleConfig holds run scheduling configuration
type ScheduleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	RunOnce  bool          `mapstructure:"run_once"`
}

// SportConfig is one league entry
type SportConfig struct {
	Label       string   `mapstructure:"label"`
	Key         string   `mapstructure:"key"`
	PropMarkets []string `mapstructure:"prop_markets"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

func defaultSports() []map[string]interface{} {
	return []map[string]interface{}{
		{"label": "NBA", "key": "basketball_nba", "prop_markets": []string{
			"player_points", "player_assists", "player_rebounds", "player_threes", "player_points_rebounds_assists",
		}},
		{"label": "MLB", "key": "baseball_mlb", "prop_markets": []string{
			"batter_hits", "batter_total_bases", "pitcher_strikeouts",
		}},
		{"label": "NHL", "key": "icehockey_nhl", "prop_markets": []string{
			"player_points", "player_shots_on_goal", "player_assists", "player_goals",
		}},
		{"label": "NCAAM", "key": "basketball_ncaab", "prop_markets": []string{
			"player_points", "player_assists", "player_rebounds", "player_threes",
		}},
		{"label": "EPL", "key": "soccer_epl", "prop_markets": soccerProps()},
		{"label": "Bundesliga", "key": "soccer_germany_bundesliga", "prop_markets": soccerProps()},
		{"label": "Serie A", "key": "soccer_italy_serie_a", "prop_markets": soccerProps()},
		{"label": "La Liga", "key": "soccer_spain_la_liga", "prop_markets": soccerProps()},
		{"label": "MLS", "key": "soccer_usa_mls", "prop_markets": soccerProps()},
		{"label": "MMA", "key": "mma_mixed_martial_arts", "prop_markets": []string{
			"player_points", "player_shots_on_goal", "player_assists", "player_goals",
		}},
	}
}

func soccerProps() []string {
	return []string{"player_shots", "player_shots_on_target", "player_assists"}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	defaults := engine.DefaultParams()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "snapshots")

	v.SetDefault("postgres.dsn", "postgres://localhost:5432/ev_engine?sslmode=disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.conn_timeout", 5*time.Second)

	v.SetDefault("snapshots.backend", BackendRedis)
	v.SetDefault("snapshots.max_count", snapshot.DefaultRetention().MaxCount)
	v.SetDefault("snapshots.max_age", snapshot.DefaultRetention().MaxAge)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.events_topic", "event_odds")
	v.SetDefault("kafka.plays_topic", "ev_plays")
	v.SetDefault("kafka.group_id", "ev-engine")

	v.SetDefault("provider.base_url", "https://api.the-odds-api.com")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.regions", "us,eu")
	v.SetDefault("provider.odds_format", string(oddsmath.FormatDecimal))
	v.SetDefault("provider.date_format", "iso")
	v.SetDefault("provider.bookmakers", append([]string{defaults.ReferenceBook}, defaults.Board...))
	v.SetDefault("provider.fallback_markets", provider.DefaultFallbackMarkets)
	v.SetDefault("provider.timeout", 30*time.Second)
	v.SetDefault("provider.pacing", time.Second)
	v.SetDefault("provider.max_retries", 2)
	v.SetDefault("provider.backoff", 500*time.Millisecond)

	v.SetDefault("engine.reference_book", defaults.ReferenceBook)
	v.SetDefault("engine.board", defaults.Board)
	v.SetDefault("engine.target_books", defaults.TargetBooks)
	v.SetDefault("engine.min_board_books", defaults.MinBoardBooks)
	v.SetDefault("engine.epsilon", defaults.Epsilon)
	v.SetDefault("engine.max_ev", defaults.MaxEV)
	v.SetDefault("engine.max_market_width", defaults.MaxMarketWidth)

	v.SetDefault("kelly.bankroll", 1000.0)
	v.SetDefault("kelly.main_multiplier", defaults.MainKellyMultiplier)
	v.SetDefault("kelly.alt_multiplier", defaults.AltKellyMultiplier)

	v.SetDefault("output.path", "data/plays.json")
	v.SetDefault("output.price_band", 200)

	v.SetDefault("schedule.interval", 5*time.Minute)
	v.SetDefault("schedule.run_once", false)

	v.SetDefault("sports", defaultSports())
	v.SetDefault("standard_markets", []string{
		"h2h", "spreads", "totals", "alternate_spreads", "alternate_totals",
		"h2h_h1", "h2h_q1", "h2h_p1", "h2h_1st_3_innings", "team_totals",
	})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables, e.g. EV_ENGINE_PROVIDER_API_KEY
	v.SetEnvPrefix("EV_ENGINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Validate rejects inconsistent settings
func (c *Config) Validate() error {
	var errs []error

	if c.Engine.ReferenceBook == "" {
		errs = append(errs, errors.New("engine.reference_book is required"))
	}
	if c.Engine.Epsilon < 0 {
		errs = append(errs, errors.New("engine.epsilon must not be negative"))
	}
	if c.Engine.MaxEV <= c.Engine.Epsilon {
		errs = append(errs, fmt.Errorf("engine.max_ev (%g) must exceed engine.epsilon (%g)", c.Engine.MaxEV, c.Engine.Epsilon))
	}
	if c.Engine.MaxMarketWidth < 0 {
		errs = append(errs, errors.New("engine.max_market_width must not be negative"))
	}
	if c.Engine.MinBoardBooks < 1 {
		errs = append(errs, errors.New("engine.min_board_books must be at least 1"))
	}
	if c.Kelly.Bankroll <= 0 {
		errs = append(errs, errors.New("kelly.bankroll must be positive"))
	}
	if c.Kelly.MainMultiplier < 0 || c.Kelly.MainMultiplier > 1 {
		errs = append(errs, errors.New("kelly.main_multiplier must be within [0, 1]"))
	}
	if c.Kelly.AltMultiplier < 0 || c.Kelly.AltMultiplier > 1 {
		errs = append(errs, errors.New("kelly.alt_multiplier must be within [0, 1]"))
	}
	if _, err := oddsmath.ParseFormat(c.Provider.OddsFormat); err != nil {
		errs = append(errs, fmt.Errorf("provider.odds_format: %w", err))
	}
	if c.Provider.MaxRetries < 0 {
		errs = append(errs, errors.New("provider.max_retries must not be negative"))
	}
	switch c.Snapshots.Backend {
	case BackendRedis, BackendPostgres, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("snapshots.backend %q is not one of redis, postgres, memory", c.Snapshots.Backend))
	}
	if c.Snapshots.MaxCount < 0 || c.Snapshots.MaxAge < 0 {
		errs = append(errs, errors.New("snapshot retention must not be negative"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output.path is required"))
	}
	if c.Output.PriceBand <= 0 {
		errs = append(errs, errors.New("output.price_band must be positive"))
	}
	if !c.Schedule.RunOnce && c.Schedule.Interval <= 0 {
		errs = append(errs, errors.New("schedule.interval must be positive"))
	}
	if len(c.Sports) == 0 {
		errs = append(errs, errors.New("at least one sport is required"))
	}
	for i, s := range c.Sports {
		if s.Label == "" || s.Key == "" {
			errs = append(errs, fmt.Errorf("sports[%d] needs a label and a key", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ToEngineParams converts config to engine parameters
func (c *Config) ToEngineParams() engine.Params {
	return engine.Params{
		ReferenceBook:       strings.ToLower(c.Engine.ReferenceBook),
		Board:               lower(c.Engine.Board),
		TargetBooks:         lower(c.Engine.TargetBooks),
		MinBoardBooks:       c.Engine.MinBoardBooks,
		Epsilon:             c.Engine.Epsilon,
		MaxEV:               c.Engine.MaxEV,
		MaxMarketWidth:      c.Engine.MaxMarketWidth,
		Bankroll:            decimal.NewFromFloat(c.Kelly.Bankroll),
		MainKellyMultiplier: c.Kelly.MainMultiplier,
		AltKellyMultiplier:  c.Kelly.AltMultiplier,
	}
}

// ToProviderConfig converts config to provider client configuration
func (c *Config) ToProviderConfig() provider.Config {
	format, _ := oddsmath.ParseFormat(c.Provider.OddsFormat)
	return provider.Config{
		BaseURL:         c.Provider.BaseURL,
		APIKey:          c.Provider.APIKey,
		Regions:         c.Provider.Regions,
		OddsFormat:      format,
		DateFormat:      c.Provider.DateFormat,
		Bookmakers:      c.Provider.Bookmakers,
		FallbackMarkets: c.Provider.FallbackMarkets,
		Timeout:         c.Provider.Timeout,
		Pacing:          c.Provider.Pacing,
		MaxRetries:      c.Provider.MaxRetries,
		Backoff:         c.Provider.Backoff,
	}
}

// ToRetention converts config to snapshot retention
func (c *SnapshotConfig) ToRetention() snapshot.Retention {
	return snapshot.Retention{MaxCount: c.MaxCount, MaxAge: c.MaxAge}
}

func lower(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
