package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/betversa/ev-engine/internal/models"
	"github.com/betversa/ev-engine/pkg/oddsmath"
)

// ErrUpstream wraps every failed provider fetch
var ErrUpstream = errors.New("upstream fetch failure")

// StatusError is a non-200 provider response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", ErrUpstream, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

// Config holds odds provider client configuration
type Config struct {
	BaseURL         string // e.g., "https://api.the-odds-api.com"
	APIKey          string
	Regions         string
	OddsFormat      oddsmath.Format
	DateFormat      string
	Bookmakers      []string
	FallbackMarkets []string
	Timeout         time.Duration
	Pacing          time.Duration // minimum gap between requests
	MaxRetries      int
	Backoff         time.Duration // first retry delay, doubled per attempt
}

// DefaultFallbackMarkets is requested when the provider rejects a market list
var DefaultFallbackMarkets = []string{"h2h", "spreads", "totals"}

// Client is a paced HTTP client for the odds provider
type Client struct {
	config     Config
	httpClient *http.Client
	logger     zerolog.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient creates a new provider client
func NewClient(config Config, logger zerolog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.the-odds-api.com"
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.DateFormat == "" {
		config.DateFormat = "iso"
	}
	if config.OddsFormat == "" {
		config.OddsFormat = oddsmath.FormatDecimal
	}
	if len(config.FallbackMarkets) == 0 {
		config.FallbackMarkets = DefaultFallbackMarkets
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.With().Str("component", "provider_client").Logger(),
	}
}

// OddsFormat returns the price format requested from the provider
func (c *Client) OddsFormat() oddsmath.Format {
	return c.config.OddsFormat
}

// Events lists upcoming events for a sport
func (c *Client) Events(ctx context.Context, sportKey string) ([]models.Event, error) {
	params := url.Values{
		"api_key":    {c.config.APIKey},
		"dateFormat": {c.config.DateFormat},
	}

	body, err := c.get(ctx, "/v4/sports/"+url.PathEscape(sportKey)+"/events", params)
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", sportKey, err)
	}

	var events []models.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("%w: decode events for %s: %w", ErrUpstream, sportKey, err)
	}
	return events, nil
}

// EventOdds fetches one event's odds. A 422 response is retried once with
// the fallback market set.
func (c *Client) EventOdds(ctx context.Context, sportKey, eventID string, markets []string) (*models.Event, error) {
	path := "/v4/sports/" + url.PathEscape(sportKey) + "/events/" + url.PathEscape(eventID) + "/odds"
	params := url.Values{
		"api_key":    {c.config.APIKey},
		"regions":    {c.config.Regions},
		"markets":    {strings.Join(markets, ",")},
		"oddsFormat": {string(c.config.OddsFormat)},
		"dateFormat": {c.config.DateFormat},
	}
	if len(c.config.Bookmakers) > 0 {
		params.Set("bookmakers", strings.Join(c.config.Bookmakers, ","))
	}

	body, err := c.get(ctx, path, params)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnprocessableEntity {
		c.logger.Warn().
			Str("event_id", eventID).
			Strs("markets", markets).
			Msg("provider rejected markets, retrying with fallback set")
		params.Set("markets", strings.Join(c.config.FallbackMarkets, ","))
		body, err = c.get(ctx, path, params)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch odds for event %s: %w", eventID, err)
	}

	event, err := decodeEvent(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode odds for event %s: %w", ErrUpstream, eventID, err)
	}
	return event, nil
}

// decodeEvent accepts a single event object or a one-element array
func decodeEvent(body []byte) (*models.Event, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []models.Event
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		if len(events) == 0 {
			return nil, errors.New("empty event list")
		}
		return &events[0], nil
	}

	var event models.Event
	if err := json.Unmarshal(trimmed, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// get performs a paced GET with bounded retries on transient failures
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	rawURL := c.config.BaseURL + path + "?" + params.Encode()

	for attempt := 0; ; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}

		body, err := c.do(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil || !retryable(err) || attempt >= c.config.MaxRetries {
			return nil, err
		}

		delay := c.config.Backoff << attempt
		c.logger.Debug().
			Err(err).
			Str("path", path).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("retrying provider request")

		if err := sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
	}
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}
	return body, nil
}

// pace blocks until the configured gap since the previous request has passed
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.Pacing > 0 && !c.lastCall.IsZero() {
		if wait := c.config.Pacing - time.Since(c.lastCall); wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	c.lastCall = time.Now()
	return nil
}

// retryable reports network failures, 429 and 5xx
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
