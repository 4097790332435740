package models

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is one immutable capture of quotes for a bet identity
type Snapshot struct {
	ID          uuid.UUID      `json:"id"`
	BetIdentity string         `json:"bet_identity"`
	CapturedAt  time.Time      `json:"captured_at"`
	Quote       MinimizedQuote `json:"minimized_quote"`
}

// MinimizedQuote is the reduced quote set persisted for line movement
type MinimizedQuote struct {
	Sport        string      `json:"sport"`
	EventID      string      `json:"event_id"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	CommenceTime time.Time   `json:"commence_time"`
	Market       string      `json:"market"`
	Outcome      string      `json:"outcome"`
	Description  *string     `json:"description,omitempty"`
	Point        *float64    `json:"point,omitempty"`
	Bookmakers   []BookQuote `json:"bookmakers"`
}

// BookQuote is one bookmaker's price inside a snapshot
type BookQuote struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Decimal  float64  `json:"decimal"`
	American int      `json:"american"`
	Point    *float64 `json:"point,omitempty"`
}
