package models

import (
	"encoding/json"
	"time"
)

// Event represents one event document from the odds provider
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	CommenceTime time.Time   `json:"commence_time"`
	Bookmakers   []Bookmaker `json:"bookmakers,omitempty"`
}

// Bookmaker holds one bookmaker's markets for an event
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
	// Defect is set when the entry could not be decoded and must be skipped
	Defect string `json:"-"`
}

// Market is a single market quoted by a bookmaker
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
	Defect   string    `json:"-"`
}

// Outcome is one side of a market
type Outcome struct {
	Name        string   `json:"name"`
	Price       Price    `json:"price"`
	Point       *float64 `json:"point,omitempty"`
	Description *string  `json:"description,omitempty"`
	Player      *string  `json:"player,omitempty"`
	Defect      string   `json:"-"`
}

// Subject returns the player/description the outcome refers to, if any
func (o Outcome) Subject() (string, bool) {
	if o.Player != nil && *o.Player != "" {
		return *o.Player, true
	}
	if o.Description != nil && *o.Description != "" {
		return *o.Description, true
	}
	return "", false
}

// Price is a quoted price that tolerates absent or non-numeric values.
// A price that cannot be read decodes as invalid instead of failing the document.
type Price struct {
	Value float64
	Valid bool
}

// NewPrice returns a valid price
func NewPrice(v float64) Price {
	return Price{Value: v, Valid: true}
}

// UnmarshalJSON accepts numbers and numeric strings
func (p *Price) UnmarshalJSON(data []byte) error {
	*p = Price{}
	if v, ok := decodeNumber(data); ok {
		*p = Price{Value: v, Valid: true}
	}
	return nil
}

// MarshalJSON writes invalid prices as null
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// PriceBreakdown is one book's price for a play's identity
type PriceBreakdown struct {
	Bookmaker string   `json:"bookmaker"`
	Price     int      `json:"price"`
	Decimal   float64  `json:"decimal"`
	Point     *float64 `json:"point,omitempty"`
	FairPrice *int     `json:"fair_price,omitempty"` // this book's own no-vig price
}

// EventOddsMessage carries one fetched event document over Kafka
type EventOddsMessage struct {
	SportLabel string    `json:"sport_label"`
	SportKey   string    `json:"sport_key"`
	Event      Event     `json:"event"`
	FetchedAt  time.Time `json:"fetched_at"`
}
