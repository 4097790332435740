package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Play is a selected positive-EV offer as written to the output artifact
type Play struct {
	UniqueID          string           `json:"unique_id"`
	EventID           string           `json:"event_id"`
	Sport             string           `json:"sport"`
	HomeTeam          string           `json:"home_team"`
	AwayTeam          string           `json:"away_team"`
	CommenceTime      time.Time        `json:"commence_time"`
	Market            string           `json:"market"`
	Bookmaker         string           `json:"bookmaker"`
	Outcome           string           `json:"outcome"`
	Description       *string          `json:"description,omitempty"`
	Point             *float64         `json:"point,omitempty"`
	SportsbookPrice   int              `json:"sportsbook_price"`   // American odds
	SportsbookDecimal float64          `json:"sportsbook_decimal"` // Decimal odds
	FairProbability   float64          `json:"fair_probability"`
	FairPrice         int              `json:"fair_price"` // American odds
	CalcMethod        string           `json:"calc_method"`
	MarketWidth       *float64         `json:"market_width,omitempty"`
	EV                float64          `json:"ev"`
	AverageEV         *float64         `json:"average_ev,omitempty"`
	AverageFairPrice  *int             `json:"average_fair_price,omitempty"`
	KellyFraction     float64          `json:"kelly_fraction"` // After the fractional multiplier
	KellyDollar       decimal.Decimal  `json:"kelly_dollar"`
	PriceBreakdown    []PriceBreakdown `json:"price_breakdown"`
}

// PlaysMessage is the Kafka payload for one batch of plays
type PlaysMessage struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Plays       []Play    `json:"plays"`
}
