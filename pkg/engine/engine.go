package engine

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/betversa/ev-engine/pkg/fairvalue"
	"github.com/betversa/ev-engine/pkg/market"
	"github.com/betversa/ev-engine/pkg/oddsmath"
)

// Params configures fair-value resolution, admission and staking
type Params struct {
	ReferenceBook string
	Board         []string
	// TargetBooks limits which books can produce plays; empty means every
	// book except the reference.
	TargetBooks   []string
	MinBoardBooks int

	Epsilon        float64
	MaxEV          float64
	MaxMarketWidth float64 // 0 disables

	Bankroll            decimal.Decimal
	MainKellyMultiplier float64
	AltKellyMultiplier  float64
}

// DefaultParams returns the production defaults
func DefaultParams() Params {
	return Params{
		ReferenceBook: "pinnacle",
		Board: []string{
			"fanduel", "draftkings", "betmgm", "espnbet", "williamhill_us",
			"betonlinag", "lowvig", "betrivers", "hardrockbet",
		},
		TargetBooks:         []string{"fanduel", "draftkings", "betmgm"},
		MinBoardBooks:       fairvalue.DefaultMinBoardBooks,
		Epsilon:             0.005,
		MaxEV:               0.10,
		MaxMarketWidth:      25,
		Bankroll:            decimal.NewFromInt(1000),
		MainKellyMultiplier: 0.5,
		AltKellyMultiplier:  0.25,
	}
}

// Candidate is one book's price evaluated against the fair value of its bet
type Candidate struct {
	Identity  market.Identity
	Market    market.Type
	Outcome   market.OutcomeKey
	Bookmaker string
	BookTitle string
	Decimal   float64
	American  int

	Fair fairvalue.Estimate
	EV   float64
	// Average is the board estimate when the reference path produced Fair.
	Average   *fairvalue.Estimate
	AverageEV *float64

	Kelly      float64 // full Kelly
	Multiplier float64
	Stake      decimal.Decimal
}

// StakeFraction is the bankroll fraction after the fractional multiplier
func (c Candidate) StakeFraction() float64 {
	return c.Kelly * c.Multiplier
}

// Engine evaluates the normalized quotes of one event
type Engine struct {
	params   Params
	resolver fairvalue.Resolver
	targets  map[string]bool
	logger   zerolog.Logger
}

// NewEngine creates an engine with explicit parameters
func NewEngine(params Params, logger zerolog.Logger) *Engine {
	targets := make(map[string]bool, len(params.TargetBooks))
	for _, b := range params.TargetBooks {
		targets[b] = true
	}

	return &Engine{
		params: params,
		resolver: fairvalue.Resolver{
			ReferenceBook: params.ReferenceBook,
			Board:         params.Board,
			MinBoardBooks: params.MinBoardBooks,
		},
		targets: targets,
		logger:  logger.With().Str("component", "engine").Logger(),
	}
}

// Params returns the engine configuration
func (e *Engine) Params() Params {
	return e.params
}

// Resolver returns the fair-value resolver in use
func (e *Engine) Resolver() fairvalue.Resolver {
	return e.resolver
}

// Process evaluates, admits and selects the best play per bet for one event
func (e *Engine) Process(eq *market.EventQuotes) []Candidate {
	evaluated := e.Evaluate(eq)

	admitted := make([]Candidate, 0, len(evaluated))
	for _, c := range evaluated {
		if e.Admit(c) {
			admitted = append(admitted, c)
		}
	}

	best := SelectBest(admitted)

	e.logger.Debug().
		Str("event_id", eq.EventID).
		Int("evaluated", len(evaluated)).
		Int("admitted", len(admitted)).
		Int("selected", len(best)).
		Msg("event evaluated")

	return best
}

// Evaluate prices every target book's quote against the fair value of its bet
func (e *Engine) Evaluate(eq *market.EventQuotes) []Candidate {
	var out []Candidate

	for _, key := range eq.MarketOrder {
		mq := eq.Markets[key]
		if !mq.Type.Supported() {
			e.logger.Debug().Str("event_id", eq.EventID).Str("market", key).Msg("unsupported market skipped")
			continue
		}

		multiplier := e.params.AltKellyMultiplier
		if mq.Type.MainLine() {
			multiplier = e.params.MainKellyMultiplier
		}

		for _, o := range mq.OutcomeOrder {
			fair, avg, ok := e.fairValue(eq, key, o)
			if !ok {
				continue
			}

			id := eq.Identity(key, o)
			for _, bp := range mq.Outcomes[o] {
				if !e.isTarget(bp.Bookmaker) {
					continue
				}
				out = append(out, e.candidate(id, mq.Type, o, bp, fair, avg, multiplier))
			}
		}
	}

	return out
}

func (e *Engine) fairValue(eq *market.EventQuotes, key string, o market.OutcomeKey) (fair fairvalue.Estimate, avg *fairvalue.Estimate, ok bool) {
	ref, refErr := e.resolver.Reference(eq, key, o)
	board, boardErr := e.resolver.Average(eq, key, o)

	switch {
	case refErr == nil:
		if boardErr == nil {
			avg = &board
		}
		return ref, avg, true
	case boardErr == nil:
		return board, nil, true
	default:
		e.logger.Debug().
			Str("event_id", eq.EventID).
			Str("market", key).
			Str("outcome", o.Label).
			AnErr("reference", refErr).
			AnErr("average", boardErr).
			Msg("no fair value")
		return fairvalue.Estimate{}, nil, false
	}
}

func (e *Engine) candidate(id market.Identity, t market.Type, o market.OutcomeKey, bp market.BookPrice,
	fair fairvalue.Estimate, avg *fairvalue.Estimate, multiplier float64) Candidate {
	kelly := oddsmath.KellyFraction(fair.Probability, bp.Decimal)

	c := Candidate{
		Identity:   id,
		Market:     t,
		Outcome:    o,
		Bookmaker:  bp.Bookmaker,
		BookTitle:  bp.Title,
		Decimal:    bp.Decimal,
		American:   bp.American,
		Fair:       fair,
		EV:         oddsmath.CalculateEV(fair.Probability, bp.Decimal),
		Average:    avg,
		Kelly:      kelly,
		Multiplier: multiplier,
		Stake:      oddsmath.KellyStake(e.params.Bankroll, multiplier, kelly),
	}
	if avg != nil {
		ev := oddsmath.CalculateEV(avg.Probability, bp.Decimal)
		c.AverageEV = &ev
	}
	return c
}

func (e *Engine) isTarget(book string) bool {
	if book == e.params.ReferenceBook {
		return false
	}
	if len(e.targets) == 0 {
		return true
	}
	return e.targets[book]
}

// Admit reports whether a candidate passes the EV window and the market
// width ceiling
func (e *Engine) Admit(c Candidate) bool {
	if c.EV <= e.params.Epsilon || c.EV > e.params.MaxEV {
		return false
	}
	if e.params.MaxMarketWidth > 0 && c.Fair.Width != nil && *c.Fair.Width > e.params.MaxMarketWidth {
		return false
	}
	return true
}
