package output

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/betversa/ev-engine/internal/models"
	"github.com/betversa/ev-engine/pkg/engine"
	"github.com/betversa/ev-engine/pkg/fairvalue"
	"github.com/betversa/ev-engine/pkg/market"
	"github.com/betversa/ev-engine/pkg/oddsmath"
)

// DefaultPriceBand is the widest American price a play may carry
const DefaultPriceBand = 200

// Assembler turns selected candidates into output plays
type Assembler struct {
	priceBand int
	logger    zerolog.Logger
}

// NewAssembler creates an assembler; a non-positive band disables the price filter
func NewAssembler(priceBand int, logger zerolog.Logger) *Assembler {
	return &Assembler{
		priceBand: priceBand,
		logger:    logger.With().Str("component", "assembler").Logger(),
	}
}

// InBand reports whether an American price is inside ±band
func (a *Assembler) InBand(american int) bool {
	if a.priceBand <= 0 {
		return true
	}
	return american >= -a.priceBand && american <= a.priceBand
}

// Build converts one event's selected candidates into plays, dropping prices
// outside the band
func (a *Assembler) Build(sport string, eq *market.EventQuotes, candidates []engine.Candidate) []models.Play {
	plays := make([]models.Play, 0, len(candidates))

	for _, c := range candidates {
		if !a.InBand(c.American) {
			a.logger.Debug().
				Str("event_id", eq.EventID).
				Str("market", c.Market.Key).
				Str("bookmaker", c.Bookmaker).
				Int("price", c.American).
				Msg("price outside band")
			continue
		}

		play, err := a.play(sport, eq, c)
		if err != nil {
			a.logger.Warn().
				Err(err).
				Str("event_id", eq.EventID).
				Str("market", c.Market.Key).
				Str("bookmaker", c.Bookmaker).
				Msg("failed to build play")
			continue
		}
		plays = append(plays, play)
	}

	return plays
}

func (a *Assembler) play(sport string, eq *market.EventQuotes, c engine.Candidate) (models.Play, error) {
	fairPrice, err := oddsmath.ProbabilityToAmerican(c.Fair.Probability)
	if err != nil {
		return models.Play{}, err
	}

	play := models.Play{
		UniqueID:          c.Identity.Key(),
		EventID:           eq.EventID,
		Sport:             sport,
		HomeTeam:          eq.HomeTeam,
		AwayTeam:          eq.AwayTeam,
		CommenceTime:      eq.CommenceTime,
		Market:            c.Market.Key,
		Bookmaker:         displayName(c.BookTitle, c.Bookmaker),
		Outcome:           c.Outcome.Label,
		Description:       c.Outcome.Subject.Ptr(),
		Point:             c.Outcome.Point.Ptr(),
		SportsbookPrice:   c.American,
		SportsbookDecimal: c.Decimal,
		FairProbability:   c.Fair.Probability,
		FairPrice:         fairPrice,
		CalcMethod:        string(c.Fair.Method),
		MarketWidth:       c.Fair.Width,
		EV:                c.EV,
		AverageEV:         c.AverageEV,
		KellyFraction:     c.StakeFraction(),
		KellyDollar:       c.Stake,
	}

	if c.Average != nil {
		if avgPrice, err := oddsmath.ProbabilityToAmerican(c.Average.Probability); err == nil {
			play.AverageFairPrice = &avgPrice
		}
	}

	if mq, ok := eq.Market(c.Market.Key); ok {
		play.PriceBreakdown = breakdown(mq, c.Outcome)
	}

	return play, nil
}

// breakdown lists every observed book's price for the outcome with that
// book's own no-vig price when its line is two-sided
func breakdown(mq *market.MarketQuotes, o market.OutcomeKey) []models.PriceBreakdown {
	prices := mq.Outcomes[o]
	out := make([]models.PriceBreakdown, 0, len(prices))

	for _, bp := range prices {
		row := models.PriceBreakdown{
			Bookmaker: displayName(bp.Title, bp.Bookmaker),
			Price:     bp.American,
			Decimal:   bp.Decimal,
			Point:     o.Point.Ptr(),
		}
		if p, ok := fairvalue.BookFair(mq, bp.Bookmaker, o); ok {
			if fair, err := oddsmath.ProbabilityToAmerican(p); err == nil {
				row.FairPrice = &fair
			}
		}
		out = append(out, row)
	}

	return out
}

// Rank orders plays by EV descending; equal EVs keep their order
func Rank(plays []models.Play) []models.Play {
	ranked := make([]models.Play, len(plays))
	copy(ranked, plays)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].EV > ranked[j].EV })
	return ranked
}

func displayName(title, key string) string {
	if title != "" {
		return title
	}
	return key
}
