package fairvalue

import (
	"errors"
	"fmt"
	"math"

	"github.com/betversa/ev-engine/pkg/market"
	"github.com/betversa/ev-engine/pkg/oddsmath"
)

var (
	// ErrMissingReferenceMarket is returned when a book has no quotes for the outcome's line
	ErrMissingReferenceMarket = errors.New("reference market missing")
	// ErrIncompleteMarket is returned when a line is not a clean two-outcome market
	ErrIncompleteMarket = errors.New("market is not two-sided")
	// ErrInsufficientBoard is returned when too few board books quote the line
	ErrInsufficientBoard = errors.New("not enough board books")
)

// Method names how a fair probability was derived
type Method string

const (
	MethodReference Method = "reference"
	MethodAverage   Method = "average"
)

// DefaultMinBoardBooks is the fewest board books an average may use
const DefaultMinBoardBooks = 2

// Estimate is a no-vig win probability for one outcome
type Estimate struct {
	Probability float64
	Counterpart float64
	Method      Method
	Books       int
	// Width is the reference market width; nil for averages.
	Width *float64
}

// Resolver derives fair probabilities from a reference book, falling back to
// an average across board books
type Resolver struct {
	ReferenceBook string
	Board         []string
	MinBoardBooks int
}

// Resolve returns the reference estimate, or the board average when the
// reference book cannot price the outcome. The bool is false when neither can.
func (r Resolver) Resolve(eq *market.EventQuotes, marketKey string, o market.OutcomeKey) (Estimate, bool) {
	if est, err := r.Reference(eq, marketKey, o); err == nil {
		return est, true
	}
	if est, err := r.Average(eq, marketKey, o); err == nil {
		return est, true
	}
	return Estimate{}, false
}

// Reference de-vigs the reference book's two-outcome line for o, looking in
// the outcome's own market first and then in its family base market.
func (r Resolver) Reference(eq *market.EventQuotes, marketKey string, o market.OutcomeKey) (Estimate, error) {
	own, other, err := r.findPair(eq, r.ReferenceBook, marketKey, o)
	if err != nil {
		return Estimate{}, fmt.Errorf("reference %s: %w", r.ReferenceBook, err)
	}

	fair, counter, ok := oddsmath.NoVigPair(1/own.Decimal, 1/other.Decimal)
	if !ok {
		return Estimate{}, fmt.Errorf("reference %s: %w", r.ReferenceBook, ErrIncompleteMarket)
	}

	width := MarketWidth(own.American, other.American)
	return Estimate{
		Probability: fair,
		Counterpart: counter,
		Method:      MethodReference,
		Books:       1,
		Width:       &width,
	}, nil
}

// Average averages the implied probabilities of both sides across the board
// books that quote a two-outcome line for o, then removes the vig.
func (r Resolver) Average(eq *market.EventQuotes, marketKey string, o market.OutcomeKey) (Estimate, error) {
	minBooks := r.MinBoardBooks
	if minBooks < 1 {
		minBooks = 1
	}

	var sumOwn, sumOther float64
	books := 0
	for _, book := range r.Board {
		own, other, err := r.findPair(eq, book, marketKey, o)
		if err != nil {
			continue
		}
		sumOwn += 1 / own.Decimal
		sumOther += 1 / other.Decimal
		books++
	}

	if books < minBooks {
		return Estimate{}, fmt.Errorf("%w: %d of %d", ErrInsufficientBoard, books, minBooks)
	}

	fair, counter, ok := oddsmath.NoVigPair(sumOwn/float64(books), sumOther/float64(books))
	if !ok {
		return Estimate{}, ErrIncompleteMarket
	}

	return Estimate{
		Probability: fair,
		Counterpart: counter,
		Method:      MethodAverage,
		Books:       books,
	}, nil
}

// findPair looks up a book's pair in the market itself, then its family base
func (r Resolver) findPair(eq *market.EventQuotes, book, marketKey string, o market.OutcomeKey) (own, other market.BookPrice, err error) {
	keys := []string{marketKey}
	if base := market.Classify(marketKey).Base; base != marketKey {
		keys = append(keys, base)
	}

	err = ErrMissingReferenceMarket
	for _, key := range keys {
		mq, ok := eq.Market(key)
		if !ok {
			continue
		}
		p, q, pairErr := Pair(mq, book, o)
		if pairErr == nil {
			return p, q, nil
		}
		if errors.Is(pairErr, ErrIncompleteMarket) {
			err = pairErr
		}
	}
	return market.BookPrice{}, market.BookPrice{}, err
}

// Pair returns a book's price for o and for its single counterpart on the
// same line
func Pair(mq *market.MarketQuotes, book string, o market.OutcomeKey) (own, other market.BookPrice, err error) {
	line := mq.LineFor(book, o)
	if len(line) == 0 {
		return own, other, ErrMissingReferenceMarket
	}

	own, ok := mq.Price(book, o)
	if !ok {
		return own, other, ErrIncompleteMarket
	}

	matches := 0
	for _, bp := range line {
		if bp.Outcome == o || !isCounterpart(mq.Type, o, bp.Outcome) {
			continue
		}
		other = bp
		matches++
	}
	if matches != 1 {
		return own, market.BookPrice{}, ErrIncompleteMarket
	}
	return own, other, nil
}

// BookFair returns a single book's own no-vig probability for o
func BookFair(mq *market.MarketQuotes, book string, o market.OutcomeKey) (float64, bool) {
	own, other, err := Pair(mq, book, o)
	if err != nil {
		return 0, false
	}
	fair, _, ok := oddsmath.NoVigPair(1/own.Decimal, 1/other.Decimal)
	return fair, ok
}

// Spread sides sit on opposite points; a line may also carry the mirrored
// pair (Home +3.5 / Away -3.5), which is not the counterpart.
func isCounterpart(t market.Type, o, candidate market.OutcomeKey) bool {
	if candidate.Label == o.Label {
		return false
	}
	if t.Category != market.CategorySpread {
		return true
	}
	p, ok := o.Point.Value()
	q, qok := candidate.Point.Value()
	if !ok || !qok {
		return ok == qok
	}
	return q == -p
}

// MarketWidth is the distance between the absolute American prices of the
// two sides. -110/-110 is 0, -120/+100 is 20.
func MarketWidth(american1, american2 int) float64 {
	return math.Abs(math.Abs(float64(american1)) - math.Abs(float64(american2)))
}
