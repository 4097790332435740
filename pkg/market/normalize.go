package market

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/betversa/ev-engine/internal/models"
	"github.com/betversa/ev-engine/pkg/oddsmath"
)

// ErrMalformedQuote marks an outcome that was dropped during normalization
var ErrMalformedQuote = errors.New("malformed quote")

// QuoteError describes one dropped outcome, market or bookmaker entry.
// Market and Outcome are empty when a whole entry above them was dropped.
type QuoteError struct {
	EventID   string
	Bookmaker string
	Market    string
	Outcome   string
	Reason    string
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("%s: event %s book %s market %s outcome %q: %s",
		ErrMalformedQuote, e.EventID, e.Bookmaker, e.Market, e.Outcome, e.Reason)
}

func (e *QuoteError) Unwrap() error { return ErrMalformedQuote }

// OutcomeKey identifies one side of a market within an event
type OutcomeKey struct {
	Label   string
	Subject Subject
	Point   Line
}

// BookPrice is one bookmaker's price for an outcome
type BookPrice struct {
	Bookmaker string
	Title     string
	Outcome   OutcomeKey
	Decimal   float64
	American  int
}

// MarketQuotes holds every valid quote of one market key across bookmakers
type MarketQuotes struct {
	Type Type
	// Books is the bookmaker order of first appearance.
	Books []string
	// OutcomeOrder is the outcome order of first appearance.
	OutcomeOrder []OutcomeKey
	Outcomes     map[OutcomeKey][]BookPrice

	lines map[string]map[LineKey][]BookPrice
}

func newMarketQuotes(t Type) *MarketQuotes {
	return &MarketQuotes{
		Type:     t,
		Outcomes: make(map[OutcomeKey][]BookPrice),
		lines:    make(map[string]map[LineKey][]BookPrice),
	}
}

// Line returns a book's quotes sharing the given line, in document order
func (m *MarketQuotes) Line(book string, line LineKey) []BookPrice {
	byLine, ok := m.lines[book]
	if !ok {
		return nil
	}
	return byLine[line]
}

// LineFor returns a book's quotes on the line the outcome belongs to
func (m *MarketQuotes) LineFor(book string, o OutcomeKey) []BookPrice {
	return m.Line(book, m.Type.LineOf(o))
}

// Price returns a book's price for an outcome
func (m *MarketQuotes) Price(book string, o OutcomeKey) (BookPrice, bool) {
	for _, bp := range m.Outcomes[o] {
		if bp.Bookmaker == book {
			return bp, true
		}
	}
	return BookPrice{}, false
}

// HasBook reports whether a book quoted anything in this market
func (m *MarketQuotes) HasBook(book string) bool {
	_, ok := m.lines[book]
	return ok
}

func (m *MarketQuotes) add(bp BookPrice) {
	if _, ok := m.Price(bp.Bookmaker, bp.Outcome); ok {
		// first quote per book and outcome wins
		return
	}

	if _, ok := m.lines[bp.Bookmaker]; !ok {
		m.lines[bp.Bookmaker] = make(map[LineKey][]BookPrice)
		m.Books = append(m.Books, bp.Bookmaker)
	}
	line := m.Type.LineOf(bp.Outcome)
	m.lines[bp.Bookmaker][line] = append(m.lines[bp.Bookmaker][line], bp)

	if _, ok := m.Outcomes[bp.Outcome]; !ok {
		m.OutcomeOrder = append(m.OutcomeOrder, bp.Outcome)
	}
	m.Outcomes[bp.Outcome] = append(m.Outcomes[bp.Outcome], bp)
}

// EventQuotes is the normalized view of one event document
type EventQuotes struct {
	EventID      string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	// BookTitles maps bookmaker keys to display titles.
	BookTitles map[string]string
	// MarketOrder is the market key order of first appearance.
	MarketOrder []string
	Markets     map[string]*MarketQuotes
}

// Market returns the quotes of one market key
func (e *EventQuotes) Market(key string) (*MarketQuotes, bool) {
	m, ok := e.Markets[key]
	return m, ok
}

// Identity builds the bet identity of an outcome in this event
func (e *EventQuotes) Identity(marketKey string, o OutcomeKey) Identity {
	return NewIdentity(e.EventID, marketKey, o.Label, o.Subject, o.Point)
}

// Normalize converts a raw event document into outcome-keyed quote groups.
// Outcomes that cannot be priced, and bookmaker or market entries that could
// not be decoded, are dropped and returned as errors. When
// accepted is non-empty only those market keys are normalized.
func Normalize(event models.Event, format oddsmath.Format, accepted map[string]bool) (*EventQuotes, []error) {
	eq := &EventQuotes{
		EventID:      event.ID,
		SportKey:     event.SportKey,
		HomeTeam:     event.HomeTeam,
		AwayTeam:     event.AwayTeam,
		CommenceTime: event.CommenceTime,
		BookTitles:   make(map[string]string),
		Markets:      make(map[string]*MarketQuotes),
	}

	var errs []error
	for _, book := range event.Bookmakers {
		bookKey := strings.ToLower(strings.TrimSpace(book.Key))
		if book.Defect != "" {
			errs = append(errs, &QuoteError{
				EventID:   event.ID,
				Bookmaker: bookKey,
				Reason:    book.Defect,
			})
			continue
		}
		if bookKey == "" {
			continue
		}
		if _, ok := eq.BookTitles[bookKey]; !ok {
			eq.BookTitles[bookKey] = book.Title
		}

		for _, mkt := range book.Markets {
			t := Classify(mkt.Key)
			if len(accepted) > 0 && t.Key != "" && !accepted[t.Key] {
				continue
			}
			if mkt.Defect != "" {
				errs = append(errs, &QuoteError{
					EventID:   event.ID,
					Bookmaker: bookKey,
					Market:    mkt.Key,
					Reason:    mkt.Defect,
				})
				continue
			}
			if t.Key == "" {
				continue
			}

			for _, out := range mkt.Outcomes {
				bp, err := toBookPrice(bookKey, book.Title, out, format)
				if err != nil {
					errs = append(errs, &QuoteError{
						EventID:   event.ID,
						Bookmaker: bookKey,
						Market:    t.Key,
						Outcome:   out.Name,
						Reason:    err.Error(),
					})
					continue
				}

				mq, ok := eq.Markets[t.Key]
				if !ok {
					mq = newMarketQuotes(t)
					eq.Markets[t.Key] = mq
					eq.MarketOrder = append(eq.MarketOrder, t.Key)
				}
				mq.add(bp)
			}
		}
	}

	return eq, errs
}

func toBookPrice(bookKey, title string, out models.Outcome, format oddsmath.Format) (BookPrice, error) {
	if out.Defect != "" {
		return BookPrice{}, errors.New(out.Defect)
	}
	label := canonicalLabel(out.Name)
	if label == "" {
		return BookPrice{}, errors.New("missing outcome name")
	}
	if !out.Price.Valid {
		return BookPrice{}, errors.New("missing or non-numeric price")
	}

	dec, err := oddsmath.ToDecimal(out.Price.Value, format)
	if err != nil {
		return BookPrice{}, err
	}

	var american int
	if format == oddsmath.FormatAmerican {
		american = int(math.Round(out.Price.Value))
	} else {
		american, err = oddsmath.DecimalToAmerican(dec)
		if err != nil {
			return BookPrice{}, err
		}
	}

	subject := NoSubject
	if name, ok := out.Subject(); ok {
		subject = SubjectOf(name)
	}

	return BookPrice{
		Bookmaker: bookKey,
		Title:     title,
		Outcome: OutcomeKey{
			Label:   label,
			Subject: subject,
			Point:   LineFromPtr(out.Point),
		},
		Decimal:  dec,
		American: american,
	}, nil
}

func canonicalLabel(name string) string {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "over":
		return "Over"
	case "under":
		return "Under"
	case "yes":
		return "Yes"
	case "no":
		return "No"
	}
	return name
}
