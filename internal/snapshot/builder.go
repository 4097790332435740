package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/betversa/ev-engine/internal/models"
	"github.com/betversa/ev-engine/pkg/market"
)

// BuildRecords emits one snapshot per observed bet identity with the price of
// every book quoting it. All records share capturedAt.
func BuildRecords(eq *market.EventQuotes, sport string, capturedAt time.Time) []models.Snapshot {
	capturedAt = capturedAt.UTC()

	var out []models.Snapshot
	for _, key := range eq.MarketOrder {
		mq := eq.Markets[key]
		for _, o := range mq.OutcomeOrder {
			prices := mq.Outcomes[o]
			if len(prices) == 0 {
				continue
			}

			books := make([]models.BookQuote, 0, len(prices))
			for _, bp := range prices {
				books = append(books, models.BookQuote{
					Key:      bp.Bookmaker,
					Title:    bp.Title,
					Decimal:  bp.Decimal,
					American: bp.American,
					Point:    o.Point.Ptr(),
				})
			}

			out = append(out, models.Snapshot{
				ID:          uuid.New(),
				BetIdentity: eq.Identity(key, o).Key(),
				CapturedAt:  capturedAt,
				Quote: models.MinimizedQuote{
					Sport:        sport,
					EventID:      eq.EventID,
					HomeTeam:     eq.HomeTeam,
					AwayTeam:     eq.AwayTeam,
					CommenceTime: eq.CommenceTime,
					Market:       key,
					Outcome:      o.Label,
					Description:  o.Subject.Ptr(),
					Point:        o.Point.Ptr(),
					Bookmakers:   books,
				},
			})
		}
	}

	return out
}
