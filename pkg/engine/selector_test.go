package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/betversa/ev-engine/pkg/market"
)

func TestSelectBest(t *testing.T) {
	a := market.NewIdentity("e", "h2h", "Home", market.NoSubject, market.NoLine)
	b := market.NewIdentity("e", "h2h", "Away", market.NoSubject, market.NoLine)

	candidates := []Candidate{
		{Identity: a, Bookmaker: "fanduel", EV: 0.02},
		{Identity: b, Bookmaker: "fanduel", EV: 0.01},
		{Identity: a, Bookmaker: "draftkings", EV: 0.04},
		{Identity: b, Bookmaker: "betmgm", EV: 0.01},
		{Identity: a, Bookmaker: "betmgm", EV: 0.03},
	}

	best := SelectBest(candidates)
	assert.Len(t, best, 2)

	assert.Equal(t, a, best[0].Identity)
	assert.Equal(t, "draftkings", best[0].Bookmaker)

	// tie keeps the first seen
	assert.Equal(t, b, best[1].Identity)
	assert.Equal(t, "fanduel", best[1].Bookmaker)
}

func TestSelectBest_MaxPerIdentity(t *testing.T) {
	id := market.NewIdentity("e", "totals", "Over", market.NoSubject, market.LineAt(220.5))
	candidates := []Candidate{
		{Identity: id, EV: 0.01},
		{Identity: id, EV: 0.07},
		{Identity: id, EV: 0.05},
	}

	best := SelectBest(candidates)
	assert.Len(t, best, 1)
	for _, c := range candidates {
		assert.GreaterOrEqual(t, best[0].EV, c.EV)
	}
}

func TestSelectBest_Empty(t *testing.T) {
	assert.Empty(t, SelectBest(nil))
}
