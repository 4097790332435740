package engine

import "github.com/betversa/ev-engine/pkg/market"

// SelectBest keeps the highest-EV candidate per bet identity. Ties keep the
// earlier candidate. Results follow the first appearance of each identity.
func SelectBest(candidates []Candidate) []Candidate {
	index := make(map[market.Identity]int, len(candidates))
	best := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		i, seen := index[c.Identity]
		if !seen {
			index[c.Identity] = len(best)
			best = append(best, c)
			continue
		}
		if c.EV > best[i].EV {
			best[i] = c
		}
	}

	return best
}
