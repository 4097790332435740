package oddsmath

import "github.com/shopspring/decimal"

// CalculateEV returns the expected profit per unit staked at decimal odds d
// given fair probability p.
//
// EV = p·(d−1) − (1−p)
//
// Example: p=0.50 at +105 (2.05) → 0.50·1.05 − 0.50 = 0.025
func CalculateEV(fairProb, decimalOdds float64) float64 {
	return fairProb*(decimalOdds-1) - (1 - fairProb)
}

// KellyFraction returns the full-Kelly bankroll fraction, clamped to >= 0.
// Even money with zero vig (b == 0) returns 0.
func KellyFraction(fairProb, decimalOdds float64) float64 {
	b := decimalOdds - 1
	if b <= 0 {
		return 0
	}

	f := (fairProb*b - (1 - fairProb)) / b
	if f < 0 {
		return 0
	}
	return f
}

// KellyStake converts a Kelly fraction into a dollar stake rounded to cents
func KellyStake(bankroll decimal.Decimal, multiplier, fraction float64) decimal.Decimal {
	if fraction <= 0 || multiplier <= 0 {
		return decimal.Zero
	}
	return bankroll.Mul(decimal.NewFromFloat(multiplier * fraction)).Round(2)
}

// NoVigPair normalizes two implied probabilities so they sum to 1
func NoVigPair(implied1, implied2 float64) (fair1, fair2 float64, ok bool) {
	total := implied1 + implied2
	if implied1 <= 0 || implied2 <= 0 || total <= 0 {
		return 0, 0, false
	}
	return implied1 / total, implied2 / total, true
}
