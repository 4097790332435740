package oddsmath

import (
	"fmt"
	"math"
	"strings"
)

// Format identifies how a provider quotes prices
type Format string

const (
	FormatDecimal  Format = "decimal"
	FormatAmerican Format = "american"
)

// ParseFormat parses a configured odds format, defaulting to decimal
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "decimal":
		return FormatDecimal, nil
	case "american":
		return FormatAmerican, nil
	default:
		return "", fmt.Errorf("unknown odds format %q", s)
	}
}

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func AmericanToDecimal(american float64) (float64, error) {
	if american == 0 || math.IsNaN(american) || math.IsInf(american, 0) {
		return 0, fmt.Errorf("invalid American odds: %v", american)
	}

	if american > 0 {
		return american/100.0 + 1.0, nil
	}

	return 100.0/(-american) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds.
// Decimal >= 2 maps to non-negative American odds, below 2 to negative.
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal < 1.0 || math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return 0, fmt.Errorf("invalid decimal odds: %v", decimal)
	}

	if decimal == 1.0 {
		return 0, nil
	}

	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}

	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// ImpliedProbability converts decimal odds to implied probability
// Decimal 2.00 → 0.50
func ImpliedProbability(decimal float64) (float64, error) {
	if decimal <= 0 || math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return 0, fmt.Errorf("invalid decimal odds: %v", decimal)
	}

	return 1.0 / decimal, nil
}

// ProbabilityToDecimal converts a probability in (0,1) to decimal odds
func ProbabilityToDecimal(probability float64) (float64, error) {
	if probability <= 0 || probability >= 1 || math.IsNaN(probability) {
		return 0, fmt.Errorf("invalid probability: %v", probability)
	}

	return 1.0 / probability, nil
}

// ProbabilityToAmerican converts a probability directly to American odds
func ProbabilityToAmerican(probability float64) (int, error) {
	decimal, err := ProbabilityToDecimal(probability)
	if err != nil {
		return 0, err
	}

	return DecimalToAmerican(decimal)
}

// ToDecimal normalizes a quoted price to decimal odds
func ToDecimal(price float64, format Format) (float64, error) {
	switch format {
	case FormatAmerican:
		return AmericanToDecimal(price)
	case FormatDecimal, "":
		if price <= 1.0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return 0, fmt.Errorf("invalid decimal odds: %v", price)
		}
		return price, nil
	default:
		return 0, fmt.Errorf("unknown odds format %q", format)
	}
}
