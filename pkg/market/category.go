package market

import (
	"math"
	"strings"
)

// Category is the kind of two-way market a provider market key represents
type Category int

const (
	CategoryUnknown Category = iota
	CategoryMoneyline
	CategorySpread
	CategoryTotal
	CategoryPlayerProp
)

func (c Category) String() string {
	switch c {
	case CategoryMoneyline:
		return "moneyline"
	case CategorySpread:
		return "spread"
	case CategoryTotal:
		return "total"
	case CategoryPlayerProp:
		return "player_prop"
	default:
		return "unknown"
	}
}

// Type is a classified market key
type Type struct {
	Key       string
	Category  Category
	Alternate bool
	// Base is the main-line market of the same family ("alternate_spreads" → "spreads").
	Base string
}

type classification struct {
	category  Category
	alternate bool
	base      string
}

// exactKeys and prefixKeys are the single source of market classification.
var exactKeys = map[string]classification{
	"h2h":                   {CategoryMoneyline, false, "h2h"},
	"spreads":               {CategorySpread, false, "spreads"},
	"alternate_spreads":     {CategorySpread, true, "spreads"},
	"totals":                {CategoryTotal, false, "totals"},
	"alternate_totals":      {CategoryTotal, true, "totals"},
	"team_totals":           {CategoryTotal, false, "team_totals"},
	"alternate_team_totals": {CategoryTotal, true, "team_totals"},
}

// First match wins, so longer prefixes of the same family come first.
var prefixKeys = []struct {
	prefix    string
	category  Category
	alternate bool
}{
	{"h2h_", CategoryMoneyline, false},
	{"alternate_spreads_", CategorySpread, true},
	{"spreads_", CategorySpread, false},
	{"alternate_totals_", CategoryTotal, true},
	{"totals_", CategoryTotal, false},
	{"player_", CategoryPlayerProp, false},
	{"batter_", CategoryPlayerProp, false},
	{"pitcher_", CategoryPlayerProp, false},
}

const alternateSuffix = "_alternate"

// Classify maps a provider market key to its Type
func Classify(key string) Type {
	key = strings.ToLower(strings.TrimSpace(key))

	if c, ok := exactKeys[key]; ok {
		return Type{Key: key, Category: c.category, Alternate: c.alternate, Base: c.base}
	}

	for _, p := range prefixKeys {
		if !strings.HasPrefix(key, p.prefix) {
			continue
		}
		t := Type{Key: key, Category: p.category, Alternate: p.alternate, Base: key}
		switch {
		case p.category == CategoryPlayerProp && strings.HasSuffix(key, alternateSuffix):
			t.Alternate = true
			t.Base = strings.TrimSuffix(key, alternateSuffix)
		case p.alternate:
			t.Base = strings.TrimPrefix(key, "alternate_")
		}
		return t
	}

	return Type{Key: key, Category: CategoryUnknown, Base: key}
}

// Supported reports whether the engine can price this market
func (t Type) Supported() bool {
	return t.Category != CategoryUnknown
}

// MainLine reports whether the market is a main moneyline, spread or total
func (t Type) MainLine() bool {
	return !t.Alternate && t.Category != CategoryPlayerProp && t.Category != CategoryUnknown
}

// LineKey identifies the line both sides of a two-way market share
type LineKey struct {
	Subject Subject
	Point   Line
}

// LineOf returns the shared line of an outcome. Spread sides carry opposite
// signs, so they pair on the absolute point.
func (t Type) LineOf(o OutcomeKey) LineKey {
	point := o.Point
	if t.Category == CategorySpread && point.ok {
		point = LineAt(math.Abs(point.value))
	}
	if t.Category == CategoryMoneyline {
		point = NoLine
	}
	return LineKey{Subject: o.Subject, Point: point}
}
