package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Provider documents decode leniently below the event: a bookmaker, market or
// outcome that cannot be read keeps whatever decoded and carries a Defect, so
// the rest of the event survives.

// UnmarshalJSON decodes a bookmaker without failing on bad fields
func (b *Bookmaker) UnmarshalJSON(data []byte) error {
	*b = Bookmaker{}

	var raw struct {
		Key        json.RawMessage `json:"key"`
		Title      json.RawMessage `json:"title"`
		LastUpdate json.RawMessage `json:"last_update"`
		Markets    json.RawMessage `json:"markets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		b.Defect = "bookmaker is not an object"
		return nil
	}

	key, ok := decodeString(raw.Key)
	if !ok || key == "" {
		b.addDefect("missing or invalid bookmaker key")
	}
	b.Key = key
	b.Title, _ = decodeString(raw.Title)
	b.LastUpdate = decodeTime(raw.LastUpdate)

	if !isNull(raw.Markets) {
		if err := json.Unmarshal(raw.Markets, &b.Markets); err != nil {
			b.Markets = nil
			b.addDefect("markets is not a list")
		}
	}
	return nil
}

func (b *Bookmaker) addDefect(reason string) {
	b.Defect = joinDefect(b.Defect, reason)
}

// UnmarshalJSON decodes a market without failing on bad fields
func (m *Market) UnmarshalJSON(data []byte) error {
	*m = Market{}

	var raw struct {
		Key      json.RawMessage `json:"key"`
		Outcomes json.RawMessage `json:"outcomes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		m.Defect = "market is not an object"
		return nil
	}

	key, ok := decodeString(raw.Key)
	if !ok || key == "" {
		m.Defect = joinDefect(m.Defect, "missing or invalid market key")
	}
	m.Key = key

	if !isNull(raw.Outcomes) {
		if err := json.Unmarshal(raw.Outcomes, &m.Outcomes); err != nil {
			m.Outcomes = nil
			m.Defect = joinDefect(m.Defect, "outcomes is not a list")
		}
	}
	return nil
}

// UnmarshalJSON decodes an outcome without failing on bad fields. A bad
// price leaves Price invalid; a bad point or subject sets Defect because
// either would change which bet the outcome is.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	*o = Outcome{}

	var raw struct {
		Name        json.RawMessage `json:"name"`
		Price       json.RawMessage `json:"price"`
		Point       json.RawMessage `json:"point"`
		Description json.RawMessage `json:"description"`
		Player      json.RawMessage `json:"player"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		o.Defect = "outcome is not an object"
		return nil
	}

	name, ok := decodeString(raw.Name)
	if !ok {
		o.Defect = joinDefect(o.Defect, "invalid outcome name")
	}
	o.Name = name

	if raw.Price != nil {
		o.Price.UnmarshalJSON(raw.Price)
	}

	if !isNull(raw.Point) {
		if v, ok := decodeNumber(raw.Point); ok {
			o.Point = &v
		} else {
			o.Defect = joinDefect(o.Defect, "invalid point "+string(raw.Point))
		}
	}

	o.Description = o.decodeSubject(raw.Description, "description")
	o.Player = o.decodeSubject(raw.Player, "player")
	return nil
}

func (o *Outcome) decodeSubject(raw json.RawMessage, field string) *string {
	if isNull(raw) {
		return nil
	}
	s, ok := decodeString(raw)
	if !ok {
		o.Defect = joinDefect(o.Defect, "invalid "+field)
		return nil
	}
	return &s
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// decodeString accepts a JSON string or null
func decodeString(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeNumber accepts a finite JSON number or numeric string
func decodeNumber(raw []byte) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return 0, false
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		raw = []byte(s)
	}

	v, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// decodeTime reads an RFC 3339 timestamp; anything else is the zero time
func decodeTime(raw json.RawMessage) time.Time {
	s, ok := decodeString(raw)
	if !ok || s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func joinDefect(existing, reason string) string {
	if existing == "" {
		return reason
	}
	return existing + "; " + reason
}
