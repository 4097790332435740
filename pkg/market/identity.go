package market

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Line is an optional point (spread or total line). The zero value is absent.
type Line struct {
	value float64
	ok    bool
}

// NoLine is the absent point
var NoLine = Line{}

// LineAt returns a present point. Negative zero is stored as zero.
func LineAt(v float64) Line {
	if v == 0 {
		v = 0
	}
	return Line{value: v, ok: true}
}

// LineFromPtr converts a decoded optional point
func LineFromPtr(p *float64) Line {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return NoLine
	}
	return LineAt(*p)
}

// Value returns the point and whether it is present
func (l Line) Value() (float64, bool) { return l.value, l.ok }

// Ptr returns the point as a pointer, nil when absent
func (l Line) Ptr() *float64 {
	if !l.ok {
		return nil
	}
	v := l.value
	return &v
}

func (l Line) String() string {
	if !l.ok {
		return absentField
	}
	return strconv.FormatFloat(l.value, 'g', -1, 64)
}

// Subject is an optional player or description. The zero value is absent.
type Subject struct {
	name string
	ok   bool
}

// NoSubject is the absent subject
var NoSubject = Subject{}

// SubjectOf returns a present subject
func SubjectOf(name string) Subject {
	return Subject{name: name, ok: true}
}

// Value returns the subject and whether it is present
func (s Subject) Value() (string, bool) { return s.name, s.ok }

// Ptr returns the subject as a pointer, nil when absent
func (s Subject) Ptr() *string {
	if !s.ok {
		return nil
	}
	v := s.name
	return &v
}

// Identity is the canonical key of a logical bet. It is comparable and safe
// to use as a map key.
type Identity struct {
	EventID string
	Market  string
	Outcome string
	Subject Subject
	Point   Line
}

// NewIdentity builds an identity with a normalized market key
func NewIdentity(eventID, marketKey, outcome string, subject Subject, point Line) Identity {
	return Identity{
		EventID: eventID,
		Market:  strings.ToLower(strings.TrimSpace(marketKey)),
		Outcome: outcome,
		Subject: subject,
		Point:   point,
	}
}

const (
	absentField    = "~"
	fieldSeparator = '|'
	identityFields = 5
)

// ErrInvalidIdentity is returned when a key cannot be parsed
var ErrInvalidIdentity = errors.New("invalid bet identity")

// Key returns the canonical string form: quoted fields joined by '|', with
// '~' for an absent subject or point. Quoting keeps any field content
// unambiguous.
func (id Identity) Key() string {
	var b strings.Builder
	b.WriteString(strconv.Quote(id.EventID))
	b.WriteByte(fieldSeparator)
	b.WriteString(strconv.Quote(id.Market))
	b.WriteByte(fieldSeparator)
	b.WriteString(strconv.Quote(id.Outcome))
	b.WriteByte(fieldSeparator)
	if name, ok := id.Subject.Value(); ok {
		b.WriteString(strconv.Quote(name))
	} else {
		b.WriteString(absentField)
	}
	b.WriteByte(fieldSeparator)
	b.WriteString(id.Point.String())
	return b.String()
}

func (id Identity) String() string { return id.Key() }

// ParseIdentity parses the output of Identity.Key
func ParseIdentity(key string) (Identity, error) {
	fields := make([]string, 0, identityFields)
	absent := make([]bool, 0, identityFields)
	rest := key

	for i := 0; i < identityFields; i++ {
		if i > 0 {
			if rest == "" || rest[0] != fieldSeparator {
				return Identity{}, fmt.Errorf("%w: missing separator before field %d", ErrInvalidIdentity, i)
			}
			rest = rest[1:]
		}

		switch {
		case i == identityFields-1:
			// point is unquoted and runs to the end
			fields = append(fields, rest)
			absent = append(absent, rest == absentField)
			rest = ""
		case strings.HasPrefix(rest, absentField):
			fields = append(fields, "")
			absent = append(absent, true)
			rest = rest[len(absentField):]
		default:
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return Identity{}, fmt.Errorf("%w: field %d: %v", ErrInvalidIdentity, i, err)
			}
			value, err := strconv.Unquote(quoted)
			if err != nil {
				return Identity{}, fmt.Errorf("%w: field %d: %v", ErrInvalidIdentity, i, err)
			}
			fields = append(fields, value)
			absent = append(absent, false)
			rest = rest[len(quoted):]
		}
	}

	for i := 0; i < 3; i++ {
		if absent[i] {
			return Identity{}, fmt.Errorf("%w: field %d is required", ErrInvalidIdentity, i)
		}
	}

	id := Identity{EventID: fields[0], Market: fields[1], Outcome: fields[2]}
	if !absent[3] {
		id.Subject = SubjectOf(fields[3])
	}
	if !absent[4] {
		v, err := strconv.ParseFloat(fields[4], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Identity{}, fmt.Errorf("%w: point %q", ErrInvalidIdentity, fields[4])
		}
		id.Point = LineAt(v)
	}

	return id, nil
}
