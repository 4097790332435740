package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
		value float64
	}{
		{"number", `1.95`, true, 1.95},
		{"negative american", `-110`, true, -110},
		{"numeric string", `"2.10"`, true, 2.10},
		{"null", `null`, false, 0},
		{"text", `"N/A"`, false, 0},
		{"object", `{"v":1}`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Price
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &p))
			assert.Equal(t, tt.valid, p.Valid)
			assert.Equal(t, tt.value, p.Value)
		})
	}
}

func TestEvent_DecodesWithMalformedPrice(t *testing.T) {
	doc := `{
		"id": "evt-1",
		"sport_key": "basketball_nba",
		"home_team": "Lakers",
		"away_team": "Celtics",
		"commence_time": "2026-10-20T23:30:00Z",
		"bookmakers": [{
			"key": "fanduel",
			"title": "FanDuel",
			"markets": [{
				"key": "player_points",
				"outcomes": [
					{"name": "Over", "price": "abc", "point": 24.5, "description": "LeBron James"},
					{"name": "Under", "point": 24.5, "description": "LeBron James"},
					{"name": "Over", "price": 1.91, "point": 25.5, "player": "Anthony Davis"}
				]
			}]
		}]
	}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(doc), &ev))
	require.Len(t, ev.Bookmakers, 1)

	outcomes := ev.Bookmakers[0].Markets[0].Outcomes
	require.Len(t, outcomes, 3)
	assert.False(t, outcomes[0].Price.Valid)
	assert.False(t, outcomes[1].Price.Valid)
	assert.True(t, outcomes[2].Price.Valid)

	subject, ok := outcomes[0].Subject()
	assert.True(t, ok)
	assert.Equal(t, "LeBron James", subject)

	subject, ok = outcomes[2].Subject()
	assert.True(t, ok)
	assert.Equal(t, "Anthony Davis", subject)
}

func TestPrice_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Outcome{Name: "Over", Price: NewPrice(1.87)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Over","price":1.87}`, string(data))

	data, err = json.Marshal(Outcome{Name: "Over"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Over","price":null}`, string(data))
}

func TestEvent_DecodesWithMalformedEntries(t *testing.T) {
	doc := `{
		"id": "evt-1",
		"sport_key": "basketball_nba",
		"home_team": "Lakers",
		"away_team": "Celtics",
		"commence_time": "2026-10-20T23:30:00Z",
		"bookmakers": [
			{"key": "pinnacle", "title": "Pinnacle", "last_update": "2026-10-20T22:00:00Z", "markets": [
				{"key": "h2h", "outcomes": [{"name": "Lakers", "price": 1.91}, {"name": "Celtics", "price": 1.91}]}
			]},
			{"key": "fanduel", "title": "FanDuel", "last_update": "", "markets": [
				{"key": "spreads", "outcomes": [
					{"name": "Lakers", "price": 1.95, "point": "bad"},
					{"name": "Celtics", "price": 1.87, "point": "3.5"}
				]},
				{"key": "player_points", "outcomes": [
					{"name": "Over", "price": 1.9, "point": 24.5, "description": 23},
					{"name": "Over", "price": 1.9, "point": 25.5, "player": ["Anthony Davis"]}
				]},
				{"key": "totals", "outcomes": {"name": "Over"}},
				"not a market"
			]},
			{"key": "betmgm", "markets": "none"},
			42
		]
	}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(doc), &ev))
	require.Len(t, ev.Bookmakers, 4)

	pinnacle := ev.Bookmakers[0]
	assert.Empty(t, pinnacle.Defect)
	assert.Equal(t, 2026, pinnacle.LastUpdate.Year())
	require.Len(t, pinnacle.Markets, 1)
	assert.True(t, pinnacle.Markets[0].Outcomes[0].Price.Valid)

	fanduel := ev.Bookmakers[1]
	assert.Empty(t, fanduel.Defect)
	assert.True(t, fanduel.LastUpdate.IsZero())
	require.Len(t, fanduel.Markets, 4)

	spreads := fanduel.Markets[0].Outcomes
	require.Len(t, spreads, 2)
	assert.Contains(t, spreads[0].Defect, "invalid point")
	assert.Nil(t, spreads[0].Point)
	assert.True(t, spreads[0].Price.Valid)
	assert.Empty(t, spreads[1].Defect)
	require.NotNil(t, spreads[1].Point)
	assert.Equal(t, 3.5, *spreads[1].Point)

	props := fanduel.Markets[1].Outcomes
	require.Len(t, props, 2)
	assert.Equal(t, "invalid description", props[0].Defect)
	assert.Equal(t, "invalid player", props[1].Defect)

	assert.Equal(t, "totals", fanduel.Markets[2].Key)
	assert.Equal(t, "outcomes is not a list", fanduel.Markets[2].Defect)
	assert.Equal(t, "market is not an object", fanduel.Markets[3].Defect)

	assert.Equal(t, "betmgm", ev.Bookmakers[2].Key)
	assert.Equal(t, "markets is not a list", ev.Bookmakers[2].Defect)
	assert.Equal(t, "bookmaker is not an object", ev.Bookmakers[3].Defect)
}

func TestOutcome_UnmarshalJSON_Point(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantPoint *float64
		defect    bool
	}{
		{"absent", `{"name":"Over","price":1.9}`, nil, false},
		{"null", `{"name":"Over","price":1.9,"point":null}`, nil, false},
		{"number", `{"name":"Over","price":1.9,"point":-2.5}`, ptr(-2.5), false},
		{"zero", `{"name":"Over","price":1.9,"point":0}`, ptr(0.0), false},
		{"numeric string", `{"name":"Over","price":1.9,"point":"7"}`, ptr(7.0), false},
		{"text", `{"name":"Over","price":1.9,"point":"pk"}`, nil, true},
		{"nan string", `{"name":"Over","price":1.9,"point":"NaN"}`, nil, true},
		{"bool", `{"name":"Over","price":1.9,"point":true}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Outcome
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &o))
			assert.Equal(t, tt.wantPoint, o.Point)
			assert.Equal(t, tt.defect, o.Defect != "")
			assert.Equal(t, "Over", o.Name)
		})
	}
}

func TestBookmaker_UnmarshalJSON_LastUpdate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		zero bool
	}{
		{"rfc3339", `{"key":"pinnacle","last_update":"2026-10-20T22:00:00Z"}`, false},
		{"empty", `{"key":"pinnacle","last_update":""}`, true},
		{"garbage", `{"key":"pinnacle","last_update":"yesterday"}`, true},
		{"number", `{"key":"pinnacle","last_update":1760997600}`, true},
		{"absent", `{"key":"pinnacle"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Bookmaker
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &b))
			assert.Empty(t, b.Defect)
			assert.Equal(t, "pinnacle", b.Key)
			assert.Equal(t, tt.zero, b.LastUpdate.IsZero())
		})
	}
}

func TestBookmaker_UnmarshalJSON_MissingKey(t *testing.T) {
	var b Bookmaker
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Mystery","markets":[]}`), &b))
	assert.Equal(t, "missing or invalid bookmaker key", b.Defect)
}

func ptr[T any](v T) *T { return &v }
