package amenity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeIsTotal(t *testing.T) {
	cases := []struct {
		name string
		raw  any
	}{
		{name: "nil", raw: nil},
		{name: "empty object", raw: map[string]any{}},
		{name: "array", raw: []any{1, 2}},
		{name: "string", raw: "bench"},
		{name: "extra keys only", raw: map[string]any{"fountain": map[string]any{"detected": true}}},
		{name: "non object entry", raw: map[string]any{"bench": true, "shelter": "yes"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.raw)
			require.Equal(t, Default(), got)
		})
	}
}

func TestNormalizeCoercesFields(t *testing.T) {
	raw := map[string]any{
		"bench":           map[string]any{"detected": true, "confidence": 0.9},
		"shelter":         map[string]any{"detected": "TRUE", "confidence": "0.4"},
		"lighting":        map[string]any{"detected": 1.0, "confidence": 7.5},
		"bikeRack":        map[string]any{"detected": "nope", "confidence": -2.0},
		"trashCan":        map[string]any{"confidence": []any{0.3}},
		"realtimeDisplay": map[string]any{"detected": nil, "confidence": json.Number("0.25")},
		"fountain":        map[string]any{"detected": true, "confidence": 1.0},
	}

	got := Normalize(raw)

	require.Len(t, got, len(Keys()))
	require.Equal(t, Observation{Detected: true, Confidence: 0.9}, got[Bench])
	require.Equal(t, Observation{Detected: true, Confidence: 0.4}, got[Shelter])
	require.Equal(t, Observation{Detected: true, Confidence: 1}, got[Lighting])
	require.Equal(t, Observation{Detected: false, Confidence: 0}, got[BikeRack])
	require.Equal(t, Observation{}, got[TrashCan])
	require.Equal(t, Observation{Detected: false, Confidence: 0.25}, got[RealtimeDisplay])
	_, extra := got["fountain"]
	require.False(t, extra)
}

func TestNormalizeFromDecodedJSON(t *testing.T) {
	var raw any
	require.NoError(t, json.Unmarshal([]byte(`{"bench":{"detected":true,"confidence":0.9}}`), &raw))

	got := Normalize(raw)
	require.Equal(t, Observation{Detected: true, Confidence: 0.9}, got[Bench])
	require.Equal(t, Observation{}, got[Shelter])
	for _, k := range Keys() {
		require.Contains(t, got, k)
		require.GreaterOrEqual(t, got[k].Confidence, 0.0)
		require.LessOrEqual(t, got[k].Confidence, 1.0)
	}
}

func TestCountDetected(t *testing.T) {
	m := Default()
	require.Zero(t, CountDetected(m))
	m[Bench] = Observation{Detected: true, Confidence: 0.8}
	m[Lighting] = Observation{Detected: true, Confidence: 0.6}
	require.Equal(t, 2, CountDetected(m))
}

func TestKeyValid(t *testing.T) {
	require.True(t, BikeRack.Valid())
	require.False(t, Key("bike_rack").Valid())
	require.Len(t, Keys(), 6)
}
