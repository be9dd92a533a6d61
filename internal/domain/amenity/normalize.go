package amenity

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Normalize coerces untrusted model output into a complete Map. It never fails:
// unknown keys are ignored, malformed entries keep the default and confidence
// is always clamped to [0,1].
func Normalize(raw any) Map {
	out := Default()
	obj, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	for _, k := range keys {
		entry, ok := obj[string(k)].(map[string]any)
		if !ok {
			continue
		}
		out[k] = Observation{
			Detected:   coerceBool(entry["detected"]),
			Confidence: clamp(coerceFloat(entry["confidence"])),
		}
	}
	return out
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "y":
			return true
		}
	}
	return false
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return 0
}

func clamp(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}
