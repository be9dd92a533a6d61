package amenity

// Key names one of the rider amenities the vision model is asked about.
type Key string

const (
	Bench           Key = "bench"
	Shelter         Key = "shelter"
	Lighting        Key = "lighting"
	BikeRack        Key = "bikeRack"
	TrashCan        Key = "trashCan"
	RealtimeDisplay Key = "realtimeDisplay"
)

var keys = []Key{Bench, Shelter, Lighting, BikeRack, TrashCan, RealtimeDisplay}

// Keys returns the closed amenity set in canonical order.
func Keys() []Key {
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}

// Valid reports whether k belongs to the amenity set.
func (k Key) Valid() bool {
	for _, known := range keys {
		if k == known {
			return true
		}
	}
	return false
}

// Observation is the model's judgment for a single amenity.
type Observation struct {
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence"`
}

// Map holds exactly one Observation per Key.
type Map map[Key]Observation

// Default returns every amenity as not detected with zero confidence.
func Default() Map {
	out := make(Map, len(keys))
	for _, k := range keys {
		out[k] = Observation{}
	}
	return out
}

// CountDetected returns how many amenities are marked detected.
func CountDetected(m Map) int {
	count := 0
	for _, k := range keys {
		if m[k].Detected {
			count++
		}
	}
	return count
}
