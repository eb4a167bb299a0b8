package types

// Coordinate is a WGS84 point with an optional human-readable label, enough
// to pin a marker and request a route.
type Coordinate struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Address   string  `json:"address,omitempty" bson:"address,omitempty"`
}

// IsZero reports whether the coordinate was never set. (0,0) is in the
// Atlantic; treating it as unset is fine for ride pickups.
func (c Coordinate) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}
