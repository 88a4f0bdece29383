package location

import "strconv"

// GeoPoint is a WGS84 coordinate in decimal degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are finite and within range.
func (p GeoPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// String encodes the point in the backend's "lat,lon" form.
func (p GeoPoint) String() string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}

// Position is a single fix reported by a Provider.
type Position struct {
	GeoPoint
	Accuracy float64 // provider specific: metres for network fixes, HDOP for GPS
}
