package location

import (
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// ParseCoords decodes a "lat,lon" string of decimal degrees. Spaces around
// each number are ignored. It never fails loudly: anything that is not exactly
// two finite, in-range decimal numbers yields ok == false.
func ParseCoords(s string) (GeoPoint, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return GeoPoint{}, false
	}

	lat, ok := parseDegrees(parts[0])
	if !ok {
		return GeoPoint{}, false
	}
	lon, ok := parseDegrees(parts[1])
	if !ok {
		return GeoPoint{}, false
	}

	p := GeoPoint{Latitude: lat, Longitude: lon}
	if !p.Valid() {
		return GeoPoint{}, false
	}
	return p, true
}

// parseDegrees accepts a finite decimal number. strconv also takes hexadecimal
// floats such as "0x1p-2", which are not coordinates.
func parseDegrees(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	digits := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Distance returns the great-circle (haversine) distance between a and b in kilometres.
func Distance(a, b GeoPoint) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// rounding can push h just past 1 for near-antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
