package models

import "github.com/mafundi/mafundi-cli/pkg/location"

// LocationStatus enumerates the lifecycle of a screen's location.
type LocationStatus string

const (
	LocationUnresolved  LocationStatus = "unresolved"
	LocationResolving   LocationStatus = "resolving"
	LocationResolved    LocationStatus = "resolved"
	LocationDenied      LocationStatus = "denied"
	LocationManualEntry LocationStatus = "manual_entry"
)

// LocationState is a snapshot of where the user is, as far as a screen knows.
// Point is set only when Status is LocationResolved, Label only for LocationManualEntry.
type LocationState struct {
	Status LocationStatus
	Point  location.GeoPoint
	Label  string
}

// Origin returns the resolved point, or nil when no coordinates are known.
// A manual label never yields an origin.
func (s LocationState) Origin() *location.GeoPoint {
	if s.Status != LocationResolved {
		return nil
	}
	p := s.Point
	return &p
}

// ApplicationLocation is the value sent as an application's location:
// coordinates when resolved, otherwise the manual label.
func (s LocationState) ApplicationLocation() string {
	switch s.Status {
	case LocationResolved:
		return s.Point.String()
	case LocationManualEntry:
		return s.Label
	}
	return ""
}
