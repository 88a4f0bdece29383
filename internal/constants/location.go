package constants

import "time"

const (
	// DefaultRadiusKm is the "jobs near me" radius.
	DefaultRadiusKm = 10.0

	// MinManualLocationLength is the shortest accepted free-text location, in characters.
	MinManualLocationLength = 2

	// DefaultResolveTimeout bounds a single platform location request.
	DefaultResolveTimeout = 15 * time.Second
)
