package location

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied is returned when the host refuses foreground location access.
	ErrPermissionDenied = errors.New("location: permission denied")
	// ErrLocationUnavailable covers every other failure to obtain a fix.
	ErrLocationUnavailable = errors.New("location: unavailable")
)

// Accuracy is the precision requested from a Provider.
type Accuracy int

const (
	AccuracyBalanced Accuracy = iota
	AccuracyHigh
)

// PermissionStatus is the host's answer to a permission request.
type PermissionStatus string

const (
	PermissionGranted PermissionStatus = "granted"
	PermissionDenied  PermissionStatus = "denied"
)

// Provider interface defines the methods for location providers
type Provider interface {
	GetLocation(ctx context.Context, accuracy Accuracy) (Position, error)
}

// Permissioner asks the host for foreground location permission.
type Permissioner interface {
	RequestForegroundPermission(ctx context.Context) (PermissionStatus, error)
}

// Platform is the location capability consumed by the resolver.
type Platform interface {
	Permissioner
	GetCurrentPosition(ctx context.Context, accuracy Accuracy) (GeoPoint, error)
}
