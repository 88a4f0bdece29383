package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mafundi/mafundi-cli/internal/constants"
	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/pkg/location"
)

var (
	// ErrResolveInProgress is returned when Resolve is called while another call is pending.
	// The pending call is left untouched.
	ErrResolveInProgress = errors.New("location resolution already in progress")
	// ErrResolverClosed is returned once the owning screen has been torn down.
	ErrResolverClosed = errors.New("location resolver closed")
	// ErrAlreadyResolved rejects manual entry once coordinates are known.
	ErrAlreadyResolved = errors.New("location already resolved")
)

// LocationResolver produces the user's position for one screen. It owns the
// screen's LocationState and notifies listeners of every transition.
type LocationResolver struct {
	platform location.Platform
	accuracy location.Accuracy
	timeout  time.Duration
	logger   zerolog.Logger

	mu        sync.Mutex
	state     models.LocationState
	label     string // last accepted manual entry
	granted   bool
	inFlight  bool
	closed    bool
	cancel    context.CancelFunc
	listeners []func(models.LocationState)
}

// NewLocationResolver creates a resolver in the Unresolved state. A
// non-positive timeout selects constants.DefaultResolveTimeout.
func NewLocationResolver(platform location.Platform, timeout time.Duration, logger zerolog.Logger) *LocationResolver {
	if timeout <= 0 {
		timeout = constants.DefaultResolveTimeout
	}
	return &LocationResolver{
		platform: platform,
		accuracy: location.AccuracyHigh,
		timeout:  timeout,
		logger:   logger,
		state:    models.LocationState{Status: models.LocationUnresolved},
	}
}

// State returns the current location state.
func (r *LocationResolver) State() models.LocationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// OnChange registers fn to be called after every state transition.
func (r *LocationResolver) OnChange(fn func(models.LocationState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Resolve asks the platform for the current position, requesting permission
// first if it has not been granted in this session. Failures are
// location.ErrPermissionDenied or location.ErrLocationUnavailable; both leave
// manual entry available.
func (r *LocationResolver) Resolve(ctx context.Context) (location.GeoPoint, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return location.GeoPoint{}, ErrResolverClosed
	}
	if r.inFlight {
		r.mu.Unlock()
		r.logger.Debug().Msg("Location request already pending")
		return location.GeoPoint{}, ErrResolveInProgress
	}
	r.inFlight = true
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	r.cancel = cancel
	granted := r.granted
	r.mu.Unlock()
	defer cancel()

	r.transition(models.LocationState{Status: models.LocationResolving})

	type result struct {
		point   location.GeoPoint
		granted bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		point, granted, err := r.acquire(ctx, granted)
		done <- result{point: point, granted: granted, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		// the platform ignored cancellation; its late answer is dropped
		res = result{granted: granted, err: fmt.Errorf("%w: %w", location.ErrLocationUnavailable, ctx.Err())}
	}

	r.mu.Lock()
	r.inFlight = false
	r.cancel = nil
	if r.closed {
		r.mu.Unlock()
		r.logger.Debug().Msg("Discarding location result for closed screen")
		return location.GeoPoint{}, ErrResolverClosed
	}
	if res.granted {
		r.granted = true
	}
	next := r.nextState(res.point, res.err)
	r.mu.Unlock()

	r.transition(next)

	if res.err != nil {
		r.logger.Warn().Err(res.err).Str("state", string(next.Status)).Msg("Could not resolve current location")
		return location.GeoPoint{}, res.err
	}

	r.logger.Info().
		Float64("latitude", res.point.Latitude).
		Float64("longitude", res.point.Longitude).
		Msg("Current location resolved")
	return res.point, nil
}

// acquire runs the permission and position requests. It reports whether
// permission is known to be granted.
func (r *LocationResolver) acquire(ctx context.Context, granted bool) (location.GeoPoint, bool, error) {
	if !granted {
		status, err := r.platform.RequestForegroundPermission(ctx)
		if err != nil {
			return location.GeoPoint{}, false, fmt.Errorf("%w: permission request failed: %w", location.ErrLocationUnavailable, err)
		}
		if status != location.PermissionGranted {
			return location.GeoPoint{}, false, location.ErrPermissionDenied
		}
	}

	point, err := r.platform.GetCurrentPosition(ctx, r.accuracy)
	if err != nil {
		if errors.Is(err, location.ErrPermissionDenied) {
			// revoked behind our back
			return location.GeoPoint{}, false, err
		}
		return location.GeoPoint{}, true, fmt.Errorf("%w: %w", location.ErrLocationUnavailable, err)
	}
	if !point.Valid() {
		return location.GeoPoint{}, true, fmt.Errorf("%w: invalid fix %s", location.ErrLocationUnavailable, point)
	}
	return point, true, nil
}

// nextState must be called with r.mu held.
func (r *LocationResolver) nextState(point location.GeoPoint, err error) models.LocationState {
	switch {
	case err == nil:
		return models.LocationState{Status: models.LocationResolved, Point: point}
	case r.label != "":
		return models.LocationState{Status: models.LocationManualEntry, Label: r.label}
	case errors.Is(err, location.ErrPermissionDenied):
		r.granted = false
		return models.LocationState{Status: models.LocationDenied}
	default:
		return models.LocationState{Status: models.LocationUnresolved}
	}
}

// SetManual records a free-text location. The label is opaque: it is never
// geocoded and does not produce an origin for distance ranking.
func (r *LocationResolver) SetManual(label string) error {
	if err := models.ValidateManualLocation(label); err != nil {
		return err
	}
	label = strings.TrimSpace(label)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrResolverClosed
	}
	if r.state.Status == models.LocationResolved {
		r.mu.Unlock()
		return ErrAlreadyResolved
	}
	r.label = label
	r.mu.Unlock()

	r.transition(models.LocationState{Status: models.LocationManualEntry, Label: label})
	r.logger.Info().Str("label", label).Msg("Manual location set")
	return nil
}

// Close ends the resolver's lifetime. A pending request is cancelled and its
// result discarded; later calls fail with ErrResolverClosed.
func (r *LocationResolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	if r.cancel != nil {
		r.cancel()
	}
	r.listeners = nil
}

func (r *LocationResolver) transition(next models.LocationState) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.state = next
	listeners := append([]func(models.LocationState){}, r.listeners...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}
