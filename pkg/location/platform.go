package location

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// HostPlatform combines a Permissioner with a Provider into a Platform.
type HostPlatform struct {
	permissioner Permissioner
	provider     Provider
}

// NewHostPlatform creates a Platform backed by the given permission source and provider.
func NewHostPlatform(permissioner Permissioner, provider Provider) *HostPlatform {
	return &HostPlatform{
		permissioner: permissioner,
		provider:     provider,
	}
}

// RequestForegroundPermission delegates to the configured Permissioner.
func (h *HostPlatform) RequestForegroundPermission(ctx context.Context) (PermissionStatus, error) {
	return h.permissioner.RequestForegroundPermission(ctx)
}

// GetCurrentPosition asks the provider for a fix and validates it.
func (h *HostPlatform) GetCurrentPosition(ctx context.Context, accuracy Accuracy) (GeoPoint, error) {
	pos, err := h.provider.GetLocation(ctx, accuracy)
	if err != nil {
		return GeoPoint{}, err
	}
	if !pos.Valid() {
		return GeoPoint{}, fmt.Errorf("provider returned out-of-range fix %s", pos.GeoPoint)
	}
	return pos.GeoPoint, nil
}

// StaticPermission always answers with the same status.
type StaticPermission PermissionStatus

func (s StaticPermission) RequestForegroundPermission(context.Context) (PermissionStatus, error) {
	return PermissionStatus(s), nil
}

// LineSource supplies lines typed by the user. Implementations must allow a
// read abandoned through ctx to be followed by another read.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
}

// PromptPermission asks the user on a terminal. The answer is remembered, so
// the question is shown at most once per process.
type PromptPermission struct {
	in  LineSource
	out io.Writer

	mu     sync.Mutex
	asked  bool
	status PermissionStatus
}

// NewPromptPermission creates a terminal-backed Permissioner.
func NewPromptPermission(in LineSource, out io.Writer) *PromptPermission {
	return &PromptPermission{in: in, out: out}
}

func (p *PromptPermission) RequestForegroundPermission(ctx context.Context) (PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.asked {
		return p.status, nil
	}
	status, err := p.ask(ctx)
	if err != nil {
		return PermissionDenied, err
	}
	p.asked = true
	p.status = status
	return status, nil
}

func (p *PromptPermission) ask(ctx context.Context) (PermissionStatus, error) {
	if _, err := fmt.Fprint(p.out, "Allow mafundi to use your current location? [y/N] "); err != nil {
		return PermissionDenied, err
	}

	answer, err := p.in.ReadLine(ctx)
	if err != nil && !errors.Is(err, io.EOF) {
		return PermissionDenied, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return PermissionGranted, nil
	default:
		return PermissionDenied, nil
	}
}

// StaticProvider reports a fixed position, typically taken from configuration.
type StaticProvider struct {
	point GeoPoint
}

// NewStaticProvider creates a provider that always returns point.
func NewStaticProvider(point GeoPoint) *StaticProvider {
	return &StaticProvider{point: point}
}

func (s *StaticProvider) GetLocation(ctx context.Context, _ Accuracy) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position{GeoPoint: s.point}, nil
}
