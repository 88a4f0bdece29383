package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mafundi/mafundi-cli/pkg/location"
)

// MockPlatform is a mock implementation of location.Platform
type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) RequestForegroundPermission(ctx context.Context) (location.PermissionStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(location.PermissionStatus), args.Error(1)
}

func (m *MockPlatform) GetCurrentPosition(ctx context.Context, accuracy location.Accuracy) (location.GeoPoint, error) {
	args := m.Called(ctx, accuracy)
	return args.Get(0).(location.GeoPoint), args.Error(1)
}
