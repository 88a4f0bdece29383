package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mafundi/mafundi-cli/internal/events"
)

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishFeed(ctx context.Context, update events.FeedUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}
