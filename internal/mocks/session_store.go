package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/mafundi/mafundi-cli/internal/session"
)

// MockSessionStore is a mock implementation of session.Store
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(s *session.Session) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockSessionStore) Load() (*session.Session, error) {
	args := m.Called()
	s, _ := args.Get(0).(*session.Session)
	return s, args.Error(1)
}

func (m *MockSessionStore) Delete() error {
	args := m.Called()
	return args.Error(0)
}
