package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mafundi/mafundi-cli/internal/models"
)

// MockBackend is a mock implementation of services.Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(models.AuthResponse), args.Error(1)
}

func (m *MockBackend) Register(ctx context.Context, reg models.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockBackend) FetchJobs(ctx context.Context, token string) ([]models.JobPosting, error) {
	args := m.Called(ctx, token)
	jobs, _ := args.Get(0).([]models.JobPosting)
	return jobs, args.Error(1)
}

func (m *MockBackend) FetchJobDetail(ctx context.Context, id models.ID, token string) (models.JobPosting, error) {
	args := m.Called(ctx, id, token)
	return args.Get(0).(models.JobPosting), args.Error(1)
}

func (m *MockBackend) PostJob(ctx context.Context, job models.NewJob, token string) (models.JobPosting, error) {
	args := m.Called(ctx, job, token)
	return args.Get(0).(models.JobPosting), args.Error(1)
}

func (m *MockBackend) ApplyToJob(ctx context.Context, req models.ApplicationRequest, token string) (models.Application, error) {
	args := m.Called(ctx, req, token)
	return args.Get(0).(models.Application), args.Error(1)
}

func (m *MockBackend) FetchMyApplications(ctx context.Context, token string) ([]models.Application, error) {
	args := m.Called(ctx, token)
	apps, _ := args.Get(0).([]models.Application)
	return apps, args.Error(1)
}

func (m *MockBackend) FetchApplicationsForJobs(ctx context.Context, token string) ([]models.Application, error) {
	args := m.Called(ctx, token)
	apps, _ := args.Get(0).([]models.Application)
	return apps, args.Error(1)
}
