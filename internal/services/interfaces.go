package services

import (
	"context"

	"github.com/mafundi/mafundi-cli/internal/models"
)

// AuthAPI is the part of the backend used to log in and sign up.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error)
	Register(ctx context.Context, reg models.Registration) error
}

// JobsAPI is the part of the backend serving job postings.
type JobsAPI interface {
	FetchJobs(ctx context.Context, token string) ([]models.JobPosting, error)
	FetchJobDetail(ctx context.Context, id models.ID, token string) (models.JobPosting, error)
	PostJob(ctx context.Context, job models.NewJob, token string) (models.JobPosting, error)
}

// ApplicationsAPI is the part of the backend handling job applications.
type ApplicationsAPI interface {
	ApplyToJob(ctx context.Context, req models.ApplicationRequest, token string) (models.Application, error)
	FetchMyApplications(ctx context.Context, token string) ([]models.Application, error)
	FetchApplicationsForJobs(ctx context.Context, token string) ([]models.Application, error)
}

// Backend is the whole API surface; *api.Client implements it.
type Backend interface {
	AuthAPI
	JobsAPI
	ApplicationsAPI
}
