package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/mafundi/mafundi-cli/internal/constants"
	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/internal/session"
)

var (
	// ErrRoleNotAllowed is returned when the user's role cannot perform an action.
	ErrRoleNotAllowed = errors.New("this action is not available for your role")
	// ErrJobNotOpen is returned when applying to a job that is no longer open.
	ErrJobNotOpen = errors.New("job is not open for applications")
)

// ApplicationService submits and lists job applications for one session.
type ApplicationService struct {
	session *session.Session
	api     ApplicationsAPI
	logger  zerolog.Logger
}

// NewApplicationService creates an ApplicationService.
func NewApplicationService(sess *session.Session, api ApplicationsAPI, logger zerolog.Logger) *ApplicationService {
	return &ApplicationService{
		session: sess,
		api:     api,
		logger:  logger,
	}
}

// Apply submits an application for job on behalf of a fundi. Resolved
// coordinates are sent as "lat,lon" in preference to a manual label.
func (a *ApplicationService) Apply(ctx context.Context, job models.JobPosting, loc models.LocationState) (models.Application, error) {
	token, err := a.session.BearerToken()
	if err != nil {
		return models.Application{}, err
	}
	if !a.session.User.IsFundi() {
		return models.Application{}, ErrRoleNotAllowed
	}
	if job.Status != constants.JobStatusOpen {
		return models.Application{}, ErrJobNotOpen
	}

	value := loc.ApplicationLocation()
	if value == "" {
		return models.Application{}, models.NewValidationError("location", "Please select or enter your location.")
	}

	app, err := a.api.ApplyToJob(ctx, models.ApplicationRequest{JobID: job.ID, Location: value}, token)
	if err != nil {
		a.logger.Error().Err(err).Str("job_id", string(job.ID)).Msg("Failed to apply for job")
		return models.Application{}, err
	}

	a.logger.Info().
		Str("job_id", string(job.ID)).
		Str("location_status", string(loc.Status)).
		Msg("Application submitted")
	return app, nil
}

// MyApplications lists the fundi's own applications.
func (a *ApplicationService) MyApplications(ctx context.Context) ([]models.Application, error) {
	token, err := a.session.BearerToken()
	if err != nil {
		return nil, err
	}
	if !a.session.User.IsFundi() {
		return nil, ErrRoleNotAllowed
	}
	return a.api.FetchMyApplications(ctx, token)
}

// ApplicationsForMyJobs lists applications to jobs the foreman posted.
func (a *ApplicationService) ApplicationsForMyJobs(ctx context.Context) ([]models.Application, error) {
	token, err := a.session.BearerToken()
	if err != nil {
		return nil, err
	}
	if !a.session.User.IsForeman() {
		return nil, ErrRoleNotAllowed
	}
	return a.api.FetchApplicationsForJobs(ctx, token)
}
