package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/internal/session"
)

// JobService shows and posts individual jobs.
type JobService struct {
	session *session.Session
	api     JobsAPI
	logger  zerolog.Logger
}

func NewJobService(sess *session.Session, api JobsAPI, logger zerolog.Logger) *JobService {
	return &JobService{
		session: sess,
		api:     api,
		logger:  logger,
	}
}

// Detail returns one job.
func (j *JobService) Detail(ctx context.Context, id models.ID) (models.JobPosting, error) {
	token, err := j.session.BearerToken()
	if err != nil {
		return models.JobPosting{}, err
	}
	return j.api.FetchJobDetail(ctx, id, token)
}

// Post publishes a new job.
func (j *JobService) Post(ctx context.Context, job models.NewJob) (models.JobPosting, error) {
	token, err := j.session.BearerToken()
	if err != nil {
		return models.JobPosting{}, err
	}

	created, err := j.api.PostJob(ctx, job, token)
	if err != nil {
		j.logger.Error().Err(err).Str("title", job.Title).Msg("Failed to post job")
		return models.JobPosting{}, err
	}

	j.logger.Info().Str("job_id", string(created.ID)).Str("title", created.Title).Msg("Job posted")
	return created, nil
}
