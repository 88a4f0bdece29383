package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mafundi/mafundi-cli/internal/constants"
	"github.com/mafundi/mafundi-cli/internal/events"
	"github.com/mafundi/mafundi-cli/internal/matcher"
	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/internal/session"
	"github.com/mafundi/mafundi-cli/internal/utils"
)

var (
	// ErrJobsLoadFailed wraps any failure to fetch the job listing.
	ErrJobsLoadFailed = errors.New("failed to load jobs")
	// ErrDashboardClosed is returned for work finishing after the dashboard was torn down.
	ErrDashboardClosed = errors.New("dashboard closed")
)

const publishTimeout = 5 * time.Second

// Feed is what a dashboard shows: where the user is and the jobs near them.
type Feed struct {
	Location models.LocationState
	Jobs     []models.RankedJob
	Total    int // postings loaded, before radius filtering
}

// DashboardService is the "jobs near me" screen controller. It recomputes the
// ranked feed whenever the job listing or the resolved origin changes.
type DashboardService struct {
	session   *session.Session
	api       JobsAPI
	resolver  *LocationResolver
	publisher events.Publisher
	interval  time.Duration
	logger    zerolog.Logger
	pool      *utils.WorkerPool

	mu        sync.Mutex
	radiusKm  float64
	jobs      []models.JobPosting
	ranked    []models.RankedJob
	observers []func(Feed)
	closed    bool

	// newest update not yet handed to the publisher
	pending     *events.FeedUpdate
	flushQueued bool

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewDashboardService creates a dashboard bound to sess. A non-positive
// radius selects constants.DefaultRadiusKm; a non-positive refresh interval
// disables periodic reloads. publisher may be nil.
func NewDashboardService(sess *session.Session, api JobsAPI, resolver *LocationResolver, publisher events.Publisher,
	radiusKm float64, refreshInterval time.Duration, logger zerolog.Logger) *DashboardService {
	if radiusKm <= 0 {
		radiusKm = constants.DefaultRadiusKm
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	d := &DashboardService{
		session:   sess,
		api:       api,
		resolver:  resolver,
		publisher: publisher,
		interval:  refreshInterval,
		logger:    logger,
		pool:      utils.NewWorkerPool(1, 8, logger),
		radiusKm:  radiusKm,
		ranked:    []models.RankedJob{},
	}
	resolver.OnChange(func(models.LocationState) { d.recompute() })
	return d
}

// Subscribe registers fn to receive every recomputed feed.
func (d *DashboardService) Subscribe(fn func(Feed)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
}

// Load fetches the job listing and, unless the user already has a location,
// resolves it concurrently. A location failure does not prevent jobs from
// loading; both errors are returned joined.
func (d *DashboardService) Load(ctx context.Context) error {
	if !d.session.Valid() {
		return session.ErrNoSession
	}

	var g errgroup.Group
	var locErr error

	g.Go(func() error {
		return d.ReloadJobs(ctx)
	})
	switch d.resolver.State().Status {
	case models.LocationResolved, models.LocationManualEntry:
	default:
		g.Go(func() error {
			_, err := d.resolver.Resolve(ctx)
			if errors.Is(err, ErrResolveInProgress) {
				err = nil
			}
			locErr = err
			return nil
		})
	}

	jobsErr := g.Wait()
	return errors.Join(jobsErr, locErr)
}

// ReloadJobs refetches the job listing and recomputes the feed.
func (d *DashboardService) ReloadJobs(ctx context.Context) error {
	token, err := d.session.BearerToken()
	if err != nil {
		return err
	}

	jobs, err := d.api.FetchJobs(ctx, token)
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to load jobs")
		return fmt.Errorf("%w: %w", ErrJobsLoadFailed, err)
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDashboardClosed
	}
	d.jobs = jobs
	d.mu.Unlock()

	d.logger.Debug().Int("jobs", len(jobs)).Msg("Jobs loaded")
	d.recompute()
	return nil
}

// ResolveLocation asks the resolver for a fresh position.
func (d *DashboardService) ResolveLocation(ctx context.Context) error {
	_, err := d.resolver.Resolve(ctx)
	return err
}

// SetManualLocation records a free-text location. The feed is empty until
// coordinates are resolved.
func (d *DashboardService) SetManualLocation(label string) error {
	return d.resolver.SetManual(label)
}

// SetRadius changes the search radius and recomputes the feed.
func (d *DashboardService) SetRadius(km float64) error {
	if km <= 0 {
		return models.NewValidationError("radius", "Radius must be greater than zero.")
	}
	d.mu.Lock()
	d.radiusKm = km
	d.mu.Unlock()

	d.recompute()
	return nil
}

// Feed returns the current feed.
func (d *DashboardService) Feed() Feed {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Feed{
		Location: d.resolver.State(),
		Jobs:     append([]models.RankedJob{}, d.ranked...),
		Total:    len(d.jobs),
	}
}

func (d *DashboardService) recompute() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	state := d.resolver.State()
	origin := state.Origin()
	ranked := matcher.RankJobs(origin, d.jobs, d.radiusKm)
	d.ranked = ranked
	feed := Feed{Location: state, Jobs: ranked, Total: len(d.jobs)}
	observers := append([]func(Feed){}, d.observers...)

	// only the newest update waits for the broker; older unsent ones are superseded
	d.pending = &events.FeedUpdate{
		SessionID: d.session.ID.String(),
		UserID:    d.session.User.ID,
		Origin:    origin,
		RadiusKm:  d.radiusKm,
		Jobs:      ranked,
		Timestamp: time.Now().UTC(),
	}
	if !d.flushQueued {
		d.flushQueued = d.pool.Submit(d.flushFeed)
		if !d.flushQueued {
			d.logger.Warn().Msg("Feed publisher stopped, update dropped")
		}
	}
	d.mu.Unlock()

	for _, fn := range observers {
		fn(feed)
	}
}

// flushFeed publishes the pending update, if any. It runs on the pool's single
// worker, so updates reach the broker in the order they were computed.
func (d *DashboardService) flushFeed() {
	d.mu.Lock()
	update := d.pending
	d.pending = nil
	d.flushQueued = false
	d.mu.Unlock()

	if update == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := d.publisher.PublishFeed(ctx, *update); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to publish feed update")
	}
}

// Start loads the dashboard in the background and, if a refresh interval is
// configured, keeps reloading jobs until Stop.
func (d *DashboardService) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		d.logger.Warn().Msg("DashboardService is already running")
		return errors.New("dashboard service is already running")
	}
	if d.closed {
		d.mu.Unlock()
		return ErrDashboardClosed
	}
	if !d.session.Valid() {
		d.mu.Unlock()
		return session.ErrNoSession
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.running = true
	ctx := d.ctx
	radius := d.radiusKm
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if err := d.Load(ctx); err != nil && ctx.Err() == nil {
			d.logger.Warn().Err(err).Msg("Dashboard loaded with errors")
		}
		if d.interval <= 0 {
			return
		}

		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := d.ReloadJobs(ctx); err != nil && ctx.Err() == nil {
					d.logger.Error().Err(err).Msg("Failed to refresh jobs")
				}
			case <-ctx.Done():
				d.logger.Info().Msg("DashboardService is stopping")
				return
			}
		}
	}()

	d.logger.Info().
		Float64("radius_km", radius).
		Dur("refresh_interval", d.interval).
		Msg("DashboardService started")
	return nil
}

// Stop ends background refreshes and tears the dashboard down.
func (d *DashboardService) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		d.logger.Warn().Msg("DashboardService is not running")
		return errors.New("dashboard service is not running")
	}
	d.running = false
	cancel := d.cancel
	d.mu.Unlock()

	cancel()
	d.wg.Wait()
	d.Close()

	d.logger.Info().Msg("DashboardService stopped")
	return nil
}

// Close tears the dashboard down. Results arriving afterwards are discarded
// and the pending feed update, if queued, is still published.
func (d *DashboardService) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.observers = nil
	cancel := d.cancel
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.resolver.Close()
	d.pool.Shutdown()
}
