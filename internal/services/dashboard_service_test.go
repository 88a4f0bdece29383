package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mafundi/mafundi-cli/internal/events"
	"github.com/mafundi/mafundi-cli/internal/mocks"
	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/internal/services"
	"github.com/mafundi/mafundi-cli/internal/session"
	"github.com/mafundi/mafundi-cli/pkg/location"
)

type feedRecorder struct {
	mu    sync.Mutex
	feeds []services.Feed
}

func (r *feedRecorder) record(f services.Feed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds = append(r.feeds, f)
}

func (r *feedRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.feeds)
}

func newDashboard(t *testing.T, backend *mocks.MockBackend, platform location.Platform, publisher events.Publisher, interval time.Duration) *services.DashboardService {
	t.Helper()
	sess, _ := newSession(t, fundiUser)
	resolver := services.NewLocationResolver(platform, time.Second, zerolog.Nop())
	return services.NewDashboardService(sess, backend, resolver, publisher, 0, interval, zerolog.Nop())
}

func TestDashboardService_LoadRanksNearbyJobs(t *testing.T) {
	backend := new(mocks.MockBackend)
	backend.On("FetchJobs", mock.Anything, "tok").Return(nearbyJobs(), nil)

	publisher := new(mocks.MockPublisher)
	publisher.On("PublishFeed", mock.Anything, mock.Anything).Return(nil)

	d := newDashboard(t, backend, grantingPlatform(nairobi), publisher, 0)
	rec := &feedRecorder{}
	d.Subscribe(rec.record)

	require.NoError(t, d.Load(context.Background()))

	feed := d.Feed()
	assert.Equal(t, models.LocationResolved, feed.Location.Status)
	assert.Equal(t, 4, feed.Total)
	require.Len(t, feed.Jobs, 1)
	assert.Equal(t, "Mason", feed.Jobs[0].Title)
	require.NotNil(t, feed.Jobs[0].Distance)
	assert.InDelta(t, 2.588, *feed.Jobs[0].Distance, 0.01)
	assert.Positive(t, rec.count())

	d.Close()

	// the last published update carries the ranked list
	calls := publisher.Calls
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1].Arguments.Get(1).(events.FeedUpdate)
	assert.Equal(t, models.ID("3"), last.UserID)
	assert.Equal(t, 10.0, last.RadiusKm)
	require.NotNil(t, last.Origin)
	assert.Len(t, last.Jobs, 1)
}

func TestDashboardService_PermissionDeniedShowsNothing(t *testing.T) {
	backend := new(mocks.MockBackend)
	backend.On("FetchJobs", mock.Anything, "tok").Return(nearbyJobs(), nil)

	d := newDashboard(t, backend, denyingPlatform(), nil, 0)
	defer d.Close()

	err := d.Load(context.Background())
	assert.ErrorIs(t, err, location.ErrPermissionDenied)
	assert.NotErrorIs(t, err, services.ErrJobsLoadFailed)

	feed := d.Feed()
	assert.Equal(t, models.LocationDenied, feed.Location.Status)
	assert.Equal(t, 4, feed.Total)
	assert.Empty(t, feed.Jobs)
	assert.NotNil(t, feed.Jobs)

	require.NoError(t, d.SetManualLocation("Kariobangi"))
	feed = d.Feed()
	assert.Equal(t, models.LocationManualEntry, feed.Location.Status)
	assert.Empty(t, feed.Jobs)
}

func TestDashboardService_JobsLoadFailure(t *testing.T) {
	backend := new(mocks.MockBackend)
	backend.On("FetchJobs", mock.Anything, "tok").Return(nil, errors.New("connection refused"))

	d := newDashboard(t, backend, grantingPlatform(nairobi), nil, 0)
	defer d.Close()

	err := d.Load(context.Background())
	assert.ErrorIs(t, err, services.ErrJobsLoadFailed)
	assert.ErrorContains(t, err, "connection refused")

	feed := d.Feed()
	assert.Equal(t, models.LocationResolved, feed.Location.Status)
	assert.Empty(t, feed.Jobs)
}

func TestDashboardService_SetRadius(t *testing.T) {
	backend := new(mocks.MockBackend)
	backend.On("FetchJobs", mock.Anything, "tok").Return(nearbyJobs(), nil)

	d := newDashboard(t, backend, grantingPlatform(nairobi), nil, 0)
	defer d.Close()
	require.NoError(t, d.Load(context.Background()))

	require.NoError(t, d.SetRadius(50))
	feed := d.Feed()
	require.Len(t, feed.Jobs, 2)
	assert.Equal(t, "Mason", feed.Jobs[0].Title)
	assert.Equal(t, "Painter", feed.Jobs[1].Title)

	var verr *models.ValidationError
	assert.True(t, errors.As(d.SetRadius(0), &verr))
}

func TestDashboardService_RequiresSession(t *testing.T) {
	sess, manager := newSession(t, fundiUser)
	require.NoError(t, manager.Destroy())

	backend := new(mocks.MockBackend)
	resolver := services.NewLocationResolver(grantingPlatform(nairobi), time.Second, zerolog.Nop())
	d := services.NewDashboardService(sess, backend, resolver, nil, 0, 0, zerolog.Nop())
	defer d.Close()

	assert.ErrorIs(t, d.Load(context.Background()), session.ErrNoSession)
	assert.ErrorIs(t, d.ReloadJobs(context.Background()), session.ErrNoSession)
	assert.ErrorIs(t, d.Start(), session.ErrNoSession)
	backend.AssertNotCalled(t, "FetchJobs", mock.Anything, mock.Anything)
}

func TestDashboardService_ClosedDiscardsUpdates(t *testing.T) {
	backend := new(mocks.MockBackend)
	backend.On("FetchJobs", mock.Anything, "tok").Return(nearbyJobs(), nil)

	d := newDashboard(t, backend, grantingPlatform(nairobi), nil, 0)
	rec := &feedRecorder{}
	d.Subscribe(rec.record)
	d.Close()

	assert.ErrorIs(t, d.ReloadJobs(context.Background()), services.ErrDashboardClosed)
	assert.ErrorIs(t, d.ResolveLocation(context.Background()), services.ErrResolverClosed)
	assert.Zero(t, rec.count())
	assert.Empty(t, d.Feed().Jobs)
	d.Close()
}

func TestDashboardService_StartStop(t *testing.T) {
	var fetches atomic.Int32
	backend := new(mocks.MockBackend)
	backend.On("FetchJobs", mock.Anything, "tok").
		Run(func(mock.Arguments) { fetches.Add(1) }).
		Return(nearbyJobs(), nil)

	d := newDashboard(t, backend, grantingPlatform(nairobi), nil, 10*time.Millisecond)

	require.NoError(t, d.Start())
	err := d.Start()
	assert.EqualError(t, err, "dashboard service is already running")

	assert.Eventually(t, func() bool {
		return fetches.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, d.Feed().Jobs, 1)

	require.NoError(t, d.Stop())
	err = d.Stop()
	assert.EqualError(t, err, "dashboard service is not running")
	assert.ErrorIs(t, d.Start(), services.ErrDashboardClosed)
}

func TestDashboardService_PublishFailureIsNotFatal(t *testing.T) {
	backend := new(mocks.MockBackend)
	backend.On("FetchJobs", mock.Anything, "tok").Return(nearbyJobs(), nil)

	publisher := new(mocks.MockPublisher)
	publisher.On("PublishFeed", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	d := newDashboard(t, backend, grantingPlatform(nairobi), publisher, 0)
	require.NoError(t, d.Load(context.Background()))
	assert.Len(t, d.Feed().Jobs, 1)
	d.Close()
}

func TestDashboardService_LoadKeepsManualLocation(t *testing.T) {
	backend := new(mocks.MockBackend)
	backend.On("FetchJobs", mock.Anything, "tok").Return(nearbyJobs(), nil)

	platform := grantingPlatform(nairobi)
	d := newDashboard(t, backend, platform, nil, 0)
	defer d.Close()

	require.NoError(t, d.SetManualLocation("Kariobangi"))
	require.NoError(t, d.Load(context.Background()))

	feed := d.Feed()
	assert.Equal(t, models.LocationManualEntry, feed.Location.Status)
	assert.Equal(t, 4, feed.Total)
	assert.Empty(t, feed.Jobs)
	platform.AssertNotCalled(t, "RequestForegroundPermission", mock.Anything)

	// asking for GPS explicitly still works and unlocks ranking
	require.NoError(t, d.ResolveLocation(context.Background()))
	assert.Len(t, d.Feed().Jobs, 1)
}

func TestDashboardService_CoalescesFeedUpdatesWhilePublishing(t *testing.T) {
	backend := new(mocks.MockBackend)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	publisher := new(mocks.MockPublisher)
	publisher.On("PublishFeed", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			once.Do(func() { close(entered) })
			<-release
		}).
		Return(nil)

	d := newDashboard(t, backend, grantingPlatform(nairobi), publisher, 0)

	require.NoError(t, d.SetRadius(1))
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first feed update was never published")
	}

	// more updates than the worker queue holds pile up behind the slow broker
	for km := 2; km <= 20; km++ {
		require.NoError(t, d.SetRadius(float64(km)))
	}
	close(release)
	d.Close()

	calls := publisher.Calls
	require.Len(t, calls, 2)
	assert.Equal(t, 1.0, calls[0].Arguments.Get(1).(events.FeedUpdate).RadiusKm)
	assert.Equal(t, 20.0, calls[1].Arguments.Get(1).(events.FeedUpdate).RadiusKm)
}
