package services_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mafundi/mafundi-cli/internal/mocks"
	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/internal/session"
	"github.com/mafundi/mafundi-cli/pkg/location"
)

var (
	nairobi = location.GeoPoint{Latitude: -1.2921, Longitude: 36.8219}

	fundiUser   = models.User{ID: "3", Name: "Wanjiku", Email: "wanjiku@example.com", Role: "fundi"}
	foremanUser = models.User{ID: "4", Name: "Otieno", Email: "otieno@example.com", Role: "foreman"}
)

func strPtr(s string) *string { return &s }

func nearbyJobs() []models.JobPosting {
	return []models.JobPosting{
		{ID: "1", Title: "Mason", Status: "open", LocationCoords: strPtr("-1.3,36.8")},
		{ID: "2", Title: "Painter", Status: "open", LocationCoords: strPtr("-1.5,37.0")},
		{ID: "3", Title: "Plumber", Status: "open"},
		{ID: "4", Title: "Welder", Status: "open", LocationCoords: strPtr("not,coords")},
	}
}

// newSession returns a live session plus its manager, backed by a permissive store mock.
func newSession(t *testing.T, user models.User) (*session.Session, *session.Manager) {
	t.Helper()
	store := new(mocks.MockSessionStore)
	store.On("Save", mock.Anything).Return(nil)
	store.On("Delete").Return(nil)

	m := session.NewManager(store, zerolog.Nop())
	s, err := m.Create(user, "tok")
	require.NoError(t, err)
	return s, m
}

func grantingPlatform(point location.GeoPoint) *mocks.MockPlatform {
	platform := new(mocks.MockPlatform)
	platform.On("RequestForegroundPermission", mock.Anything).Return(location.PermissionGranted, nil)
	platform.On("GetCurrentPosition", mock.Anything, location.AccuracyHigh).Return(point, nil)
	return platform
}

func denyingPlatform() *mocks.MockPlatform {
	platform := new(mocks.MockPlatform)
	platform.On("RequestForegroundPermission", mock.Anything).Return(location.PermissionDenied, nil)
	return platform
}
