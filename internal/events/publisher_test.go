package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mafundi/mafundi-cli/internal/events"
	"github.com/mafundi/mafundi-cli/internal/mocks"
	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/pkg/location"
)

func sampleUpdate() events.FeedUpdate {
	distance := 2.59
	return events.FeedUpdate{
		SessionID: "s-1",
		UserID:    "7",
		Origin:    &location.GeoPoint{Latitude: -1.286389, Longitude: 36.817223},
		RadiusKm:  10,
		Jobs: []models.RankedJob{
			{JobPosting: models.JobPosting{ID: "1", Title: "Mason"}, Distance: &distance},
		},
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestMQTTPublisher_PublishFeed(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	token := mocks.CompletedToken(nil)

	var payload []byte
	client.On("Publish", "mafundi/feed", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) { payload = args.Get(3).([]byte) }).
		Return(token)

	p := events.NewMQTTPublisher(client, "mafundi/feed", 1, zerolog.Nop())
	require.NoError(t, p.PublishFeed(context.Background(), sampleUpdate()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "s-1", decoded["session_id"])
	assert.Equal(t, float64(7), decoded["user_id"])
	assert.Equal(t, float64(10), decoded["radius_km"])
	assert.Len(t, decoded["jobs"], 1)

	client.AssertExpectations(t)
}

func TestMQTTPublisher_BrokerError(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Publish", "feed", byte(0), false, mock.Anything).Return(mocks.CompletedToken(errors.New("not connected")))

	p := events.NewMQTTPublisher(client, "feed", 0, zerolog.Nop())
	err := p.PublishFeed(context.Background(), sampleUpdate())
	assert.EqualError(t, err, "not connected")
}

func TestMQTTPublisher_ContextDone(t *testing.T) {
	pending := make(chan struct{})
	token := new(mocks.MockToken)
	token.On("Done").Return((<-chan struct{})(pending))

	client := new(mocks.MockMQTTClient)
	client.On("Publish", "feed", byte(0), false, mock.Anything).Return(token)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := events.NewMQTTPublisher(client, "feed", 0, zerolog.Nop())
	err := p.PublishFeed(ctx, sampleUpdate())
	assert.ErrorIs(t, err, context.Canceled)
	token.AssertNotCalled(t, "Error")
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, events.NopPublisher{}.PublishFeed(context.Background(), sampleUpdate()))
}
