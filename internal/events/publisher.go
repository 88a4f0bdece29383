// Package events publishes ranked job feeds for other consumers (for example
// a notification relay) to pick up.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/pkg/location"
	"github.com/mafundi/mafundi-cli/pkg/mqtt"
)

// FeedUpdate is emitted every time a dashboard recomputes its ranked list.
type FeedUpdate struct {
	SessionID string             `json:"session_id"`
	UserID    models.ID          `json:"user_id"`
	Origin    *location.GeoPoint `json:"origin"`
	RadiusKm  float64            `json:"radius_km"`
	Jobs      []models.RankedJob `json:"jobs"`
	Timestamp time.Time          `json:"timestamp"`
}

// Publisher delivers feed updates.
type Publisher interface {
	PublishFeed(ctx context.Context, update FeedUpdate) error
}

// NopPublisher drops every update.
type NopPublisher struct{}

func (NopPublisher) PublishFeed(context.Context, FeedUpdate) error { return nil }

// MQTTPublisher publishes feed updates as JSON on a topic.
type MQTTPublisher struct {
	client mqtt.MQTTClient
	topic  string
	qos    int
	logger zerolog.Logger
}

// NewMQTTPublisher creates a publisher on an already connected client.
func NewMQTTPublisher(client mqtt.MQTTClient, topic string, qos int, logger zerolog.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		topic:  topic,
		qos:    qos,
		logger: logger,
	}
}

// PublishFeed serializes update and waits for the broker until ctx is done.
func (p *MQTTPublisher) PublishFeed(ctx context.Context, update FeedUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to serialize feed update")
		return err
	}

	token := p.client.Publish(p.topic, byte(p.qos), false, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", p.topic, ctx.Err())
	}

	if err := token.Error(); err != nil {
		p.logger.Error().
			Err(err).
			Str("topic", p.topic).
			Msg("Failed to publish feed update")
		return err
	}

	p.logger.Debug().
		Str("topic", p.topic).
		Int("jobs", len(update.Jobs)).
		Msg("Feed update published")
	return nil
}
