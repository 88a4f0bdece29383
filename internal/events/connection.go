package events

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mafundi/mafundi-cli/pkg/mqtt"
)

// Connection runs the broker connection as a service so that it is opened
// before and closed after the services publishing through it.
type Connection struct {
	service  *mqtt.MqttService
	broker   string
	clientID string
	caCert   string
	timeout  time.Duration
	logger   zerolog.Logger

	running bool
}

// NewConnection creates a Connection for service.
func NewConnection(service *mqtt.MqttService, broker, clientID, caCert string, timeout time.Duration, logger zerolog.Logger) *Connection {
	return &Connection{
		service:  service,
		broker:   broker,
		clientID: clientID,
		caCert:   caCert,
		timeout:  timeout,
		logger:   logger,
	}
}

func (c *Connection) Start() error {
	if c.running {
		return errors.New("event connection is already running")
	}
	if err := c.service.Initialize(c.broker, c.clientID, c.caCert, c.timeout); err != nil {
		c.logger.Error().Err(err).Str("broker", c.broker).Msg("Failed to connect to event broker")
		return err
	}
	c.running = true
	c.logger.Info().Str("broker", c.broker).Str("client_id", c.clientID).Msg("Connected to event broker")
	return nil
}

func (c *Connection) Stop() error {
	if !c.running {
		return errors.New("event connection is not running")
	}
	c.service.Disconnect(250)
	c.running = false
	c.logger.Info().Msg("Disconnected from event broker")
	return nil
}
