package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mafundi/mafundi-cli/pkg/file"
)

// ErrNotConnected is reported by tokens returned before Initialize.
var ErrNotConnected = errors.New("mqtt client not connected")

// MQTTClient defines the subset of the paho client used for publishing.
type MQTTClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MqttService provides methods for MQTT operations.
type MqttService struct {
	client     MQTTClient
	fileClient file.FileOperations
}

// NewMqttService creates a new MqttService instance.
func NewMqttService(fileClient file.FileOperations) *MqttService {
	return &MqttService{
		fileClient: fileClient,
	}
}

// Initialize sets up the MQTT client and connects. TLS is enabled when a CA
// certificate path is given.
func (s *MqttService) Initialize(broker, clientID, caCertPath string, connectTimeout time.Duration) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)

	if caCertPath != "" {
		caCert, err := s.fileClient.ReadFileRaw(caCertPath)
		if err != nil {
			return fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return fmt.Errorf("failed to append CA certificate")
		}
		opts.SetTLSConfig(&tls.Config{RootCAs: caCertPool, MinVersion: tls.VersionTLS12})
	}

	s.client = mqtt.NewClient(opts)

	token := s.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("timed out connecting to %s", broker)
	}
	return token.Error()
}

// Connect connects to the MQTT broker.
func (s *MqttService) Connect() mqtt.Token {
	if s.client == nil {
		return newFailedToken(ErrNotConnected)
	}
	return s.client.Connect()
}

// Publish sends a message to the specified topic.
func (s *MqttService) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if s.client == nil {
		return newFailedToken(ErrNotConnected)
	}
	return s.client.Publish(topic, qos, retained, payload)
}

// Disconnect gracefully disconnects the MQTT client.
func (s *MqttService) Disconnect(quiesce uint) {
	if s.client != nil {
		s.client.Disconnect(quiesce)
	}
}

// failedToken is an already completed token carrying an error.
type failedToken struct {
	err  error
	done chan struct{}
}

func newFailedToken(err error) *failedToken {
	done := make(chan struct{})
	close(done)
	return &failedToken{err: err, done: done}
}

func (t *failedToken) Wait() bool                     { return true }
func (t *failedToken) WaitTimeout(time.Duration) bool { return true }
func (t *failedToken) Done() <-chan struct{}          { return t.done }
func (t *failedToken) Error() error                   { return t.err }
