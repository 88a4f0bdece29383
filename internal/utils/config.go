package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"

	"github.com/mafundi/mafundi-cli/internal/api"
	"github.com/mafundi/mafundi-cli/internal/constants"
	"github.com/mafundi/mafundi-cli/pkg/file"
)

// Environment variables overriding the configuration file.
const (
	EnvAPIURL     = "MAFUNDI_API_URL"
	EnvMapsAPIKey = "MAFUNDI_MAPS_API_KEY"
)

// Location providers.
const (
	ProviderStatic = "static"
	ProviderGPS    = "gps"
	ProviderGoogle = "google"
)

// Permission modes.
const (
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
	PermissionPrompt  = "prompt"
)

// Session stores.
const (
	SessionStoreFile    = "file"
	SessionStoreKeyring = "keyring"
)

// Config represents the structure of the configuration file.
type Config struct {
	App struct {
		Name    string `yaml:"name"`    // Name used in the User-Agent
		Version string `yaml:"version"` // Semantic version of the client
	} `yaml:"app"`

	API struct {
		BaseURL    string        `yaml:"base_url"`     // Backend root, e.g. http://localhost:8000/api
		Timeout    time.Duration `yaml:"timeout"`      // Per-request timeout
		RatePerSec float64       `yaml:"rate_per_sec"` // Request pacing, 0 disables
		Burst      int           `yaml:"burst"`        // Requests allowed back to back
	} `yaml:"api"`

	Session struct {
		Store    string `yaml:"store"`     // file or keyring
		File     string `yaml:"file"`      // Encrypted session file
		KeyFile  string `yaml:"key_file"`  // Secret the session key is derived from
		LockFile string `yaml:"lock_file"` // Cross-process lock for the session file
		Account  string `yaml:"account"`   // Keyring account name
	} `yaml:"session"`

	Location struct {
		Provider   string        `yaml:"provider"`   // static, gps or google
		Permission string        `yaml:"permission"` // granted, denied or prompt
		Timeout    time.Duration `yaml:"timeout"`    // Bound on one position request
		Static     struct {
			Latitude  float64 `yaml:"latitude"`
			Longitude float64 `yaml:"longitude"`
		} `yaml:"static"`
		GPSDevicePort     string `yaml:"gps_device_port"` // Serial port of the NMEA receiver
		GPSDeviceBaudRate int    `yaml:"gps_baud_rate"`   // Baud rate of the NMEA receiver
		MapsAPIKey        string `yaml:"maps_api_key"`    // Google Maps API key
		ModemIndex        int    `yaml:"modem_index"`     // ModemManager index for cell data
	} `yaml:"location"`

	Matching struct {
		RadiusKm float64 `yaml:"radius_km"` // "Jobs near me" radius
	} `yaml:"matching"`

	Dashboard struct {
		RefreshInterval time.Duration `yaml:"refresh_interval"` // Job reload period in watch mode
	} `yaml:"dashboard"`

	Events struct {
		Enabled        bool          `yaml:"enabled"`         // Publish ranked feeds over MQTT
		Broker         string        `yaml:"broker"`          // MQTT broker address
		ClientID       string        `yaml:"client_id"`       // MQTT client ID prefix
		Topic          string        `yaml:"topic"`           // Feed topic
		QOS            int           `yaml:"qos"`             // MQTT QoS level for feed messages
		CACertificate  string        `yaml:"ca_certificate"`  // Path to the CA certificate
		ConnectTimeout time.Duration `yaml:"connect_timeout"` // Broker connect timeout
	} `yaml:"events"`

	Log struct {
		Level  string `yaml:"level"`  // zerolog level name
		Pretty bool   `yaml:"pretty"` // Human readable console output
	} `yaml:"log"`
}

// LoadConfig loads the YAML configuration from the specified file, applies
// overrides from envFile (if it exists) and the process environment, fills
// defaults and validates the result.
func LoadConfig(filename, envFile string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	if envFile != "" {
		exists, err := fileClient.IsFileExists(envFile)
		if err != nil {
			return nil, err
		}
		if exists {
			// existing environment variables win over the file
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}
	config.applyEnv(os.LookupEnv)
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := lookup(EnvMapsAPIKey); ok && v != "" {
		c.Location.MapsAPIKey = v
	}
}

func (c *Config) applyDefaults() {
	c.Session.Store = strings.ToLower(strings.TrimSpace(c.Session.Store))
	c.Location.Provider = strings.ToLower(strings.TrimSpace(c.Location.Provider))
	c.Location.Permission = strings.ToLower(strings.TrimSpace(c.Location.Permission))

	if c.App.Name == "" {
		c.App.Name = "mafundi-cli"
	}
	if c.App.Version == "" {
		c.App.Version = "0.1.0"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = api.DefaultBaseURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Session.Store == "" {
		c.Session.Store = SessionStoreFile
	}
	if c.Session.File == "" {
		c.Session.File = "data/session.enc"
	}
	if c.Session.KeyFile == "" {
		c.Session.KeyFile = "data/session.key"
	}
	if c.Session.LockFile == "" {
		c.Session.LockFile = c.Session.File + ".lock"
	}
	if c.Session.Account == "" {
		c.Session.Account = "default"
	}
	if c.Location.Provider == "" {
		c.Location.Provider = ProviderStatic
	}
	if c.Location.Permission == "" {
		c.Location.Permission = PermissionPrompt
	}
	if c.Location.Timeout <= 0 {
		c.Location.Timeout = constants.DefaultResolveTimeout
	}
	if c.Location.GPSDeviceBaudRate == 0 {
		c.Location.GPSDeviceBaudRate = 9600
	}
	if c.Matching.RadiusKm == 0 {
		c.Matching.RadiusKm = constants.DefaultRadiusKm
	}
	if c.Events.ClientID == "" {
		c.Events.ClientID = "mafundi-cli"
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "mafundi/feed"
	}
	if c.Events.ConnectTimeout <= 0 {
		c.Events.ConnectTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := semver.NewVersion(c.App.Version); err != nil {
		errs = append(errs, fmt.Errorf("app.version %q: %w", c.App.Version, err))
	}
	if !oneOf(c.Session.Store, SessionStoreFile, SessionStoreKeyring) {
		errs = append(errs, fmt.Errorf("session.store must be %s or %s", SessionStoreFile, SessionStoreKeyring))
	}
	if !oneOf(c.Location.Provider, ProviderStatic, ProviderGPS, ProviderGoogle) {
		errs = append(errs, fmt.Errorf("location.provider must be %s, %s or %s", ProviderStatic, ProviderGPS, ProviderGoogle))
	}
	if !oneOf(c.Location.Permission, PermissionGranted, PermissionDenied, PermissionPrompt) {
		errs = append(errs, fmt.Errorf("location.permission must be %s, %s or %s", PermissionGranted, PermissionDenied, PermissionPrompt))
	}
	if c.Location.Provider == ProviderGPS && c.Location.GPSDevicePort == "" {
		errs = append(errs, errors.New("location.gps_device_port is required for the gps provider"))
	}
	if c.Location.Provider == ProviderGoogle && c.Location.MapsAPIKey == "" {
		errs = append(errs, fmt.Errorf("location.maps_api_key or %s is required for the google provider", EnvMapsAPIKey))
	}
	if c.Matching.RadiusKm < 0 {
		errs = append(errs, errors.New("matching.radius_km cannot be negative"))
	}
	if c.Events.Enabled {
		if c.Events.Broker == "" {
			errs = append(errs, errors.New("events.broker is required when events are enabled"))
		}
		if c.Events.QOS < 0 || c.Events.QOS > 2 {
			errs = append(errs, errors.New("events.qos must be 0, 1 or 2"))
		}
	}

	return errors.Join(errs...)
}

// UserAgent identifies the client to the backend, e.g. "mafundi-cli/1.2.0".
func (c *Config) UserAgent() string {
	v, err := semver.NewVersion(c.App.Version)
	if err != nil {
		return c.App.Name
	}
	return c.App.Name + "/" + v.String()
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
