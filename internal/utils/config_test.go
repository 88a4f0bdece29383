package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mafundi/mafundi-cli/pkg/file"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "app:\n  version: 1.2.0\n")

	cfg, err := LoadConfig(path, "", file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 10.0, cfg.Matching.RadiusKm)
	assert.Equal(t, 15*time.Second, cfg.Location.Timeout)
	assert.Equal(t, ProviderStatic, cfg.Location.Provider)
	assert.Equal(t, PermissionPrompt, cfg.Location.Permission)
	assert.Equal(t, SessionStoreFile, cfg.Session.Store)
	assert.Equal(t, "data/session.enc.lock", cfg.Session.LockFile)
	assert.Equal(t, "mafundi-cli/1.2.0", cfg.UserAgent())
}

func TestLoadConfig_FileValues(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
api:
  base_url: https://api.mafundi.example/api
  timeout: 5s
  rate_per_sec: 2
  burst: 4
location:
  provider: GPS
  permission: granted
  timeout: 3s
  gps_device_port: /dev/ttyUSB0
matching:
  radius_km: 25
dashboard:
  refresh_interval: 1m
events:
  enabled: true
  broker: tcp://localhost:1883
  qos: 1
`)

	cfg, err := LoadConfig(path, "", file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, "https://api.mafundi.example/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2.0, cfg.API.RatePerSec)
	assert.Equal(t, ProviderGPS, cfg.Location.Provider)
	assert.Equal(t, 3*time.Second, cfg.Location.Timeout)
	assert.Equal(t, 9600, cfg.Location.GPSDeviceBaudRate)
	assert.Equal(t, 25.0, cfg.Matching.RadiusKm)
	assert.Equal(t, time.Minute, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, "mafundi/feed", cfg.Events.Topic)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "location:\n  provider: google\n")
	envFile := writeFile(t, dir, ".env", EnvMapsAPIKey+"=from-dotenv\n")

	t.Setenv(EnvAPIURL, "http://10.0.2.2:8000/api")
	t.Setenv(EnvMapsAPIKey, "")
	os.Unsetenv(EnvMapsAPIKey)

	cfg, err := LoadConfig(path, envFile, file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.2.2:8000/api", cfg.API.BaseURL)
	assert.Equal(t, "from-dotenv", cfg.Location.MapsAPIKey)
}

func TestLoadConfig_MissingEnvFileIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "{}\n")

	_, err := LoadConfig(path, filepath.Join(dir, ".env"), file.NewFileService())
	assert.NoError(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
app:
  version: not-a-version
session:
  store: cloud
location:
  provider: gps
events:
  enabled: true
  qos: 3
`)

	_, err := LoadConfig(path, "", file.NewFileService())
	require.Error(t, err)
	assert.ErrorContains(t, err, "app.version")
	assert.ErrorContains(t, err, "session.store")
	assert.ErrorContains(t, err, "gps_device_port")
	assert.ErrorContains(t, err, "events.broker")
	assert.ErrorContains(t, err, "events.qos")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), "", file.NewFileService())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger(os.Stderr, "debug", true)
	assert.NoError(t, err)

	_, err = NewLogger(os.Stderr, "loud", false)
	assert.Error(t, err)
}
