package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileService_RoundTrip(t *testing.T) {
	fs := NewFileService()
	path := filepath.Join(t.TempDir(), "nested", "session.bin")

	exists, err := fs.IsFileExists(path)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.WriteFileRaw(path, []byte("payload")))

	exists, err = fs.IsFileExists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := fs.ReadFileRaw(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, fs.RemoveFile(path))
	require.NoError(t, fs.RemoveFile(path))
}

func TestFileService_ReadYamlFile(t *testing.T) {
	fs := NewFileService()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://example.test\n"), 0600))

	var cfg struct {
		API struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"api"`
	}
	require.NoError(t, fs.ReadYamlFile(path, &cfg))
	assert.Equal(t, "http://example.test", cfg.API.BaseURL)

	assert.Error(t, fs.ReadYamlFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))
}
