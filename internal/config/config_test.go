package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "PicturesMediaDB", cfg.Store.Name)
	assert.Equal(t, 2, cfg.Store.Version)
	assert.Equal(t, 30*24*time.Hour, cfg.Trash.Retention)
	assert.Equal(t, "media.events", cfg.Kafka.Topic)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("store:\n  path: /tmp/library.db\n  version: 3\napp:\n  port: \"9000\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("APP_PORT", "9100")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/library.db", cfg.Store.Path)
	assert.Equal(t, 3, cfg.Store.Version)
	assert.Equal(t, "9100", cfg.App.Port)
}
