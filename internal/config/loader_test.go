package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_MissingFileFallsBackToDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "nope.json"))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "fifo", cfg.Scheduler.Strategy)
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.Storage.BaseDir)
	assert.NotEmpty(t, cfg.Audit.File)
}

func TestLoader_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "agentos.json")
	content := `{
		"data_dir": "` + dir + `",
		"scheduler": {"strategy": "round_robin"},
		"memory": {"backend": "sqlite"},
		"logging": {"level": "debug", "console": false}
	}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := NewLoader(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "round_robin", cfg.Scheduler.Strategy)
	assert.Equal(t, "sqlite", cfg.Memory.Backend)
	assert.Equal(t, filepath.Join(dir, "memory.db"), cfg.Memory.DBPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Console)
}

func TestLoader_InvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "agentos.json")
	require.NoError(t, os.WriteFile(configPath, []byte("{not json"), 0644))

	_, err := NewLoader(configPath).Load()
	require.Error(t, err)
}

func TestLoader_InvalidValuesRejected(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "agentos.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"scheduler": {"strategy": "lifo"}}`), 0644))

	_, err := NewLoader(configPath).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy must be")
}
