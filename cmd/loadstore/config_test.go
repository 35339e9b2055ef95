package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/loadstore/pkg/log"
)

func TestLoadCLIConfigDefaults(t *testing.T) {
	cfg, err := loadCLIConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "an explicit config path must exist")

	cfg, err = loadCLIConfig("")
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
}

func TestLoadCLIConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loadstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /var/lib/loadstore\nlog_level: debug\n"), 0o644))

	cfg, err := loadCLIConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/loadstore", cfg.DataDir)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
}

func TestLoadCLIConfigRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loadstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	_, err := loadCLIConfig(path)
	assert.Error(t, err)
}
