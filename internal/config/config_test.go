package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")

	content := []byte(`logger:
  logLevel: debug
  logFormat: text
db:
  driver: sqlite
  dbName: stanup-test
  dbPath: /tmp
installer:
  home: /opt/cmdstan
  cores: 4
  buildTimeoutMin: 10
`)
	require.NoError(t, os.WriteFile(cfgFile, content, 0o644))

	SetConfig(cfgFile)

	assert.Equal(t, LevelDebug, GetConfig.Logger.LogLevel)
	assert.Equal(t, TextLogFormat, GetConfig.Logger.LogFormat)
	assert.Equal(t, "stanup-test", GetConfig.Db.Dbname)
	assert.Equal(t, 4, GetConfig.Installer.Cores)
	assert.Equal(t, "/opt/cmdstan", GetConfig.Installer.Home)
}

func TestInstallHomeEnvOverride(t *testing.T) {
	GetConfig.Installer.Home = "/opt/cmdstan"

	t.Setenv("CMDSTAN", "")
	assert.Equal(t, "/opt/cmdstan", GetConfig.InstallHome())

	t.Setenv("CMDSTAN", "/custom/cmdstan")
	assert.Equal(t, "/custom/cmdstan", GetConfig.InstallHome())
}

func TestDefaultConfig(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Error(err)
		}
	})

	GetConfig.Logger.LogLevel = ""
	GetConfig.Installer.Cores = 0

	require.NoError(t, DefaultConfig())

	assert.Equal(t, LevelInfo, GetConfig.Logger.LogLevel)
	assert.Equal(t, 1, GetConfig.Installer.Cores)
	assert.FileExists(t, "config.yaml")
}
