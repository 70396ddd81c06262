package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfigWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), cfg)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("remote:\n  host: from-file\n  port: 6000\n  auth_timeout: 3s\nhttp:\n  addr: \":9000\"\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("TS5MIRROR_REMOTE_HOST", "from-env")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Remote.Host)
	assert.Equal(t, 6000, cfg.Remote.Port)
	assert.Equal(t, 3*time.Second, cfg.Remote.AuthTimeout)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, Default().Remote.ConnectTimeout, cfg.Remote.ConnectTimeout)

	cfg.UpdateFrom(Config{Remote: RemoteConfig{Host: "from-flag", APIKey: "key"}})
	assert.Equal(t, "from-flag", cfg.Remote.Host)
	assert.Equal(t, "key", cfg.Remote.APIKey)
	assert.Equal(t, 6000, cfg.Remote.Port)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ws://localhost:5899", cfg.Remote.RemoteURL())

	bad := Default()
	bad.Remote.Port = 0
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.Remote.ReconnectMaxDelay = time.Millisecond
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.HTTP.Addr = ""
	assert.Error(t, bad.Validate())
}
