package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/ts5-mirror/internal/auth"
	"github.com/vovakirdan/ts5-mirror/internal/config"
)

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", stdout)
}

func TestTokenIsValidForConfiguredAudience(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	stdout, _, err := executeCLI(t, "token", "--config", path, "--jwt-secret", "s3cret", "--viewer", "obs")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.HTTP.JWTSecret = "s3cret"
	claims, err := auth.ValidateToken(auth.ConfigFrom(cfg.HTTP, 0), strings.TrimSpace(stdout))
	require.NoError(t, err)
	assert.Equal(t, "obs", claims.Viewer)
}

func TestTokenWithoutSecretFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, _, err := executeCLI(t, "token", "--config", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrNoSecret)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, _, err := executeCLI(t, "run", "--config", path, "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote.port")
}
