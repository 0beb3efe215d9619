package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"SERVICE_NAME", "SERVER_LISTEN_ADDRESS", "BIND_ADDRESS", "PORT", "FUNCTION_DIR",
		"FUNCTION_EXT", "DATABASE_URL", "REFRESH_INTERVAL", "FUNCTION_TIMEOUT",
		"MAX_BODY_BYTES", "LOG_DIR", "LOG_BODY_PATHS", "METRICS_PATH",
		"SSL_SERVER_CERTIFICATE", "SSL_SERVER_KEY", FileEnv,
	} {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "functions", cfg.FunctionDir)
	assert.Equal(t, ".lua", cfg.FunctionExt)
	assert.Equal(t, 10*time.Minute, cfg.RefreshInterval.Duration)
	assert.Equal(t, 30*time.Second, cfg.FunctionTimeout.Duration)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
	assert.False(t, cfg.TLSEnabled())
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9001")
	t.Setenv("BIND_ADDRESS", "127.0.0.1")
	t.Setenv("FUNCTION_DIR", "/srv/fns")
	t.Setenv("FUNCTION_EXT", "lua")
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/app")
	t.Setenv("LOG_BODY_PATHS", "/echo, /feedback,")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9001", cfg.Addr())
	assert.Equal(t, "/srv/fns", cfg.FunctionDir)
	assert.Equal(t, ".lua", cfg.FunctionExt)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval.Duration)
	assert.Equal(t, "postgres://u:p@db/app", cfg.DatabaseURL)
	assert.Equal(t, []string{"/echo", "/feedback"}, cfg.LogBodyPaths)

	t.Setenv("SERVER_LISTEN_ADDRESS", ":7000")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr())
}

func TestFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "functions.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
service = "edge"
port = 3000
function_dir = "handlers"
refresh_interval = "1m"
function_timeout = "0s"
metrics_path = "internal/metrics"
`), 0o644))
	t.Setenv("PORT", "3001")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "edge", cfg.Service)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, "handlers", cfg.FunctionDir)
	assert.Equal(t, time.Minute, cfg.RefreshInterval.Duration)
	assert.Equal(t, time.Duration(0), cfg.FunctionTimeout.Duration)
	assert.Equal(t, "/internal/metrics", cfg.MetricsPath)
}

func TestInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")
	_, err := Load("")
	assert.ErrorContains(t, err, "PORT")

	clearEnv(t)
	t.Setenv("REFRESH_INTERVAL", "0s")
	_, err = Load("")
	assert.ErrorContains(t, err, "refresh_interval")

	clearEnv(t)
	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestTLSEnabled(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "tls.crt")
	key := filepath.Join(dir, "tls.key")
	require.NoError(t, os.WriteFile(cert, []byte("c"), 0o600))

	cfg := Default()
	cfg.TLSCert, cfg.TLSKey = cert, key
	assert.False(t, cfg.TLSEnabled())
	require.NoError(t, os.WriteFile(key, []byte("k"), 0o600))
	assert.True(t, cfg.TLSEnabled())
}
