package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	for _, k := range []string{"SSDEEPVIZ_SERVER_URL", "SSDEEPVIZ_TRANSPORT", "SSDEEPVIZ_TIMEOUT", "SSDEEPVIZ_LOG_LEVEL", "DEBUG"} {
		t.Setenv(k, "")
	}
	t.Setenv("SSDEEPVIZ_HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := setHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.ServerURL)
	require.Equal(t, TransportHTTP, cfg.Transport)
	require.Equal(t, 10*time.Second, cfg.Timeout)
	require.Equal(t, home, cfg.Home)
	require.Equal(t, "info", cfg.LogLevel)
	require.False(t, cfg.Debug)
}

func TestLoadFileThenEnv(t *testing.T) {
	home := setHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(`
server_url = "http://engine.internal:9000"
transport = "ws"
timeout = "3s"
log_level = "warn"
`), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://engine.internal:9000", cfg.ServerURL)
	require.Equal(t, TransportWS, cfg.Transport)
	require.Equal(t, 3*time.Second, cfg.Timeout)
	require.Equal(t, "warn", cfg.LogLevel)

	t.Setenv("SSDEEPVIZ_TRANSPORT", "http")
	t.Setenv("DEBUG", "1")
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, TransportHTTP, cfg.Transport)
	require.True(t, cfg.Debug)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalid(t *testing.T) {
	home := setHome(t)

	t.Setenv("SSDEEPVIZ_TRANSPORT", "carrier-pigeon")
	_, err := Load()
	require.ErrorContains(t, err, "invalid transport")

	t.Setenv("SSDEEPVIZ_TRANSPORT", "")
	t.Setenv("SSDEEPVIZ_TIMEOUT", "soon")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("SSDEEPVIZ_TIMEOUT", "")
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte("server_url = "), 0o600))
	_, err = Load()
	require.ErrorContains(t, err, "failed to parse")
}

func TestLastInput(t *testing.T) {
	t.Parallel()
	home := t.TempDir()

	_, ok, err := LoadLastInput(home)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, SaveLastInput(home, "hello world"))
	in, ok, err := LoadLastInput(home)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello world", in.Text)
	require.NotZero(t, in.UpdatedAtMs)

	require.Error(t, SaveLastInput(home, ""))
	require.Error(t, SaveLastInput(" ", "x"))
}
