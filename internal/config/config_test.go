package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "cipherlink", cfg.TopicPrefix)
	require.Equal(t, "redis", cfg.Transport)
	require.Equal(t, 10*time.Second, cfg.SendTimeout.Duration)
	require.Equal(t, 3, cfg.MaxSendAttempts)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
TopicPrefix = "myapp"
Transport = "relay"
RelayURL = "ws://example:9090/ws"
SendTimeout = "2s"
MaxSendAttempts = 5
BootstrapPeers = ["host-a:6379", "host-b:6379"]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "myapp", cfg.TopicPrefix)
	require.Equal(t, "relay", cfg.Transport)
	require.Equal(t, "ws://example:9090/ws", cfg.RelayURL)
	require.Equal(t, 2*time.Second, cfg.SendTimeout.Duration)
	require.Equal(t, 5, cfg.MaxSendAttempts)
	require.Len(t, cfg.BootstrapPeers, 2)

	// untouched keys keep their defaults
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadRejectsUnknownTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`Transport = "carrier-pigeon"`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
