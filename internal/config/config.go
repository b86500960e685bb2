// Package config loads the client configuration from a TOML file and
// applies defaults for everything left unset.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

type (
	Config struct {
		// TopicPrefix is the first component of every content topic.
		TopicPrefix string

		// Transport selects the delivery adapter: "redis", "relay" or
		// "memory".
		Transport string

		RedisAddr string
		RelayURL  string

		// MongoURI points at the participant directory; empty disables it.
		MongoURI string

		// BootstrapPeers are broker addresses to wait for at startup.
		BootstrapPeers []string

		PeerWaitTimeout Duration
		SendTimeout     Duration
		MaxSendAttempts int
	}

	// Duration wraps time.Duration so TOML files can say "5s".
	Duration struct {
		time.Duration
	}
)

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func Default() *Config {
	return &Config{
		TopicPrefix:     "cipherlink",
		Transport:       "redis",
		RedisAddr:       "localhost:6379",
		RelayURL:        "ws://localhost:9090/ws",
		PeerWaitTimeout: Duration{30 * time.Second},
		SendTimeout:     Duration{10 * time.Second},
		MaxSendAttempts: 3,
	}
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Transport {
	case "redis", "relay", "memory":
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.MaxSendAttempts < 1 {
		return fmt.Errorf("max send attempts must be at least 1")
	}
	return nil
}
