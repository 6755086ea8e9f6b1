package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the entity configuration, loadable from a YAML file.
// Command-line flags override file values.
type Config struct {
	// EntityID is the 64-bit entity identifier (hex or decimal).
	EntityID uint64 `yaml:"entity_id"`

	// EntityModelID identifies the descriptor model revision.
	EntityModelID uint64 `yaml:"entity_model_id"`

	// Name is the human-readable entity name placed in the entity
	// descriptor.
	Name string `yaml:"name"`

	// ListenAddr is the UDP address to bind.
	ListenAddr string `yaml:"listen"`

	// PeerAddr is where outbound frames go, typically a broadcast
	// address.
	PeerAddr string `yaml:"peer"`

	// AdvertiseInterval is the announcement period.
	AdvertiseInterval time.Duration `yaml:"advertise_interval"`

	// TalkerStreams and ListenerStreams size the stream descriptor
	// set.
	TalkerStreams   uint16 `yaml:"talker_streams"`
	ListenerStreams uint16 `yaml:"listener_streams"`

	// StateFile persists runtime state across restarts. Empty
	// disables persistence.
	StateFile string `yaml:"state_file"`

	// ProtocolLog writes the CBOR event trace. Empty disables it.
	ProtocolLog string `yaml:"protocol_log"`

	// LogLevel is the console log level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// defaultConfig returns the built-in defaults.
func defaultConfig() Config {
	return Config{
		EntityModelID:     0x001B92FFFE000001,
		Name:              "avdecc-go reference entity",
		ListenAddr:        ":17221",
		PeerAddr:          "255.255.255.255:17221",
		AdvertiseInterval: 10 * time.Second,
		TalkerStreams:     1,
		ListenerStreams:   1,
		LogLevel:          "info",
	}
}

// loadConfig merges a YAML file over the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// validate rejects configurations the engine cannot run with.
func (c *Config) validate() error {
	if c.EntityID == 0 {
		return fmt.Errorf("entity_id must be non-zero")
	}
	if c.ListenAddr == "" || c.PeerAddr == "" {
		return fmt.Errorf("listen and peer addresses are required")
	}
	if c.AdvertiseInterval <= 0 {
		return fmt.Errorf("advertise_interval must be positive")
	}
	return nil
}
