package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Config represents the configuration for a peershare node
type Config struct {
	// Default config file location
	configFile string

	// Node settings cover the peer protocol listener and the address other
	// peers are told to dial to reach this node.
	Node struct {
		ListenAddress    string `json:"listen"`
		AdvertiseAddress string `json:"advertise"`
	} `json:"node"`

	// Swarm lists the peers queried during discovery and how long to wait
	// for each of them, in milliseconds.
	Swarm struct {
		Peers     []string `json:"peers"`
		TimeoutMS int      `json:"timeout_ms"`
	} `json:"swarm"`

	// Bridge is the local HTTP endpoint the share and discover commands
	// talk to.
	Bridge struct {
		ListenAddress string `json:"listen"`
	} `json:"bridge"`
}

// NewEmptyConfig generates a new configuration with default settings
func NewEmptyConfig(configFile string) *Config {
	cfg := &Config{}

	cfg.configFile = configFile

	cfg.Node.ListenAddress = "localhost:9004"
	cfg.Node.AdvertiseAddress = "localhost:9004"

	// The node's own address is part of the peer list on purpose: every
	// node ships the same list and skips itself during discovery.
	cfg.Swarm.Peers = []string{"localhost:9004", "localhost:9005", "localhost:9006"}
	cfg.Swarm.TimeoutMS = 2000

	cfg.Bridge.ListenAddress = "localhost:8084"

	return cfg
}

func NewConfigFromFile(configFile string) (*Config, error) {
	cfg := NewEmptyConfig(configFile)
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PeerTimeout returns the per-peer query timeout as a duration.
func (c *Config) PeerTimeout() time.Duration {
	return time.Duration(c.Swarm.TimeoutMS) * time.Millisecond
}

// Save saves the configuration to a file
func (c *Config) Save() error {
	log.Infof("Saving config to %s", c.configFile)

	// We'll marshall our structure to JSON and write it into a file
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.configFile, data, 0644)
}

func (c *Config) Load() error {
	log.Infof("Loading config from %s", c.configFile)
	data, err := os.ReadFile(c.configFile)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, c); err != nil {
		return err
	}

	return nil
}
