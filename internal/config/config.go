// Package config loads tool configuration from an inkctl.toml file and
// environment variables. Precedence is flags > environment > file >
// defaults; flag handling lives in the CLI layer, this package resolves
// the rest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the project config file looked up in the working
// directory when no explicit path is given.
const DefaultFile = "inkctl.toml"

// Config holds all configuration for the tool
type Config struct {
	Node    NodeConfig    `toml:"node"`
	Signer  SignerConfig  `toml:"signer"`
	History HistoryConfig `toml:"history"`
	Chains  ChainsConfig  `toml:"chains"`
}

// NodeConfig holds target node settings
type NodeConfig struct {
	URL   string `toml:"url"`
	Chain string `toml:"chain"`
}

// SignerConfig holds signing key settings
type SignerConfig struct {
	SURI    string `toml:"suri"`
	Keyfile string `toml:"keyfile"`
}

// HistoryConfig holds deployment history settings
type HistoryConfig struct {
	Enabled     bool   `toml:"enabled"`
	DatabaseURL string `toml:"database_url"`
}

// ChainsConfig holds chain registry overrides
type ChainsConfig struct {
	File string `toml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		History: HistoryConfig{
			Enabled:     true,
			DatabaseURL: defaultHistoryPath(),
		},
	}
}

// Load reads configuration from path (or DefaultFile in the working
// directory when path is empty), then applies environment overrides. A
// missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultFile
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			// No project config, environment and defaults only
		} else {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Node.URL = getEnv("INKCTL_URL", c.Node.URL)
	c.Node.Chain = getEnv("INKCTL_CHAIN", c.Node.Chain)
	c.Signer.SURI = getEnv("INKCTL_SURI", c.Signer.SURI)
	c.Signer.Keyfile = getEnv("INKCTL_KEYFILE", c.Signer.Keyfile)
	c.History.DatabaseURL = getEnv("INKCTL_DATABASE_URL", c.History.DatabaseURL)
	c.History.Enabled = getEnvBool("INKCTL_HISTORY", c.History.Enabled)
	c.Chains.File = getEnv("INKCTL_CHAINS_FILE", c.Chains.File)
}

// Write marshals the config to path. Used by `config init`.
func (c *Config) Write(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating config %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".inkctl", "history.db")
	}
	return filepath.Join(home, ".inkctl", "history.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
