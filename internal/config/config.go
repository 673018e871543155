// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dotandev/vigil/internal/errors"
)

type Network string

const (
	NetworkMainnet  Network = "mainnet-beta"
	NetworkDevnet   Network = "devnet"
	NetworkTestnet  Network = "testnet"
	NetworkLocalnet Network = "localnet"
)

var validNetworks = map[string]bool{
	string(NetworkMainnet):  true,
	string(NetworkDevnet):   true,
	string(NetworkTestnet):  true,
	string(NetworkLocalnet): true,
}

// Config is the engine configuration. It is an explicit value passed into
// the orchestrator at construction time and threaded through to the
// simulator and snapshot service; there is no ambient global lookup.
type Config struct {
	RpcUrl   string  `json:"rpc_url,omitempty"`
	Network  Network `json:"network,omitempty"`
	RPCToken string  `json:"rpc_token,omitempty"`
	LogLevel string  `json:"log_level,omitempty"`

	// CatalogPath points at an optional YAML target catalog. When empty the
	// built-in catalog is used.
	CatalogPath string `json:"catalog_path,omitempty"`

	// ScenarioTimeout bounds the wall clock budget of a single scenario
	// execution. Exceeding it yields an infrastructure error result, not a
	// security verdict.
	ScenarioTimeout time.Duration `json:"scenario_timeout,omitempty"`

	// InterScenarioDelay is a small fixed delay between scenario executions
	// to stay friendly with upstream RPC rate limits.
	InterScenarioDelay time.Duration `json:"inter_scenario_delay,omitempty"`

	// PersistResults enables the sqlite audit trail of runs and results.
	PersistResults bool   `json:"persist_results,omitempty"`
	// PersistSnapshots additionally retains pre/post snapshot pairs with
	// each persisted result.
	PersistSnapshots bool   `json:"persist_snapshots,omitempty"`
	StorePath        string `json:"store_path,omitempty"`

	// WebhookURLs receive a notification for each failed scenario.
	WebhookURLs      []string `json:"webhook_urls,omitempty"`
	WebhookErrorOnly bool     `json:"webhook_error_only,omitempty"`

	// TelemetryEnabled turns on OTLP trace export.
	TelemetryEnabled bool   `json:"telemetry_enabled,omitempty"`
	TelemetryURL     string `json:"telemetry_url,omitempty"`

	// DangerousAllowCommit must be set for the committing simulator to be
	// constructible at all. The default dry-run pipeline ignores it.
	DangerousAllowCommit bool `json:"dangerous_allow_commit,omitempty"`
}

var defaultConfig = &Config{
	RpcUrl:             "https://api.devnet.solana.com",
	Network:            NetworkDevnet,
	LogLevel:           "info",
	ScenarioTimeout:    30 * time.Second,
	InterScenarioDelay: 200 * time.Millisecond,
	StorePath:          filepath.Join(os.ExpandEnv("$HOME"), ".vigil", "audit.db"),
}

// GetConfigPath returns the directory holding vigil configuration.
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapConfigError("failed to resolve home directory", err)
	}
	return filepath.Join(home, ".vigil"), nil
}

// GetGeneralConfigPath returns the path to the general configuration file
func GetGeneralConfigPath() (string, error) {
	configDir, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the general configuration from disk (JSON format)
func LoadConfig() (*Config, error) {
	configPath, err := GetGeneralConfigPath()
	if err != nil {
		return nil, err
	}

	// If file doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapConfigError("failed to read config file", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.WrapConfigError("failed to parse config file", err)
	}

	return config, nil
}

// Load loads the configuration from environment variables layered over the
// on-disk config file.
func Load() (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	cfg.RpcUrl = getEnv("VIGIL_RPC_URL", cfg.RpcUrl)
	cfg.Network = Network(getEnv("VIGIL_NETWORK", string(cfg.Network)))
	cfg.RPCToken = getEnv("VIGIL_RPC_TOKEN", cfg.RPCToken)
	cfg.LogLevel = getEnv("VIGIL_LOG_LEVEL", cfg.LogLevel)
	cfg.CatalogPath = getEnv("VIGIL_CATALOG", cfg.CatalogPath)
	cfg.StorePath = getEnv("VIGIL_STORE_PATH", cfg.StorePath)
	cfg.TelemetryURL = getEnv("VIGIL_OTLP_URL", cfg.TelemetryURL)

	if v := os.Getenv("VIGIL_SCENARIO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.WrapConfigError("invalid VIGIL_SCENARIO_TIMEOUT", err)
		}
		cfg.ScenarioTimeout = d
	}

	if v := os.Getenv("VIGIL_WEBHOOK_URLS"); v != "" {
		cfg.WebhookURLs = splitAndTrim(v)
	}

	cfg.PersistResults = boolEnv("VIGIL_PERSIST_RESULTS", cfg.PersistResults)
	cfg.PersistSnapshots = boolEnv("VIGIL_PERSIST_SNAPSHOTS", cfg.PersistSnapshots)
	cfg.TelemetryEnabled = boolEnv("VIGIL_TELEMETRY", cfg.TelemetryEnabled)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk (JSON format)
func SaveConfig(config *Config) error {
	configPath, err := GetGeneralConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return errors.WrapConfigError("failed to create config directory", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return errors.WrapConfigError("failed to marshal config", err)
	}

	// Write with restricted permissions (owner only)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.WrapConfigError("failed to write config file", err)
	}

	return nil
}

func (c *Config) Validate() error {
	if c.RpcUrl == "" {
		return errors.WrapValidationError("rpc_url cannot be empty")
	}

	if c.Network != "" && !validNetworks[string(c.Network)] {
		return errors.WrapInvalidNetwork(string(c.Network))
	}

	if c.ScenarioTimeout < 0 {
		return errors.WrapValidationError("scenario_timeout cannot be negative")
	}

	if c.PersistSnapshots && !c.PersistResults {
		return errors.WrapValidationError("persist_snapshots requires persist_results")
	}

	return nil
}

// NetworkURL returns the default public RPC endpoint for the configured
// network, falling back to the explicit rpc_url for custom setups.
func (c *Config) NetworkURL() string {
	switch c.Network {
	case NetworkMainnet:
		return "https://api.mainnet-beta.solana.com"
	case NetworkDevnet:
		return "https://api.devnet.solana.com"
	case NetworkTestnet:
		return "https://api.testnet.solana.com"
	case NetworkLocalnet:
		return "http://localhost:8899"
	default:
		return c.RpcUrl
	}
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{RPC: %s, Network: %s, LogLevel: %s, Timeout: %s}",
		c.RpcUrl, c.Network, c.LogLevel, c.ScenarioTimeout,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func boolEnv(key string, defaultValue bool) bool {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return v == "yes"
	}
	return b
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func DefaultConfig() *Config {
	cp := *defaultConfig
	return &cp
}

func NewConfig(rpcUrl string, network Network) *Config {
	cfg := DefaultConfig()
	cfg.RpcUrl = rpcUrl
	cfg.Network = network
	return cfg
}

func (c *Config) WithLogLevel(level string) *Config {
	c.LogLevel = level
	return c
}

func (c *Config) WithCatalogPath(path string) *Config {
	c.CatalogPath = path
	return c
}

func (c *Config) WithScenarioTimeout(d time.Duration) *Config {
	c.ScenarioTimeout = d
	return c
}

func (c *Config) WithStorePath(path string) *Config {
	c.StorePath = path
	return c
}
