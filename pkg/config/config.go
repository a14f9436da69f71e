package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mudlink/pkg/batch"
)

const envServerAddr = "MUDLINK_SERVER_ADDR"

// Config is the root runtime configuration loaded from config.json. A
// missing config file is not an error; the client starts on defaults.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Batch   BatchConfig   `json:"batch,omitempty"`
	Logging LoggingConfig `json:"logging,omitempty"`
}

// ServerConfig identifies the game server to connect to.
type ServerConfig struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// BatchConfig exposes the three batcher release knobs. Zero values mean
// "use the built-in default" (10 units / 100 ms / 10 KB).
type BatchConfig struct {
	MaxCount   int `json:"max_count,omitempty"`
	MaxDelayMs int `json:"max_delay_ms,omitempty"`
	MaxBytes   int `json:"max_bytes,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// Default returns the zero-setup configuration: localhost server, built-in
// batch thresholds, text logging at info.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: "127.0.0.1:4000", Name: "local"},
	}
}

// BatcherConfig converts the JSON knobs into a batch.Config, leaving unset
// knobs for the batcher's own defaults.
func (bc BatchConfig) BatcherConfig() batch.Config {
	return batch.Config{
		MaxCount: bc.MaxCount,
		MaxDelay: time.Duration(bc.MaxDelayMs) * time.Millisecond,
		MaxBytes: bc.MaxBytes,
	}
}

// LoadConfig resolves config.json, unmarshals it, and applies environment
// overrides. When no config file exists anywhere, defaults apply.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	if configPath == "" {
		cfg := Default()
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if addr := strings.TrimSpace(os.Getenv(envServerAddr)); addr != "" {
		cfg.Server.Address = addr
	}
}

// findConfigPath resolves the active config file location.
//
// Precedence is MUDLINK_CONFIG first, then cwd-local fallback paths. An
// empty return with nil error means no config file exists.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("MUDLINK_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("MUDLINK_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", nil
}
