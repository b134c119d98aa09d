// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"hostbeat.yaml",
	"hostbeat.yml",
	"/etc/hostbeat/config.yaml",
	"/etc/hostbeat/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "HOSTBEAT_CONFIG"

// Load builds the configuration from layered sources, lowest to
// highest priority: built-in defaults, an optional YAML file, then
// environment variables.
func Load() (*Config, error) {
	return LoadFromFile(findConfigFile())
}

// LoadFromFile is Load with an explicit config file path; empty means
// no file layer.
func LoadFromFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf config
// paths. Unmapped variables are skipped so random environment noise
// cannot pollute the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"hostbeat_server_url":      "server.url",
		"hostbeat_server_timeout":  "server.timeout",
		"hostbeat_session_store":   "session.store",
		"hostbeat_session_path":    "session.path",
		"hostbeat_poll_interval":   "sync.poll_interval",
		"hostbeat_push_debounce":   "sync.push_debounce",
		"hostbeat_create_settle":   "sync.create_settle",
		"hostbeat_notification_ttl": "notifications.ttl",
		"hostbeat_rate_limit":      "gateway.rate_limit",
		"hostbeat_rate_burst":      "gateway.rate_burst",
		"hostbeat_breaker_enabled": "gateway.breaker_enabled",
		"hostbeat_status_enabled":  "status.enabled",
		"hostbeat_status_host":     "status.host",
		"hostbeat_status_port":     "status.port",
		"log_level":                "logging.level",
		"log_format":               "logging.format",
		"log_caller":               "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
