// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

// Package config loads Hostbeat configuration via Koanf v2 with
// layered sources: struct defaults, an optional YAML file, then
// environment variables (highest priority).
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Session       SessionConfig       `koanf:"session"`
	Sync          SyncConfig          `koanf:"sync"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Gateway       GatewayConfig       `koanf:"gateway"`
	Status        StatusConfig        `koanf:"status"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig locates the dashboard server this client talks to.
type ServerConfig struct {
	// URL is the dashboard server base URL, e.g. http://monitor:8000.
	URL string `koanf:"url"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `koanf:"timeout"`
}

// SessionConfig controls identity persistence.
type SessionConfig struct {
	// Store selects the backend: badger (persistent, default) or memory.
	Store string `koanf:"store"`

	// Path is the BadgerDB directory for the badger backend.
	Path string `koanf:"path"`
}

// SyncConfig tunes the synchronization controller. The debounce and
// settle delays were tuned empirically in the system this client
// replaces; they are knobs, not semantics.
type SyncConfig struct {
	// PollInterval is the period of the full-snapshot poller.
	PollInterval time.Duration `koanf:"poll_interval"`

	// PushDebounce delays the reload scheduled after a push event, so
	// server-side state settles before the re-fetch.
	PushDebounce time.Duration `koanf:"push_debounce"`

	// CreateSettle delays the reload scheduled after a successful
	// create, tolerating server-side eventual consistency.
	CreateSettle time.Duration `koanf:"create_settle"`
}

// NotificationsConfig tunes the transient notification list.
type NotificationsConfig struct {
	// TTL is how long a notification stays visible.
	TTL time.Duration `koanf:"ttl"`
}

// GatewayConfig tunes the HTTP gateway.
type GatewayConfig struct {
	// RateLimit caps outbound requests per second; 0 disables the
	// limiter.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the limiter burst size.
	RateBurst int `koanf:"rate_burst"`

	// BreakerEnabled wraps the gateway in a circuit breaker.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// StatusConfig controls the local read-only status listener.
type StatusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`

	// RateLimitReqs caps requests per client per window; 0 disables.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. The sync and
// notification durations match the system this client replaces:
// 500ms reload-after-push, 300ms reload-after-create, 5s notification
// time-to-live.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Store: "badger",
			Path:  "/data/hostbeat/session",
		},
		Sync: SyncConfig{
			PollInterval: 60 * time.Second,
			PushDebounce: 500 * time.Millisecond,
			CreateSettle: 300 * time.Millisecond,
		},
		Notifications: NotificationsConfig{
			TTL: 5 * time.Second,
		},
		Gateway: GatewayConfig{
			RateLimit:      10,
			RateBurst:      20,
			BreakerEnabled: true,
		},
		Status: StatusConfig{
			Enabled:         true,
			Host:            "127.0.0.1",
			Port:            8137,
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.url %q is not a valid URL", c.Server.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url scheme must be http or https, got %q", u.Scheme)
	}

	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Sync.PollInterval <= 0 {
		return fmt.Errorf("sync.poll_interval must be positive, got %v", c.Sync.PollInterval)
	}
	if c.Sync.PushDebounce < 0 || c.Sync.CreateSettle < 0 {
		return fmt.Errorf("sync debounce delays must not be negative")
	}
	if c.Notifications.TTL <= 0 {
		return fmt.Errorf("notifications.ttl must be positive, got %v", c.Notifications.TTL)
	}

	switch c.Session.Store {
	case "badger", "memory", "":
	default:
		return fmt.Errorf("session.store must be badger or memory, got %q", c.Session.Store)
	}
	if c.Session.Store != "memory" && c.Session.Path == "" {
		return fmt.Errorf("session.path is required for the badger store")
	}

	if c.Status.Enabled {
		if c.Status.Port <= 0 || c.Status.Port > 65535 {
			return fmt.Errorf("status.port %d out of range", c.Status.Port)
		}
	}

	if c.Gateway.RateLimit < 0 {
		return fmt.Errorf("gateway.rate_limit must not be negative")
	}
	if c.Gateway.RateLimit > 0 && c.Gateway.RateBurst <= 0 {
		return fmt.Errorf("gateway.rate_burst must be positive when rate limiting is on")
	}

	return nil
}
