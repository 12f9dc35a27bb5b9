// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mix/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Environment:     EnvDevelopment,
			StaticDir:       "./dist/public",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			Secret:          DevSessionSecret,
			CookieName:      "mix.session",
			TTL:             24 * time.Hour,
			Store:           "memory",
			StorePath:       "/data/sessions",
			CleanupInterval: 15 * time.Minute,
		},
		Database: DatabaseConfig{
			MaxConns:       10,
			MinConns:       1,
			ConnectTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			GoogleIssuer:  "https://accounts.google.com",
			GoogleJWKSURL: "https://www.googleapis.com/oauth2/v3/certs",
			AdminRole:     "admin",
			TokenTTL:      12 * time.Hour,
		},
		Security: SecurityConfig{
			CORSOrigins:           []string{"http://localhost:5173", "http://localhost:5000"},
			RateLimitRequests:     300,
			RateLimitWindow:       time.Minute,
			AuthRateLimitRequests: 20,
		},
		Events: EventsConfig{
			Backend:      "memory",
			NATSURL:      "nats://127.0.0.1:4222",
			EmbeddedHost: "127.0.0.1",
			EmbeddedPort: 4222,
			BufferSize:   256,
		},
		Realtime: RealtimeConfig{
			WriteWait:         10 * time.Second,
			PongWait:          60 * time.Second,
			MaxMessageSize:    64 * 1024,
			MessagesPerSecond: 20,
			MessageBurst:      40,
		},
		Audit: AuditConfig{
			Retention:  90 * 24 * time.Hour,
			Capacity:   10000,
			BufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers configuration sources, highest priority last:
// struct defaults, then the YAML file, then environment variables.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0, 4)
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps upper-cased environment variable names (lower-cased here)
// to koanf paths. The first six keep the names the SPA tooling already uses.
var envMappings = map[string]string{
	"session_secret":        "session.secret",
	"node_env":              "server.environment",
	"database_url":          "database.url",
	"vite_google_client_id": "auth.google_client_id",
	"port":                  "server.port",
	"host":                  "server.host",

	"static_dir":       "server.static_dir",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	"session_ttl":        "session.ttl",
	"session_store":      "session.store",
	"session_store_path": "session.store_path",

	"database_max_conns": "database.max_conns",
	"database_min_conns": "database.min_conns",

	"google_client_id":  "auth.google_client_id",
	"google_issuer":     "auth.google_issuer",
	"google_jwks_url":   "auth.google_jwks_url",
	"admin_username":    "auth.admin_username",
	"admin_password":    "auth.admin_password",
	"admin_role":        "auth.admin_role",
	"jwt_secret":        "auth.jwt_secret",
	"admin_token_ttl":   "auth.token_ttl",
	"authz_policy_path": "auth.policy_path",

	"cors_origins":             "security.cors_origins",
	"rate_limit_requests":      "security.rate_limit_requests",
	"rate_limit_window":        "security.rate_limit_window",
	"auth_rate_limit_requests": "security.auth_rate_limit_requests",
	"disable_rate_limit":       "security.rate_limit_disabled",

	"events_backend":      "events.backend",
	"nats_url":            "events.nats_url",
	"nats_embedded_port":  "events.embedded_port",
	"events_buffer_size":  "events.buffer_size",
	"events_wal_path":     "events.wal_path",
	"ws_messages_per_sec": "realtime.messages_per_second",
	"ws_max_message_size": "realtime.max_message_size",
	"ws_message_burst":    "realtime.message_burst",

	"audit_retention": "audit.retention",
	"audit_capacity":  "audit.capacity",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns "" for unknown variables so unrelated environment
// does not leak into the config tree.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
