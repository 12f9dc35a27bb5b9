// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Environment names accepted in server.environment (NODE_ENV).
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// DevSessionSecret is the session secret used when SESSION_SECRET is unset.
// Validate rejects it in production.
const DevSessionSecret = "mix-development-session-secret-change-me"

// Config is the root configuration. Field tags name the koanf paths.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Session  SessionConfig  `koanf:"session"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Security SecurityConfig `koanf:"security"`
	Events   EventsConfig   `koanf:"events"`
	Realtime RealtimeConfig `koanf:"realtime"`
	Audit    AuditConfig    `koanf:"audit"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener and static asset serving.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Environment     string        `koanf:"environment"`
	StaticDir       string        `koanf:"static_dir"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SessionConfig controls the mix.session cookie and its backing store.
type SessionConfig struct {
	Secret          string        `koanf:"secret"`
	CookieName      string        `koanf:"cookie_name"`
	TTL             time.Duration `koanf:"ttl"`
	Store           string        `koanf:"store"` // memory or badger
	StorePath       string        `koanf:"store_path"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// DatabaseConfig selects the storage backend. An empty URL keeps everything
// in memory.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	MaxConns       int           `koanf:"max_conns"`
	MinConns       int           `koanf:"min_conns"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// AuthConfig covers Google sign-in and the admin back office.
type AuthConfig struct {
	GoogleClientID string        `koanf:"google_client_id"`
	GoogleIssuer   string        `koanf:"google_issuer"`
	GoogleJWKSURL  string        `koanf:"google_jwks_url"`
	AdminUsername  string        `koanf:"admin_username"`
	AdminPassword  string        `koanf:"admin_password"`
	AdminRole      string        `koanf:"admin_role"`
	JWTSecret      string        `koanf:"jwt_secret"`
	TokenTTL       time.Duration `koanf:"token_ttl"`
	PolicyPath     string        `koanf:"policy_path"`
}

// SecurityConfig holds CORS and rate limiting.
type SecurityConfig struct {
	CORSOrigins           []string      `koanf:"cors_origins"`
	RateLimitRequests     int           `koanf:"rate_limit_requests"`
	RateLimitWindow       time.Duration `koanf:"rate_limit_window"`
	AuthRateLimitRequests int           `koanf:"auth_rate_limit_requests"`
	RateLimitDisabled     bool          `koanf:"rate_limit_disabled"`
}

// EventsConfig selects the event bus backend: memory, nats or embedded.
type EventsConfig struct {
	Backend      string `koanf:"backend"`
	NATSURL      string `koanf:"nats_url"`
	EmbeddedHost string `koanf:"embedded_host"`
	EmbeddedPort int    `koanf:"embedded_port"`
	BufferSize   int    `koanf:"buffer_size"`

	// WALPath enables the write-ahead log for events that fail to publish.
	WALPath string `koanf:"wal_path"`
}

// RealtimeConfig tunes the /ws endpoint.
type RealtimeConfig struct {
	WriteWait         time.Duration `koanf:"write_wait"`
	PongWait          time.Duration `koanf:"pong_wait"`
	MaxMessageSize    int64         `koanf:"max_message_size"`
	MessagesPerSecond float64       `koanf:"messages_per_second"`
	MessageBurst      int           `koanf:"message_burst"`
}

// AuditConfig sizes the back-office audit trail. Retention of zero keeps
// events until Capacity evicts them.
type AuditConfig struct {
	Retention  time.Duration `koanf:"retention"`
	Capacity   int           `koanf:"capacity"`
	BufferSize int           `koanf:"buffer_size"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether NODE_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// IsDevelopment reports whether NODE_ENV is development or unset.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment || c.Server.Environment == ""
}

// Addr returns host:port for http.Server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// AdminTokenSecret is the HMAC key for admin bearer tokens. It falls back to
// the session secret so a single secret is enough for small deployments.
func (c *Config) AdminTokenSecret() string {
	if c.Auth.JWTSecret != "" {
		return c.Auth.JWTSecret
	}
	return c.Session.Secret
}

// AdminEnabled reports whether admin credentials were configured.
func (c *Config) AdminEnabled() bool {
	return c.Auth.AdminUsername != "" && c.Auth.AdminPassword != ""
}

// UsesPostgres reports whether DATABASE_URL is set.
func (c *Config) UsesPostgres() bool {
	return c.Database.URL != ""
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
