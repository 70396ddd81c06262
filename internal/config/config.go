package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds process configuration values.
type Config struct {
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
	Remote   RemoteConfig `mapstructure:"remote" yaml:"remote"`
	HTTP     HTTPConfig   `mapstructure:"http" yaml:"http"`
}

// RemoteConfig describes how to reach and authenticate against the TS5
// Remote Apps endpoint, and how to behave when it goes away.
type RemoteConfig struct {
	Host        string `mapstructure:"host" yaml:"host"`
	Port        int    `mapstructure:"port" yaml:"port"`
	APIKey      string `mapstructure:"api_key" yaml:"api_key"`
	Identifier  string `mapstructure:"identifier" yaml:"identifier"`
	AppVersion  string `mapstructure:"app_version" yaml:"app_version"`
	Name        string `mapstructure:"name" yaml:"name"`
	Description string `mapstructure:"description" yaml:"description"`

	ConnectTimeout        time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	AuthTimeout           time.Duration `mapstructure:"auth_timeout" yaml:"auth_timeout"`
	PingInterval          time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	ReconnectInitialDelay time.Duration `mapstructure:"reconnect_initial_delay" yaml:"reconnect_initial_delay"`
	ReconnectMaxDelay     time.Duration `mapstructure:"reconnect_max_delay" yaml:"reconnect_max_delay"`
	BreakerFailures       uint32        `mapstructure:"breaker_failures" yaml:"breaker_failures"`
	BreakerOpenTimeout    time.Duration `mapstructure:"breaker_open_timeout" yaml:"breaker_open_timeout"`
}

// HTTPConfig configures the snapshot API.
type HTTPConfig struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience       string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	Metrics           bool          `mapstructure:"metrics" yaml:"metrics"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Remote: RemoteConfig{
			Host:                  "localhost",
			Port:                  5899,
			Identifier:            "de.tealfire.obs",
			AppVersion:            "2.2.0",
			Name:                  "TeamSpeak OBS Overlay",
			Description:           "Mirrors TeamSpeak channel state for overlays",
			ConnectTimeout:        10 * time.Second,
			AuthTimeout:           30 * time.Second,
			PingInterval:          30 * time.Second,
			ReconnectInitialDelay: time.Second,
			ReconnectMaxDelay:     32 * time.Second,
			BreakerFailures:       5,
			BreakerOpenTimeout:    time.Minute,
		},
		HTTP: HTTPConfig{
			Enabled:           true,
			Addr:              "127.0.0.1:8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			JWTIssuer:         "ts5-mirror",
			JWTAudience:       "ts5-mirror",
			Metrics:           true,
		},
	}
}

// RemoteURL is the WebSocket address of the remote client.
func (r RemoteConfig) RemoteURL() string {
	return "ws://" + net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Validate rejects settings the session cannot run with.
func (c Config) Validate() error {
	if c.Remote.Host == "" {
		return fmt.Errorf("remote.host is required")
	}
	if c.Remote.Port <= 0 || c.Remote.Port > 65535 {
		return fmt.Errorf("remote.port %d out of range", c.Remote.Port)
	}
	if c.Remote.ReconnectInitialDelay <= 0 || c.Remote.ReconnectMaxDelay < c.Remote.ReconnectInitialDelay {
		return fmt.Errorf("reconnect delays must satisfy 0 < initial <= max")
	}
	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required when http is enabled")
	}
	return nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Remote.Host != "" {
		c.Remote.Host = other.Remote.Host
	}
	if other.Remote.Port != 0 {
		c.Remote.Port = other.Remote.Port
	}
	if other.Remote.APIKey != "" {
		c.Remote.APIKey = other.Remote.APIKey
	}
	if other.Remote.ConnectTimeout != 0 {
		c.Remote.ConnectTimeout = other.Remote.ConnectTimeout
	}
	if other.Remote.AuthTimeout != 0 {
		c.Remote.AuthTimeout = other.Remote.AuthTimeout
	}
	if other.Remote.ReconnectMaxDelay != 0 {
		c.Remote.ReconnectMaxDelay = other.Remote.ReconnectMaxDelay
	}
	if other.HTTP.Addr != "" {
		c.HTTP.Addr = other.HTTP.Addr
	}
	if other.HTTP.JWTSecret != "" {
		c.HTTP.JWTSecret = other.HTTP.JWTSecret
	}
	if other.HTTP.ShutdownTimeout != 0 {
		c.HTTP.ShutdownTimeout = other.HTTP.ShutdownTimeout
	}
}
