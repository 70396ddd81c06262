package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envConfigDefaultPath = "TS5MIRROR_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix("TS5MIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("log_level", cfg.LogLevel)

	v.SetDefault("remote.host", cfg.Remote.Host)
	v.SetDefault("remote.port", cfg.Remote.Port)
	v.SetDefault("remote.api_key", cfg.Remote.APIKey)
	v.SetDefault("remote.identifier", cfg.Remote.Identifier)
	v.SetDefault("remote.app_version", cfg.Remote.AppVersion)
	v.SetDefault("remote.name", cfg.Remote.Name)
	v.SetDefault("remote.description", cfg.Remote.Description)
	v.SetDefault("remote.connect_timeout", cfg.Remote.ConnectTimeout)
	v.SetDefault("remote.auth_timeout", cfg.Remote.AuthTimeout)
	v.SetDefault("remote.ping_interval", cfg.Remote.PingInterval)
	v.SetDefault("remote.reconnect_initial_delay", cfg.Remote.ReconnectInitialDelay)
	v.SetDefault("remote.reconnect_max_delay", cfg.Remote.ReconnectMaxDelay)
	v.SetDefault("remote.breaker_failures", cfg.Remote.BreakerFailures)
	v.SetDefault("remote.breaker_open_timeout", cfg.Remote.BreakerOpenTimeout)

	v.SetDefault("http.enabled", cfg.HTTP.Enabled)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.read_header_timeout", cfg.HTTP.ReadHeaderTimeout)
	v.SetDefault("http.shutdown_timeout", cfg.HTTP.ShutdownTimeout)
	v.SetDefault("http.jwt_secret", cfg.HTTP.JWTSecret)
	v.SetDefault("http.jwt_issuer", cfg.HTTP.JWTIssuer)
	v.SetDefault("http.jwt_audience", cfg.HTTP.JWTAudience)
	v.SetDefault("http.metrics", cfg.HTTP.Metrics)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
