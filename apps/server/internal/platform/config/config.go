// Package config loads the server configuration from an optional YAML file
// with environment variable overrides. Environment wins over file, file wins
// over defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration of the sync server.
type Config struct {
	// Port the HTTP API listens on.
	Port string `yaml:"port"`
	// GitHubBaseURL overrides the GitHub API endpoint. Empty means the
	// public https://api.github.com; point it at the mock-github app for
	// local development.
	GitHubBaseURL string `yaml:"githubBaseUrl"`
	// GitHubToken authenticates every GitHub call with one fixed personal
	// access token instead of per-user credentials. Development convenience.
	GitHubToken string `yaml:"githubToken"`
	// GitHubAppID, GitHubAppInstallationID and GitHubAppKeyPath select
	// GitHub App installation auth when the app id is set. App auth takes
	// precedence over GitHubToken.
	GitHubAppID             int64  `yaml:"githubAppId"`
	GitHubAppInstallationID int64  `yaml:"githubAppInstallationId"`
	GitHubAppKeyPath        string `yaml:"githubAppKeyPath"`
	// CredentialKey is the encryption key material for stored tokens. A
	// 64-hex-char value is used as the raw 32-byte key; anything else is
	// hashed. Read live through KeySource so rotation does not need a
	// restart when driven by the environment.
	CredentialKey string `yaml:"credentialKey"`
	// RedisAddr selects the Redis credential store when set.
	RedisAddr string `yaml:"redisAddr"`
	// PostgresURL selects the Postgres credential store when set. Redis
	// takes precedence when both are configured.
	PostgresURL string `yaml:"postgresUrl"`
	// TemporalHostPort is the Temporal frontend address.
	TemporalHostPort string `yaml:"temporalHostPort"`
	// OTelEnabled turns the OpenTelemetry exporters on.
	OTelEnabled bool `yaml:"otelEnabled"`
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:             "8080",
		TemporalHostPort: "localhost:7233",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No file is fine; env and defaults carry the config.
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setIfPresent(&cfg.Port, "PORT")
	setIfPresent(&cfg.GitHubBaseURL, "GITHUB_BASE_URL")
	setIfPresent(&cfg.GitHubToken, "GITHUB_TOKEN")
	setIfPresent(&cfg.GitHubAppKeyPath, "GITHUB_APP_KEY_PATH")
	setIfPresent(&cfg.CredentialKey, "CREDENTIAL_KEY")
	setIfPresent(&cfg.RedisAddr, "REDIS_ADDR")
	setIfPresent(&cfg.PostgresURL, "POSTGRES_URL")
	setIfPresent(&cfg.TemporalHostPort, "TEMPORAL_HOSTPORT")
	if err := setInt64IfPresent(&cfg.GitHubAppID, "GITHUB_APP_ID"); err != nil {
		return err
	}
	if err := setInt64IfPresent(&cfg.GitHubAppInstallationID, "GITHUB_APP_INSTALLATION_ID"); err != nil {
		return err
	}
	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		cfg.OTelEnabled = v == "true"
	}
	return nil
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt64IfPresent(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}

// KeySource returns the current credential key material. The environment is
// consulted on every call so a rotated CREDENTIAL_KEY takes effect without a
// restart; the file value is the fallback.
func (c *Config) KeySource() string {
	if v := os.Getenv("CREDENTIAL_KEY"); v != "" {
		return v
	}
	return c.CredentialKey
}
