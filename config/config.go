package config

import (
	"crypto/rsa"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/ditoolkit/ssokit/internal/crypto"
)

// ServerConfig holds all configuration for the issuer.
// Tags use mapstructure for Viper unmarshalling and env for environment variable binding.
type ServerConfig struct {
	HTTPPort  string `mapstructure:"HTTP_PORT"`
	Issuer    string `mapstructure:"ISSUER"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	// Signing material
	SigningAlg     string `mapstructure:"SIGNING_ALG"`
	SigningKeyID   string `mapstructure:"SIGNING_KEY_ID"`
	PrivateKeyPath string `mapstructure:"PRIVATE_KEY_PATH"`

	// Expiry durations, configured in seconds
	AuthCodeTTLSec    int `mapstructure:"AUTH_CODE_TTL_SEC"`
	AccessTokenTTLSec int `mapstructure:"ACCESS_TOKEN_TTL_SEC"`
	IDTokenTTLSec     int `mapstructure:"ID_TOKEN_TTL_SEC"`
	CredentialsTTLSec int `mapstructure:"CREDENTIALS_TTL_SEC"`
	AuthSettingTTLSec int `mapstructure:"AUTH_SETTING_TTL_SEC"`
	SweepIntervalSec  int `mapstructure:"SWEEP_INTERVAL_SEC"`

	// Optional Redis backend for the expiring cache. When empty, the
	// in-process ttlcache backend is used.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Path to the application config file merged into the published
	// configuration artifact.
	AppConfigPath string `mapstructure:"APP_CONFIG_PATH"`
}

// SigningMaterial is the immutable, process-wide key material shared by the
// ID token signer. It is built once at startup and never mutated.
type SigningMaterial struct {
	Algorithm  string
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// AuthCodeTTL returns the authorization code lifetime as a duration.
func (c *ServerConfig) AuthCodeTTL() time.Duration {
	return time.Duration(c.AuthCodeTTLSec) * time.Second
}

// AccessTokenTTL returns the access token lifetime as a duration.
func (c *ServerConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLSec) * time.Second
}

// IDTokenTTL returns the ID token lifetime as a duration.
func (c *ServerConfig) IDTokenTTL() time.Duration {
	return time.Duration(c.IDTokenTTLSec) * time.Second
}

// CredentialsTTL returns the cached client-credentials lifetime.
func (c *ServerConfig) CredentialsTTL() time.Duration {
	return time.Duration(c.CredentialsTTLSec) * time.Second
}

// AuthSettingTTL returns the cached auth-setting lifetime.
func (c *ServerConfig) AuthSettingTTL() time.Duration {
	return time.Duration(c.AuthSettingTTLSec) * time.Second
}

// SweepInterval returns how often the expiry sweeper fires.
func (c *ServerConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("/etc/ssokit/")
	v.AddConfigPath("$HOME/.ssokit")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "9000")
	v.SetDefault("ISSUER", "http://localhost:9000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("SIGNING_ALG", "RS256")
	v.SetDefault("SIGNING_KEY_ID", "")
	v.SetDefault("PRIVATE_KEY_PATH", "")
	v.SetDefault("AUTH_CODE_TTL_SEC", 900)
	v.SetDefault("ACCESS_TOKEN_TTL_SEC", 900)
	v.SetDefault("ID_TOKEN_TTL_SEC", 900)
	v.SetDefault("CREDENTIALS_TTL_SEC", 900)
	v.SetDefault("AUTH_SETTING_TTL_SEC", 900)
	v.SetDefault("SWEEP_INTERVAL_SEC", 60)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("APP_CONFIG_PATH", "config.json")

	if err := v.ReadInConfig(); err != nil {
		// ConfigFileNotFoundError is acceptable, means we use defaults/env vars.
		// Other errors (e.g., permission issues, malformed config) should be returned.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}

// LoadSigningMaterial builds the process-wide signing material from the
// configuration. A missing key path yields a freshly generated ephemeral
// key, suitable only for development; a malformed key or unsupported
// algorithm is a fatal configuration error.
func LoadSigningMaterial(cfg *ServerConfig) (*SigningMaterial, error) {
	if cfg.SigningAlg != "RS256" && cfg.SigningAlg != "RS384" && cfg.SigningAlg != "RS512" {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.SigningAlg)
	}

	var (
		key *rsa.PrivateKey
		err error
	)
	if cfg.PrivateKeyPath != "" {
		key, err = crypto.LoadPrivateKeyFile(cfg.PrivateKeyPath)
	} else {
		key, err = crypto.GenerateRSAKey()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	keyID := cfg.SigningKeyID
	if keyID == "" {
		keyID = uuid.NewString()
	}

	return &SigningMaterial{
		Algorithm:  cfg.SigningAlg,
		KeyID:      keyID,
		PrivateKey: key,
	}, nil
}
