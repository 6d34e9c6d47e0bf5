// Package config loads the service configuration
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix prefixes every environment override, e.g. COURSES_JWT_SECRET.
const EnvPrefix = "COURSES"

// Config is the root of the configuration
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	JWT      JWTConfig       `mapstructure:"jwt"`
	Log      LogConfig       `mapstructure:"log"`
	Catalog  CatalogConfig   `mapstructure:"catalog"`
	Accounts []AccountConfig `mapstructure:"accounts"`
}

// ServerConfig configures the listeners
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	GRPCPort        int           `mapstructure:"grpc_port"`        // health and reflection only
	CORSOrigin      string        `mapstructure:"cors_origin"`      // browser frontend origin
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // drain window for in-flight requests
}

// JWTConfig configures session tokens
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
	Issuer     string        `mapstructure:"issuer"` // checked on every parsed token
}

// LogConfig configures logging
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CatalogConfig points at the optional seed catalog
type CatalogConfig struct {
	SeedFile string `mapstructure:"seed_file"` // empty means start with an empty catalog
}

// AccountConfig provisions an account at startup. PasswordHash is a bcrypt
// hash, see the hash-password command.
type AccountConfig struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
	Role         string `mapstructure:"role"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.cors_origin", "http://localhost:5173")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", 24*time.Hour)
	v.SetDefault("jwt.issuer", "course-catalog")
	v.SetDefault("log.level", "info")
	v.SetDefault("catalog.seed_file", "")
}

// LoadConfig reads filename (YAML) when given, then applies COURSES_*
// environment overrides.
func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment overrides, e.g. COURSES_SERVER_PORT
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the YAML file when one is given
	if filename != "" {
		v.SetConfigFile(filename)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe default.
func (c *Config) Validate() error {
	var errs error
	if c.JWT.Secret == "" {
		errs = multierr.Append(errs, errors.New("jwt.secret must be set"))
	}
	if c.JWT.Expiration <= 0 {
		errs = multierr.Append(errs, errors.New("jwt.expiration must be positive"))
	}
	if c.Server.Port <= 0 {
		errs = multierr.Append(errs, errors.New("server.port must be positive"))
	}
	for i, a := range c.Accounts {
		if a.Email == "" || a.PasswordHash == "" {
			errs = multierr.Append(errs, fmt.Errorf("accounts[%d]: email and password_hash are required", i))
		}
		if a.Role != "admin" && a.Role != "student" {
			errs = multierr.Append(errs, fmt.Errorf("accounts[%d]: role must be admin or student", i))
		}
	}
	if errs != nil {
		return fmt.Errorf("invalid configuration: %w", errs)
	}
	return nil
}
