// Package config resolves runtime settings from defaults, an optional config
// file, .env files and OLP_* environment variables, in increasing priority.
// Command-line flags bound by the CLI take precedence over all of them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix prefixes every environment variable read by New.
const EnvPrefix = "OLP"

// Keys.
const (
	KeyDB         = "db"
	KeyFormat     = "format"
	KeyVerbose    = "verbose"
	KeyBcryptCost = "bcrypt_cost"
	KeyConfigFile = "config"
)

// Config is the resolved configuration.
type Config struct {
	DBPath     string `mapstructure:"db"`
	Format     string `mapstructure:"format"`
	Verbose    bool   `mapstructure:"verbose"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

// New returns a viper instance with defaults and environment binding. It does
// not read any file.
func New() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault(KeyDB, "olp.db")
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyBcryptCost, bcrypt.DefaultCost)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Files that do not exist are skipped; variables already set
// are not overridden.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return fmt.Errorf("config: stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// ReadFile merges the config file at path into v. An empty path looks for
// olp.yaml in the working directory and is not an error when none exists.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("olp")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load unmarshals v into a Config and checks it.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("config: db path is empty")
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: invalid format %q: must be one of [text json]", c.Format)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: bcrypt_cost %d out of range [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
