// Package config resolves tada settings.
//
// Sources, lowest priority first:
//  1. Defaults
//  2. User config file (~/.tada/config.toml, or $TADA_HOME/config.toml)
//  3. Project config file (.tada.toml in the working directory)
//  4. .env file in the working directory (never overrides the real environment;
//     read first so it can also set TADA_HOME)
//  5. Environment variables
//  6. CLI flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultServer    = "http://localhost:8080"
	DefaultTimeout   = 10 * time.Second
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultTheme     = "classic"

	UserConfigFile    = "config.toml"
	ProjectConfigFile = ".tada.toml"
	DotEnvFile        = ".env"
	LogFileName       = "tada.log"
)

// Config holds every setting the client needs.
type Config struct {
	Server    string   `toml:"server" validate:"required,url,startswith=http"`
	Timeout   Duration `toml:"timeout"`
	LogFile   string   `toml:"log_file"`
	LogLevel  string   `toml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string   `toml:"log_format" validate:"oneof=text json logfmt"`
	Theme     string   `toml:"theme" validate:"oneof=classic neon mono"`
	Group     bool     `toml:"group"`

	// Dir holds credentials, the user config file and the default log file.
	Dir string `toml:"-"`
}

// Duration is a time.Duration written as a string ("5s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// HomeDir returns the tada state directory: $TADA_HOME or ~/.tada.
func HomeDir() (string, error) {
	if v := os.Getenv("TADA_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

func setDefaults(cfg *Config, dir string) {
	cfg.Server = DefaultServer
	cfg.Timeout = Duration{DefaultTimeout}
	cfg.LogFile = filepath.Join(dir, LogFileName)
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Theme = DefaultTheme
	cfg.Dir = dir
}

var validate = validator.New()

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("invalid config: timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
