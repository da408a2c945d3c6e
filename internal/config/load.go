package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// flagValues holds raw flag input until every other source is applied.
type flagValues struct {
	server, timeout, logFile, logLevel, logFormat, theme string
	group                                                bool
}

// registerFlags adds the configuration flags to fs.
func registerFlags(fs *flag.FlagSet, fv *flagValues) {
	fs.StringVar(&fv.server, "server", "", "todo service base URL")
	fs.StringVar(&fv.timeout, "timeout", "", "per-request timeout (e.g. 5s)")
	fs.StringVar(&fv.logFile, "log-file", "", "log file path, - for stderr")
	fs.StringVar(&fv.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&fv.logFormat, "log-format", "", "text, json or logfmt")
	fs.StringVar(&fv.theme, "theme", "", "classic, neon or mono")
	fs.BoolVar(&fv.group, "group", false, "group list output by pending/done")
}

// Load resolves the configuration and returns it with the positional args
// left after flag parsing.
func Load(fs *flag.FlagSet, args []string) (*Config, []string, error) {
	var fv flagValues
	registerFlags(fs, &fv)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	// .env may set TADA_HOME, so it is read before the state directory is resolved.
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, nil, err
	}
	dir, err := HomeDir()
	if err != nil {
		return nil, nil, err
	}
	cfg := &Config{}
	setDefaults(cfg, dir)

	if err := loadConfigFile(cfg, filepath.Join(dir, UserConfigFile)); err != nil {
		return nil, nil, err
	}
	if err := loadConfigFile(cfg, ProjectConfigFile); err != nil {
		return nil, nil, err
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, nil, err
	}
	if err := applyFlags(cfg, fs, fv); err != nil {
		return nil, nil, err
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// loadConfigFile decodes a TOML file over cfg. A missing file is skipped.
func loadConfigFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("loading config file %s: unknown keys %v", path, undecoded)
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// loadFromEnv overrides config from TADA_* environment variables.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TADA_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv("TADA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TADA_TIMEOUT: %w", err)
		}
		cfg.Timeout = Duration{d}
	}
	if v := os.Getenv("TADA_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("TADA_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = strings.ToLower(v)
	}
	if v := os.Getenv("TADA_GROUP"); v != "" {
		cfg.Group = boolFromString(v)
	}
	return nil
}

// applyFlags copies only the flags that were set on the command line.
func applyFlags(cfg *Config, fs *flag.FlagSet, fv flagValues) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.Server = fv.server
		case "timeout":
			d, perr := time.ParseDuration(fv.timeout)
			if perr != nil {
				err = fmt.Errorf("-timeout: %w", perr)
				return
			}
			cfg.Timeout = Duration{d}
		case "log-file":
			cfg.LogFile = fv.logFile
		case "log-level":
			cfg.LogLevel = strings.ToLower(fv.logLevel)
		case "log-format":
			cfg.LogFormat = strings.ToLower(fv.logFormat)
		case "theme":
			cfg.Theme = strings.ToLower(fv.theme)
		case "group":
			cfg.Group = fv.group
		}
	})
	return err
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
