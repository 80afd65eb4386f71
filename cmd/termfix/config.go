package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hazyhaar/termfix/pkg/terms"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "TERMFIX_CONFIG"

type config struct {
	TermsPath     string        `yaml:"terms_path"`
	HistoryDB     string        `yaml:"history_db"`
	Addr          string        `yaml:"addr"`
	CertFile      string        `yaml:"cert_file"`
	KeyFile       string        `yaml:"key_file"`
	WatchInterval time.Duration `yaml:"watch_interval"`
	LogLevel      string        `yaml:"log_level"`
}

func defaultConfig() config {
	return config{
		HistoryDB:     filepath.Join(filepath.Dir(terms.DefaultPath()), "term-history.db"),
		Addr:          ":8443",
		WatchInterval: 2 * time.Second,
		LogLevel:      "info",
	}
}

func configPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return terms.ExpandHome(p)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "termfix.yaml"
	}
	return filepath.Join(dir, "termfix", "config.yaml")
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// vars exposes the config as kong defaults, so flags and env override it.
func (c config) vars() kong.Vars {
	return kong.Vars{
		"history_db":     c.HistoryDB,
		"addr":           c.Addr,
		"cert_file":      c.CertFile,
		"key_file":       c.KeyFile,
		"watch_interval": c.WatchInterval.String(),
		"log_level":      c.LogLevel,
	}
}

// termsPathFunc resolves the dictionary on every call: the environment
// override first, then the configured path, then the default.
func termsPathFunc(configured string) func() string {
	return func() string {
		if v := strings.TrimSpace(os.Getenv(terms.EnvTermsPath)); v != "" {
			return terms.ExpandHome(v)
		}
		if configured != "" {
			return terms.ExpandHome(configured)
		}
		return terms.DefaultPath()
	}
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}
