package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg != defaultConfig() {
		t.Errorf("missing file should give defaults, got %+v", cfg)
	}

	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("terms_path: ~/terms.json\naddr: 127.0.0.1:9443\nwatch_interval: 500ms\n"), 0o644)
	cfg, err = loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.TermsPath != "~/terms.json" || cfg.Addr != "127.0.0.1:9443" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.WatchInterval != 500*time.Millisecond {
		t.Errorf("WatchInterval = %v", cfg.WatchInterval)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unset keys should keep defaults, LogLevel = %q", cfg.LogLevel)
	}

	os.WriteFile(path, []byte("addr: [unclosed\n"), 0o644)
	if _, err := loadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfigPath_Env(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/termfix.yaml")
	if got := configPath(); got != "/etc/termfix.yaml" {
		t.Errorf("configPath = %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"WARN", slog.LevelWarn, true},
		{" error ", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("parseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestNewApp(t *testing.T) {
	dir := t.TempDir()
	c := &cli{
		Terms:     filepath.Join(dir, "terms.json"),
		HistoryDB: filepath.Join(dir, "history.db"),
		LogLevel:  "error",
	}
	a, err := newApp(c, defaultConfig())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()

	if a.norm.Path() != c.Terms {
		t.Errorf("Path = %q", a.norm.Path())
	}
	if a.hist == nil {
		t.Fatal("history not opened")
	}
	if _, err := a.norm.AddTerm("Claude Code", []string{"Cloudcode"}); err != nil {
		t.Fatalf("AddTerm: %v", err)
	}
	if n, _ := a.hist.Count(); n != 1 {
		t.Errorf("history count = %d, want 1", n)
	}
}

func TestNewApp_TermsPathPrecedence(t *testing.T) {
	dir := t.TempDir()
	fromFlag := filepath.Join(dir, "from-flag.json")
	fromEnv := filepath.Join(dir, "from-env.json")
	fromConfig := filepath.Join(dir, "from-config.json")

	cfg := defaultConfig()
	cfg.TermsPath = fromConfig

	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag wins", fromFlag, fromEnv, fromFlag},
		{"env over config", "", fromEnv, fromEnv},
		{"config without env", "", "", fromConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TERM_FIXER_TERMS_PATH", tt.env)
			a, err := newApp(&cli{Terms: tt.flag, LogLevel: "error"}, cfg)
			if err != nil {
				t.Fatalf("newApp: %v", err)
			}
			defer a.close()
			if got := a.norm.Path(); got != tt.want {
				t.Errorf("Path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewApp_EnvReadOnEveryCall(t *testing.T) {
	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.TermsPath = filepath.Join(dir, "from-config.json")

	a, err := newApp(&cli{LogLevel: "error"}, cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()

	t.Setenv("TERM_FIXER_TERMS_PATH", filepath.Join(dir, "later.json"))
	if _, err := a.norm.AddTerm("Claude Code", []string{"Cloudcode"}); err != nil {
		t.Fatalf("AddTerm: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "later.json")); err != nil {
		t.Errorf("add did not follow the env override: %v", err)
	}
	if _, err := os.Stat(cfg.TermsPath); !os.IsNotExist(err) {
		t.Errorf("configured file was written: %v", err)
	}
}
