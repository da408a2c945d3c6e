package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points every file source at empty temp dirs and clears TADA_* env.
func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home, work = t.TempDir(), t.TempDir()
	t.Setenv("TADA_HOME", home)
	for _, k := range []string{"TADA_SERVER", "TADA_TIMEOUT", "TADA_LOG_FILE", "TADA_LOG_LEVEL", "TADA_LOG_FORMAT", "TADA_THEME", "TADA_GROUP"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Chdir(work)
	return home, work
}

func load(t *testing.T, args ...string) (*Config, []string, error) {
	t.Helper()
	fs := flag.NewFlagSet("tada", flag.ContinueOnError)
	return Load(fs, args)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	home, _ := isolate(t)
	cfg, rest, err := load(t, "ls")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != DefaultServer {
		t.Errorf("Server: got %q, want %q", cfg.Server, DefaultServer)
	}
	if cfg.Timeout.Duration != DefaultTimeout {
		t.Errorf("Timeout: got %s, want %s", cfg.Timeout, DefaultTimeout)
	}
	if cfg.LogFile != filepath.Join(home, LogFileName) {
		t.Errorf("LogFile: got %q", cfg.LogFile)
	}
	if cfg.Theme != DefaultTheme || cfg.LogLevel != DefaultLogLevel || cfg.LogFormat != DefaultLogFormat {
		t.Errorf("got %+v", cfg)
	}
	if cfg.Dir != home {
		t.Errorf("Dir: got %q, want %q", cfg.Dir, home)
	}
	if len(rest) != 1 || rest[0] != "ls" {
		t.Errorf("args: got %v", rest)
	}
}

func TestPriority(t *testing.T) {
	home, work := isolate(t)
	writeFile(t, filepath.Join(home, UserConfigFile), `
server = "http://user.example"
timeout = "3s"
theme = "neon"
log_level = "debug"
`)
	writeFile(t, filepath.Join(work, ProjectConfigFile), `
server = "http://project.example/"
`)
	t.Setenv("TADA_THEME", "MONO")

	cfg, _, err := load(t)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "http://project.example" {
		t.Errorf("Server: got %q", cfg.Server)
	}
	if cfg.Timeout.Duration != 3*time.Second {
		t.Errorf("Timeout: got %s", cfg.Timeout)
	}
	if cfg.Theme != "mono" {
		t.Errorf("Theme: got %q, want mono", cfg.Theme)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q", cfg.LogLevel)
	}

	cfg, _, err = load(t, "-server", "https://flag.example", "-timeout", "250ms", "-group", "list")
	if err != nil {
		t.Fatalf("Load with flags: %v", err)
	}
	if cfg.Server != "https://flag.example" || cfg.Timeout.Duration != 250*time.Millisecond || !cfg.Group {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestDotEnv(t *testing.T) {
	_, work := isolate(t)
	writeFile(t, filepath.Join(work, DotEnvFile), "TADA_LOG_FORMAT=json\nTADA_SERVER=http://dotenv.example\n")
	t.Setenv("TADA_SERVER", "http://real-env.example")
	t.Cleanup(func() { os.Unsetenv("TADA_LOG_FORMAT") })

	cfg, _, err := load(t)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: got %q, want json from .env", cfg.LogFormat)
	}
	if cfg.Server != "http://real-env.example" {
		t.Errorf("Server: got %q, .env must not override the environment", cfg.Server)
	}
}

func TestDotEnvHome(t *testing.T) {
	_, work := isolate(t)
	os.Unsetenv("TADA_HOME")
	home := t.TempDir()
	writeFile(t, filepath.Join(home, UserConfigFile), `theme = "neon"`)
	writeFile(t, filepath.Join(work, DotEnvFile), "TADA_HOME="+home+"\n")

	cfg, _, err := load(t)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dir != home {
		t.Errorf("Dir: got %q, want %q from .env", cfg.Dir, home)
	}
	if cfg.Theme != "neon" {
		t.Errorf("Theme: got %q, want neon from %s", cfg.Theme, filepath.Join(home, UserConfigFile))
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
		file string
	}{
		{name: "bad server", args: []string{"-server", "not a url"}},
		{name: "ftp server", args: []string{"-server", "ftp://x.example"}},
		{name: "bad theme", env: map[string]string{"TADA_THEME": "sepia"}},
		{name: "bad level", args: []string{"-log-level", "loud"}},
		{name: "bad timeout flag", args: []string{"-timeout", "soon"}},
		{name: "zero timeout", args: []string{"-timeout", "0s"}},
		{name: "bad timeout env", env: map[string]string{"TADA_TIMEOUT": "x"}},
		{name: "unknown key", file: "colour = \"red\"\n"},
		{name: "bad toml", file: "server = \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, work := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				writeFile(t, filepath.Join(work, ProjectConfigFile), tt.file)
			}
			if _, _, err := load(t, tt.args...); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	b, _ := d.MarshalText()
	if !strings.EqualFold(string(b), "1m30s") {
		t.Errorf("MarshalText: got %s", b)
	}
}

func TestBoolFromString(t *testing.T) {
	for _, s := range []string{"1", "true", "YES", " on "} {
		if !boolFromString(s) {
			t.Errorf("boolFromString(%q): got false", s)
		}
	}
	for _, s := range []string{"", "0", "no", "off"} {
		if boolFromString(s) {
			t.Errorf("boolFromString(%q): got true", s)
		}
	}
}
