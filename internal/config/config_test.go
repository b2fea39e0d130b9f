package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/vbind/internal/errors"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Session.Store.Driver != DefaultStoreDriver {
		t.Errorf("Session.Store.Driver = %q, want %q", cfg.Session.Store.Driver, DefaultStoreDriver)
	}
	if cfg.ResumeWindow() != 10*time.Minute {
		t.Errorf("ResumeWindow = %v, want %v", cfg.ResumeWindow(), 10*time.Minute)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if err == nil || !strings.Contains(err.Error(), "E401") {
		t.Errorf("Expected E401 for missing config, got %v", err)
	}

	writeConfig(t, tmpDir, `{
  "template": "index.html",
  "model": "s3://bucket/model.yaml",
  "mount": "app",
  "ignorePrefixes": ["_", "$"],
  "server": {"port": 8080, "host": "0.0.0.0", "heartbeat": "5s"},
  "session": {"maxPerIP": 3, "store": {"driver": "bolt"}},
  "metrics": {"enabled": true},
  "s3": {"region": "eu-west-1", "pathStyle": true}
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if cfg.Mount != "app" {
		t.Errorf("Mount = %q, want %q", cfg.Mount, "app")
	}
	if len(cfg.IgnorePrefixes) != 2 {
		t.Errorf("IgnorePrefixes = %v, want 2 entries", cfg.IgnorePrefixes)
	}
	if cfg.Address() != "0.0.0.0:8080" {
		t.Errorf("Address = %q, want %q", cfg.Address(), "0.0.0.0:8080")
	}
	if cfg.Heartbeat() != 5*time.Second {
		t.Errorf("Heartbeat = %v, want 5s", cfg.Heartbeat())
	}
	if cfg.ReadTimeout() != 0 {
		t.Errorf("ReadTimeout = %v, want 0", cfg.ReadTimeout())
	}
	if cfg.Session.MaxPerIP != 3 {
		t.Errorf("Session.MaxPerIP = %d, want 3", cfg.Session.MaxPerIP)
	}
	if cfg.StorePath() != filepath.Join(tmpDir, "sessions.db") {
		t.Errorf("StorePath = %q, want %q", cfg.StorePath(), filepath.Join(tmpDir, "sessions.db"))
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != "vbind" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if !cfg.UsesS3() || cfg.S3.Region != "eu-west-1" || !cfg.S3.PathStyle {
		t.Errorf("S3 = %+v, UsesS3 = %v", cfg.S3, cfg.UsesS3())
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "not valid json")

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "E400") {
		t.Errorf("Expected E400 error, got: %v", err)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Template = "page.html"
	cfg.Server.Port = 9000

	if err := cfg.Save(); err == nil {
		t.Error("Expected error when saving without path")
	}
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Server.Port != 9000 || loaded.Template != "page.html" {
		t.Errorf("loaded = %+v", loaded)
	}

	loaded.Server.Port = 9001
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	reloaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.Server.Port != 9001 {
		t.Errorf("Server.Port = %d, want %d", reloaded.Server.Port, 9001)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no template", func(c *Config) { c.Template = "" }, "template"},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, "Port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"bad window", func(c *Config) { c.Session.ResumeWindow = "soon" }, "session.resumeWindow"},
		{"negative heartbeat", func(c *Config) { c.Server.Heartbeat = "-1s" }, "server.heartbeat"},
		{"bad driver", func(c *Config) { c.Session.Store.Driver = "redis" }, "redis"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "loud"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			cfg.Template = "index.html"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate should pass: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate should fail")
			}
			if !strings.Contains(err.Error(), "E400") {
				t.Errorf("expected E400, got %v", err)
			}
			var ve *errors.VangoError
			if !stderrors.As(err, &ve) {
				t.Fatalf("expected a VangoError, got %T", err)
			}
			if !strings.Contains(ve.Detail, tt.want) {
				t.Errorf("expected %q in %q", tt.want, ve.Detail)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := New()
	cfg.SaveTo(filepath.Join(tmpDir, ConfigFileName))

	tests := []struct {
		loc  string
		want string
	}{
		{"", ""},
		{"index.html", filepath.Join(tmpDir, "index.html")},
		{"./tpl/a.html", filepath.Join(tmpDir, "tpl/a.html")},
		{"/abs/a.html", "/abs/a.html"},
		{"s3://bucket/a.html", "s3://bucket/a.html"},
		{"file:///tmp/a.html", "file:///tmp/a.html"},
	}
	for _, tt := range tests {
		if got := cfg.Resolve(tt.loc); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.loc, got, tt.want)
		}
	}

	cfg.Template = "index.html"
	if got := cfg.TemplatePath(); got != filepath.Join(tmpDir, "index.html") {
		t.Errorf("TemplatePath = %q", got)
	}
	if got := cfg.ModelPath(); got != "" {
		t.Errorf("ModelPath = %q, want empty", got)
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(tmpDir) {
		t.Error("Exists should be false for empty directory")
	}
	writeConfig(t, tmpDir, "{}")
	if !Exists(tmpDir) {
		t.Error("Exists should be true after creating config")
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "a", "b", "c")
	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := FindProjectRoot(nestedDir); err == nil {
		t.Error("FindProjectRoot should fail when no config exists")
	}

	writeConfig(t, tmpDir, "{}")

	for _, start := range []string{nestedDir, filepath.Join(tmpDir, "a"), tmpDir} {
		root, err := FindProjectRoot(start)
		if err != nil {
			t.Fatalf("FindProjectRoot(%q) error: %v", start, err)
		}
		if root != tmpDir {
			t.Errorf("FindProjectRoot(%q) = %q, want %q", start, root, tmpDir)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Session: SessionConfig{Store: StoreConfig{Driver: "bolt"}}}
	cfg.applyDefaults()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Session.ResumeWindow != DefaultResumeWindow {
		t.Errorf("Session.ResumeWindow = %q, want %q", cfg.Session.ResumeWindow, DefaultResumeWindow)
	}
	if cfg.Session.Store.Path != "sessions.db" {
		t.Errorf("Session.Store.Path = %q, want sessions.db", cfg.Session.Store.Path)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}
