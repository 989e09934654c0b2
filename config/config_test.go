package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rushteam/stresskit/core"
	"github.com/rushteam/stresskit/store"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":8000" {
		t.Errorf("Server.Addr = %q, want :8000", cfg.Server.Addr)
	}
	if cfg.History.Backend != BackendMemory || cfg.History.Capacity != 1000 {
		t.Errorf("History = %+v, want memory/1000", cfg.History)
	}
	if !cfg.Rules.Enabled {
		t.Error("Rules.Enabled = false, want true by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v for defaults", err)
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := Default()
	if got := cfg.Server.ReadTimeout(); got != 10*time.Second {
		t.Errorf("ReadTimeout() = %v, want 10s", got)
	}
	if got := cfg.Server.WriteTimeout(); got != 30*time.Second {
		t.Errorf("WriteTimeout() = %v, want 30s", got)
	}
	if got := cfg.Model.DownloadTimeout(); got != 5*time.Minute {
		t.Errorf("DownloadTimeout() = %v, want 5m", got)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stresskit.yaml")
	raw := `
server:
  addr: ":9000"
  cors_origins:
    - https://dashboard.example.com
model:
  path: /data/bundle.json
  url: https://www.dropbox.com/s/abc/bundle.json?dl=0
history:
  backend: redis
  redis_addr: localhost:6379
  capacity: 500
logging:
  env: development
  level: debug
rules:
  enabled: true
  extra:
    - name: writer_income_floor
      expr: record.job_sector != "Writer" || record.monthly_gig_income >= 100.0
      message: writer income must be at least 100
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://dashboard.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Model.Path != "/data/bundle.json" || cfg.Model.URL == "" {
		t.Errorf("Model = %+v", cfg.Model)
	}
	if cfg.History.Backend != BackendRedis || cfg.History.Capacity != 500 {
		t.Errorf("History = %+v", cfg.History)
	}
	if cfg.Logging.Env != "development" || cfg.Logging.Level != "debug" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if len(cfg.Rules.Extra) != 1 || cfg.Rules.Extra[0].Name != "writer_income_floor" {
		t.Errorf("Rules.Extra = %+v, want one custom rule", cfg.Rules.Extra)
	}
	// Values absent from the file keep their defaults.
	if cfg.Server.ReadTimeoutSeconds != 10 {
		t.Errorf("ReadTimeoutSeconds = %d, want default 10", cfg.Server.ReadTimeoutSeconds)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() error = nil for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() error = nil for malformed yaml")
	}
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("STRESSKIT_ADDR", ":7070")
	t.Setenv("STRESSKIT_HISTORY_CAPACITY", "250")
	t.Setenv("STRESSKIT_RULES_ENABLED", "false")
	t.Setenv("STRESSKIT_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Server.Addr = %q, want :7070", cfg.Server.Addr)
	}
	if cfg.History.Capacity != 250 {
		t.Errorf("History.Capacity = %d, want 250", cfg.History.Capacity)
	}
	if cfg.Rules.Enabled {
		t.Error("Rules.Enabled = true, want env override false")
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
}

func TestEnvOverlayAccumulatesErrors(t *testing.T) {
	t.Setenv("STRESSKIT_HISTORY_CAPACITY", "many")
	t.Setenv("STRESSKIT_REDIS_DB", "zero")

	_, err := Load("")
	if err == nil {
		t.Fatal("Load() error = nil for invalid env values")
	}
	msg := err.Error()
	if !strings.Contains(msg, "STRESSKIT_HISTORY_CAPACITY") || !strings.Contains(msg, "STRESSKIT_REDIS_DB") {
		t.Errorf("error = %q, want both invalid keys reported", msg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "empty addr",
			mutate: func(c *Config) { c.Server.Addr = "" },
			want:   "server.addr",
		},
		{
			name:   "empty model path",
			mutate: func(c *Config) { c.Model.Path = "" },
			want:   "model.path",
		},
		{
			name:   "unknown backend",
			mutate: func(c *Config) { c.History.Backend = "mongo" },
			want:   "history.backend",
		},
		{
			name: "redis backend without addr",
			mutate: func(c *Config) {
				c.History.Backend = BackendRedis
				c.History.RedisAddr = ""
			},
			want: "history.redis_addr",
		},
		{
			name:   "negative capacity",
			mutate: func(c *Config) { c.History.Capacity = -1 },
			want:   "history.capacity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %q, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestNewHistoryStore(t *testing.T) {
	history, err := NewHistoryStore(HistoryConfig{Backend: BackendMemory, Capacity: 10})
	if err != nil {
		t.Fatalf("NewHistoryStore(memory) error = %v", err)
	}
	if history.Name() != "memory" {
		t.Errorf("Name() = %q, want memory", history.Name())
	}

	if _, err := NewHistoryStore(HistoryConfig{Backend: "mongo"}); err == nil {
		t.Error("NewHistoryStore(mongo) error = nil, want unsupported backend")
	}

	if _, err := NewHistoryStore(HistoryConfig{Backend: BackendRedis, RedisAddr: "127.0.0.1:0"}); err == nil {
		t.Error("NewHistoryStore(redis) error = nil, want connect failure")
	}
}

func TestRegisterHistoryBackend(t *testing.T) {
	RegisterHistoryBackend("stub", func(cfg HistoryConfig) (core.HistoryStore, error) {
		return store.NewMemoryHistory(cfg.Capacity), nil
	})

	names := SupportedHistoryBackends()
	found := false
	for _, n := range names {
		if n == "stub" {
			found = true
		}
	}
	if !found {
		t.Fatalf("SupportedHistoryBackends() = %v, want to include stub", names)
	}

	history, err := NewHistoryStore(HistoryConfig{Backend: "stub", Capacity: 5})
	if err != nil {
		t.Fatalf("NewHistoryStore(stub) error = %v", err)
	}
	if history == nil {
		t.Fatal("NewHistoryStore(stub) = nil")
	}

	// Registered extension backends pass structural validation too.
	cfg := Default()
	cfg.History.Backend = "stub"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v for a registered backend", err)
	}
}
