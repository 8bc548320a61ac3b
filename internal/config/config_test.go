package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	uploads := filepath.Join(t.TempDir(), "uploads")
	dir := writeConfig(t, `
server:
  port: "9000"
database:
  driver: sqlite
  path: test.db
jwt:
  secret: short
storage:
  type: local
  local_path: `+uploads+`
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "9000" || cfg.Server.Mode != "debug" {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.JWT.ExpireTime != 24*time.Hour {
		t.Fatalf("expected 24h token lifetime, got %s", cfg.JWT.ExpireTime)
	}
	if !cfg.Grading.RequireComplete || !cfg.Exam.ExposeOptions {
		t.Fatalf("unexpected policy defaults: %+v %+v", cfg.Grading, cfg.Exam)
	}
	if cfg.Exam.CacheTTL() != 5*time.Minute {
		t.Fatalf("expected 5m cache ttl, got %s", cfg.Exam.CacheTTL())
	}
	if cfg.RateLimit.MaxRequests != 600 || cfg.RateLimit.WindowMinutes != 1 {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
	if _, err := os.Stat(uploads); err != nil {
		t.Fatalf("expected local storage dir to be created: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
storage:
  type: local
  local_path: `+t.TempDir()+`
jwt:
  secret: short
  expire_hours: 2
grading:
  require_complete: false
exam:
  expose_options: false
  cache_ttl_seconds: 0
cors:
  allowed_origins:
    - https://exam.example.com
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWT.ExpireTime != 2*time.Hour {
		t.Fatalf("expected 2h, got %s", cfg.JWT.ExpireTime)
	}
	if cfg.Grading.RequireComplete || cfg.Exam.ExposeOptions || cfg.Exam.CacheTTL() != 0 {
		t.Fatalf("overrides not applied: %+v %+v", cfg.Grading, cfg.Exam)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://exam.example.com" {
		t.Fatalf("unexpected cors: %+v", cfg.CORS)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"debug short secret", Config{Server: ServerConfig{Mode: "debug"}, Database: DatabaseConfig{Driver: "mysql"}, JWT: JWTConfig{Secret: "x"}}, false},
		{"release short secret", Config{Server: ServerConfig{Mode: "release"}, Database: DatabaseConfig{Driver: "mysql"}, JWT: JWTConfig{Secret: "x"}}, true},
		{"unknown driver", Config{Database: DatabaseConfig{Driver: "oracle"}}, true},
		{"negative ttl", Config{Database: DatabaseConfig{Driver: "sqlite"}, Exam: ExamConfig{CacheTTLSeconds: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
