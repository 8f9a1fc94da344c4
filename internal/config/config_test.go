package config

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SETTINGS_FILE", "/tmp/ishare-test.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 7420 {
		t.Fatalf("expected default port, got %d", cfg.Port)
	}
	if cfg.SettingsBackend != BackendFile {
		t.Fatalf("expected file backend, got %s", cfg.SettingsBackend)
	}
	if cfg.ImgurAPIURL != DefaultImgurAPIURL {
		t.Fatalf("unexpected imgur url %s", cfg.ImgurAPIURL)
	}
	if cfg.ToastFade != 200*time.Millisecond {
		t.Fatalf("expected 200ms fade, got %s", cfg.ToastFade)
	}
	if cfg.Storage.Enabled() {
		t.Fatalf("storage should be disabled without endpoint")
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for short secret")
	}
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SETTINGS_BACKEND", "postgres")
	t.Setenv("DB_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without DB_DSN")
	}
}

func TestLoadParsesOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ALLOW_ORIGINS", "http://localhost:5173, ,*.urbanbyte.com.br")
	t.Setenv("DISPLAY_WIDTH", "2560")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.AllowOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.AllowOrigins)
	}
	if cfg.Display.Width != 2560 || cfg.Display.Height != 1080 {
		t.Fatalf("unexpected display %+v", cfg.Display)
	}
}

func TestLoadClientSkipsSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BIND_ADDR", "0.0.0.0")
	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BindAddr != "0.0.0.0" || cfg.JWTRefreshTTL != 30*24*time.Hour {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadLoginLimitAndArgon2(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("LOGIN_ATTEMPTS_PER_MINUTE", "6")
	t.Setenv("ARGON2_MEMORY_KIB", "32768")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RateLimitLogin.Burst != 6 || cfg.RateLimitLogin.RequestsPerSecond != 0.1 {
		t.Fatalf("unexpected login limit %+v", cfg.RateLimitLogin)
	}
	if cfg.Argon2.MemoryKiB != 32768 || cfg.Argon2.Iterations != 3 || cfg.Argon2.Parallelism != 1 {
		t.Fatalf("unexpected argon2 config %+v", cfg.Argon2)
	}

	t.Setenv("ARGON2_PARALLELISM", "300")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for parallelism above 255")
	}
}
