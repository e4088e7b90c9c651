package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("STORAGE", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.GeminiModel != "gemini-1.5-flash" {
		t.Errorf("expected default model, got %s", cfg.GeminiModel)
	}
	if cfg.SuggestTimeout != 10 {
		t.Errorf("expected default suggest timeout 10, got %d", cfg.SuggestTimeout)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode")
	}
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("STORAGE", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for postgres storage without DATABASE_URL")
	}
}

func TestValidate_UnknownStorage(t *testing.T) {
	cfg := &Config{Env: "development", Storage: "cassandra"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown storage backend")
	}
}

func TestValidate_ProductionRequiresAuthSecret(t *testing.T) {
	cfg := &Config{Env: "production", Storage: "memory"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for production without AUTH_SECRET")
	}

	cfg.AuthSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSuggestTimeoutDuration(t *testing.T) {
	cfg := &Config{SuggestTimeout: 3}
	if got := cfg.SuggestTimeoutDuration(); got != 3*time.Second {
		t.Errorf("expected 3s, got %s", got)
	}

	cfg.SuggestTimeout = 0
	if got := cfg.SuggestTimeoutDuration(); got != 10*time.Second {
		t.Errorf("expected 10s fallback, got %s", got)
	}
}
