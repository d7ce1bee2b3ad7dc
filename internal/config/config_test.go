package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DSN", "host=localhost user=test dbname=test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != 8000 {
		t.Fatalf("expected port 8000 got %d", cfg.HTTP.Port)
	}
	if cfg.AI.Provider != "openai" {
		t.Fatalf("expected openai default got %q", cfg.AI.Provider)
	}
	if cfg.AI.MaxConcurrent != 4 {
		t.Fatalf("expected 4 concurrent calls got %d", cfg.AI.MaxConcurrent)
	}
	if cfg.Files.MaxUploadSize != 10<<20 {
		t.Fatalf("expected 10 MiB limit got %d", cfg.Files.MaxUploadSize)
	}
	if cfg.Quotes.ValidityDays != 30 {
		t.Fatalf("expected 30 validity days got %d", cfg.Quotes.ValidityDays)
	}
	if cfg.RateLimit.Requests != 100 || cfg.RateLimit.WindowS != 60 {
		t.Fatalf("unexpected rate limit defaults %+v", cfg.RateLimit)
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DB_DSN")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DSN", "host=localhost")
	t.Setenv("AI_PROVIDER", "mystery")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadOllamaNeedsNoAPIKey(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DSN", "host=localhost")
	t.Setenv("AI_PROVIDER", "ollama")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AI.OllamaBaseURL != "http://localhost:11434" {
		t.Fatalf("unexpected ollama url %q", cfg.AI.OllamaBaseURL)
	}
}
