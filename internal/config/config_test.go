package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_URI", "mongodb://localhost:27017")
	t.Setenv("OPENAI_API", "sk-test")
	t.Setenv("PORT", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerAddress != ":8080" {
		t.Errorf("unexpected server address %q", cfg.ServerAddress)
	}
	if cfg.DatabaseName != "chatkeep" {
		t.Errorf("unexpected database name %q", cfg.DatabaseName)
	}
	if cfg.OpenAIModel != "gpt-3.5-turbo" {
		t.Errorf("unexpected model %q", cfg.OpenAIModel)
	}
	if cfg.RedisAddr != "127.0.0.1:6379" {
		t.Errorf("unexpected redis addr %q", cfg.RedisAddr)
	}
}

func TestLoadRequiresDatabaseURI(t *testing.T) {
	t.Setenv("DB_URI", "")
	t.Setenv("OPENAI_API", "sk-test")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DB_URI is missing")
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("DB_URI", "mongodb://localhost:27017")
	t.Setenv("OPENAI_API", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when OPENAI_API is missing")
	}
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("DB_URI", "mongodb://localhost:27017")
	t.Setenv("OPENAI_API", "sk-test")
	t.Setenv("REDIS_DB", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed REDIS_DB")
	}
}
