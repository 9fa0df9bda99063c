package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration for the service.
type Config struct {
	ServerAddress string
	Origin        string

	DatabaseURI  string
	DatabaseName string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RedisDB       int
}

const envFile = "vars/.env"

// Load reads configuration from the environment. A vars/.env file is
// loaded first when present so local runs do not need exported variables.
func Load() (*Config, error) {
	_ = godotenv.Load(envFile)

	cfg := &Config{
		ServerAddress: ":" + envOr("PORT", "8080"),
		Origin:        os.Getenv("ORIGIN"),
		DatabaseURI:   os.Getenv("DB_URI"),
		DatabaseName:  envOr("DB_NAME", "chatkeep"),
		OpenAIKey:     os.Getenv("OPENAI_API"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-3.5-turbo"),
		RedisAddr:     envOr("REDIS_ADDR", "127.0.0.1:6379"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("DB_URI must be configured")
	}
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API must be configured")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
