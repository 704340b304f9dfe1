package config

import (
	"fmt"
	"time"

	coreconfig "github.com/go-core-fx/config"
)

type Config struct {
	IikoServer   string `koanf:"iiko_server"`
	IikoUser     string `koanf:"iiko_user"`
	IikoPassword string `koanf:"iiko_password"`
	IikoToken    string `koanf:"iiko_token"`

	// HistoryFrom is the first day of the default sync range (YYYY-MM-DD).
	HistoryFrom  string `koanf:"history_from"`
	SyncSchedule string `koanf:"sync_schedule"`
	MaxPositions int    `koanf:"max_positions"`

	SessionRedisAddr string        `koanf:"session_redis_addr"`
	SessionTTL       time.Duration `koanf:"session_ttl"`
	RequireSession   bool          `koanf:"require_session"`

	LLMBaseURL string `koanf:"llm_base_url"`
	LLMAPIKey  string `koanf:"llm_api_key"`
	LLMModel   string `koanf:"llm_model"`

	Timeout time.Duration `koanf:"timeout"`
	LogFile string        `koanf:"log_file"`
	Debug   bool          `koanf:"debug"`
}

func New() (Config, error) {
	cfg := Config{
		HistoryFrom:  "2020-01-01",
		SyncSchedule: "@every 30m",
		MaxPositions: 20,
		SessionTTL:   12 * time.Hour,
		Timeout:      30 * time.Second,
		LogFile:      "./sales-targets.log",
		Debug:        false,
	}

	if err := coreconfig.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}
