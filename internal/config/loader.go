package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	// Key slot queue settings.
	TotalKeys                 int `json:"total_keys" yaml:"total_keys" toml:"total_keys"`
	CooldownSeconds           int `json:"cooldown_seconds" yaml:"cooldown_seconds" toml:"cooldown_seconds"`
	CurriculumCooldownSeconds int `json:"curriculum_cooldown_seconds" yaml:"curriculum_cooldown_seconds" toml:"curriculum_cooldown_seconds"`
	MaxBusySeconds            int `json:"max_busy_seconds" yaml:"max_busy_seconds" toml:"max_busy_seconds"`
	SweepIntervalSeconds      int `json:"sweep_interval_seconds" yaml:"sweep_interval_seconds" toml:"sweep_interval_seconds"`

	// Generation worker settings.
	SlotWaitSeconds int `json:"slot_wait_seconds" yaml:"slot_wait_seconds" toml:"slot_wait_seconds"`
	Workers         int `json:"workers" yaml:"workers" toml:"workers"`

	// External generation service.
	GenerationAPIURL         string `json:"generation_api_url" yaml:"generation_api_url" toml:"generation_api_url"`
	GenerationAPIToken       string `json:"generation_api_token" yaml:"generation_api_token" toml:"generation_api_token"`
	GenerationTimeoutSeconds int    `json:"generation_timeout_seconds" yaml:"generation_timeout_seconds" toml:"generation_timeout_seconds"`

	// External keyword extraction service.
	KeywordAPIURL   string `json:"keyword_api_url" yaml:"keyword_api_url" toml:"keyword_api_url"`
	KeywordAPIToken string `json:"keyword_api_token" yaml:"keyword_api_token" toml:"keyword_api_token"`

	// Comma-separated allowed CORS origins; empty disables CORS.
	CORSOrigins string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// CORSOriginsList splits CORSOrigins into trimmed entries.
func (c Config) CORSOriginsList() []string {
	if strings.TrimSpace(c.CORSOrigins) == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overlays recognized environment variables onto cfg. Env names
// match the original deployment's dotenv surface.
func (c Config) ApplyEnv() Config {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setStr(&c.Addr, "PTMTD_ADDR")
	setInt(&c.TotalKeys, "KEY_QUEUE_TOTAL_KEYS")
	setInt(&c.CooldownSeconds, "KEY_QUEUE_COOLDOWN_SECONDS")
	setInt(&c.CurriculumCooldownSeconds, "KEY_QUEUE_CURRICULUM_COOLDOWN_SECONDS")
	setInt(&c.MaxBusySeconds, "KEY_QUEUE_MAX_BUSY_SECONDS")
	setStr(&c.GenerationAPIURL, "CURRICULUM_GENERATION_API_URL")
	setStr(&c.GenerationAPIToken, "CURRICULUM_GENERATION_API_TOKEN")
	setStr(&c.KeywordAPIURL, "KEYWORD_EXTRACTION_API_URL")
	setStr(&c.KeywordAPIToken, "KEYWORD_EXTRACTION_API_TOKEN")
	setStr(&c.CORSOrigins, "CORS_ORIGINS")
	return c
}
