// Package config loads service settings (YAML file plus env overrides)
// and the versioned engine threshold config, with hot reload for the
// latter so sensitivity runs don't need a worker restart.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/technosupport/ts-crimewatch/internal/engine"
)

// Service holds process-level settings shared by the binaries. Env vars
// override file values so deployments can keep secrets out of YAML.
type Service struct {
	HTTPAddr         string        `yaml:"http_addr"`
	DatabaseURL      string        `yaml:"database_url"`
	RedisAddr        string        `yaml:"redis_addr"`
	NATSURL          string        `yaml:"nats_url"`
	JWTSigningKey    string        `yaml:"jwt_signing_key"`
	GeminiAPIKey     string        `yaml:"gemini_api_key"`
	EngineConfigPath string        `yaml:"engine_config_path"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	DedupWindow      time.Duration `yaml:"dedup_window"`
}

func defaults() Service {
	return Service{
		HTTPAddr:    ":8080",
		RedisAddr:   "localhost:6379",
		NATSURL:     "nats://localhost:4222",
		CacheTTL:    7 * 24 * time.Hour,
		DedupWindow: 10 * time.Minute,
	}
}

// LoadService reads the optional YAML file at path, then applies env
// overrides. A missing file is not an error; env-only deployments are
// the common case.
func LoadService(path string) (*Service, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse service config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read service config %s: %w", path, err)
		}
	}

	overrideString(&cfg.HTTPAddr, "HTTP_ADDR")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.RedisAddr, "REDIS_ADDR")
	overrideString(&cfg.NATSURL, "NATS_URL")
	overrideString(&cfg.JWTSigningKey, "JWT_SIGNING_KEY")
	overrideString(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	overrideString(&cfg.EngineConfigPath, "ENGINE_CONFIG_PATH")
	if err := overrideDuration(&cfg.CacheTTL, "CACHE_TTL"); err != nil {
		return nil, err
	}
	if err := overrideDuration(&cfg.DedupWindow, "DEDUP_WINDOW"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

// LoadEngineConfig parses a threshold YAML document, layered over the
// shipped defaults so partial files only override what they name. An
// empty path returns the defaults.
func LoadEngineConfig(path string) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Config{}, fmt.Errorf("read engine config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return engine.Config{}, fmt.Errorf("parse engine config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("engine config %s: %w", path, err)
	}
	return cfg, nil
}
