package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type StoreConfig struct {
	Kind        string `env:"GARDEN_STORE"      envDefault:"file"`
	Path        string `env:"GARDEN_STORE_PATH"`
	DatabaseURL string `env:"DATABASE_URL"`
	Namespace   string `env:"GARDEN_NAMESPACE"  envDefault:"catnip-garden"`
}

type AdvisorConfig struct {
	URL    string `env:"GARDEN_ADVISOR_URL"`
	APIKey string `env:"GEMINI_API_KEY"`
}

type AuthConfig struct {
	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`
}

// Enabled reports whether requests must carry a Supabase token.
func (a AuthConfig) Enabled() bool {
	return a.SupabaseURL != "" && a.SupabaseAnonKey != ""
}

type APIConfig struct {
	Addr       string        `env:"GARDEN_API_ADDR"    envDefault:":8080"`
	Port       string        `env:"PORT"`
	PaceDelay  time.Duration `env:"GARDEN_PACE_DELAY"  envDefault:"1500ms"`
	SessionTTL time.Duration `env:"GARDEN_SESSION_TTL" envDefault:"30m"`
	SweepEvery time.Duration `env:"GARDEN_SWEEP_EVERY" envDefault:"1m"`
	LogLevel   slog.Level    `env:"GARDEN_LOG_LEVEL"   envDefault:"info"`
	Store      StoreConfig
	Advisor    AdvisorConfig
	Auth       AuthConfig
}

type CLIConfig struct {
	APIBaseURL string        `env:"GARDEN_API_BASE_URL" envDefault:"http://localhost:8080"`
	PaceDelay  time.Duration `env:"GARDEN_PACE_DELAY"   envDefault:"1500ms"`
	LogLevel   slog.Level    `env:"GARDEN_LOG_LEVEL"    envDefault:"warn"`
	Store      StoreConfig
	Advisor    AdvisorConfig
	Auth       AuthConfig
}

func LoadAPIFromEnv() (APIConfig, error) {
	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if port := strings.TrimSpace(cfg.Port); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Addr = port
	}
	cfg.Store = cfg.Store.normalize()
	cfg.Auth = cfg.Auth.normalize()
	if err := validate(cfg.Store, cfg.Auth); err != nil {
		return cfg, err
	}
	for name, d := range map[string]time.Duration{
		"GARDEN_PACE_DELAY":  cfg.PaceDelay,
		"GARDEN_SESSION_TTL": cfg.SessionTTL,
		"GARDEN_SWEEP_EVERY": cfg.SweepEvery,
	} {
		if d < 0 {
			return cfg, fmt.Errorf("%s must not be negative", name)
		}
	}
	return cfg, nil
}

func LoadCLIFromEnv() (CLIConfig, error) {
	var cfg CLIConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.Store = cfg.Store.normalize()
	cfg.Auth = cfg.Auth.normalize()
	if cfg.PaceDelay < 0 {
		return cfg, fmt.Errorf("GARDEN_PACE_DELAY must not be negative")
	}
	return cfg, validate(cfg.Store, cfg.Auth)
}

func (s StoreConfig) normalize() StoreConfig {
	s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
	s.Path = strings.TrimSpace(s.Path)
	s.DatabaseURL = strings.TrimSpace(s.DatabaseURL)
	s.Namespace = strings.TrimSpace(s.Namespace)
	return s
}

func (a AuthConfig) normalize() AuthConfig {
	a.SupabaseURL = strings.TrimRight(strings.TrimSpace(a.SupabaseURL), "/")
	a.SupabaseAnonKey = strings.TrimSpace(a.SupabaseAnonKey)
	return a
}

func validate(s StoreConfig, a AuthConfig) error {
	switch s.Kind {
	case "file", "sqlite", "memory":
	case "postgres":
		if s.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when GARDEN_STORE=postgres")
		}
	default:
		return fmt.Errorf("GARDEN_STORE %q is not one of file, sqlite, postgres, memory", s.Kind)
	}
	if s.Namespace == "" {
		return fmt.Errorf("GARDEN_NAMESPACE must not be empty")
	}
	if (a.SupabaseURL == "") != (a.SupabaseAnonKey == "") {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY must be set together")
	}
	return nil
}
