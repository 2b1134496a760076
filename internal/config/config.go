// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConns       int32  `yaml:"max_conns"`
	AttemptWorkers int    `yaml:"attempt_workers"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

func (r RedisConfig) Enabled() bool { return r.URL != "" }

type FoodFlowConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

const (
	ToleranceSourceAPI      = "api"
	ToleranceSourcePostgres = "postgres"
)

type ToleranceConfig struct {
	Source              string        `yaml:"source"` // api | postgres
	DefaultEarlyMinutes *int          `yaml:"default_early_minutes"`
	DefaultLateMinutes  *int          `yaml:"default_late_minutes"`
	Timezone            string        `yaml:"timezone"`
	CacheTTL            time.Duration `yaml:"cache_ttl"`
}

// Location resolves Timezone; empty or "Local" means the process zone.
func (t ToleranceConfig) Location() (*time.Location, error) {
	if t.Timezone == "" || t.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(t.Timezone)
}

type ConfirmationConfig struct {
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxAttempts   int           `yaml:"max_attempts"`
	AttemptWindow time.Duration `yaml:"attempt_window"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
}

type SecurityConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type I18nConfig struct {
	DefaultLang string `yaml:"default_lang"`
}

type Config struct {
	Log          LogConfig          `yaml:"log"`
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	FoodFlow     FoodFlowConfig     `yaml:"foodflow"`
	Tolerance    ToleranceConfig    `yaml:"tolerance"`
	Confirmation ConfirmationConfig `yaml:"confirmation"`
	Security     SecurityConfig     `yaml:"security"`
	I18n         I18nConfig         `yaml:"i18n"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse applies defaults and validation to raw YAML.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	cfg.HTTP.RequestTimeout = orDefault(cfg.HTTP.RequestTimeout, 15*time.Second)
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.AttemptWorkers <= 0 {
		cfg.Database.AttemptWorkers = 2
	}
	cfg.Redis.TTL = orDefault(cfg.Redis.TTL, time.Hour)
	cfg.FoodFlow.Timeout = orDefault(cfg.FoodFlow.Timeout, 15*time.Second)

	if cfg.Tolerance.Source == "" {
		cfg.Tolerance.Source = ToleranceSourceAPI
	}
	if cfg.Tolerance.DefaultEarlyMinutes == nil {
		v := 15
		cfg.Tolerance.DefaultEarlyMinutes = &v
	}
	if cfg.Tolerance.DefaultLateMinutes == nil {
		v := 10
		cfg.Tolerance.DefaultLateMinutes = &v
	}
	cfg.Tolerance.CacheTTL = orDefault(cfg.Tolerance.CacheTTL, 5*time.Minute)

	cfg.Confirmation.SessionTTL = orDefault(cfg.Confirmation.SessionTTL, 15*time.Minute)
	cfg.Confirmation.SweepInterval = orDefault(cfg.Confirmation.SweepInterval, time.Minute)
	if cfg.Confirmation.MaxAttempts <= 0 {
		cfg.Confirmation.MaxAttempts = 5
	}
	cfg.Confirmation.AttemptWindow = orDefault(cfg.Confirmation.AttemptWindow, 10*time.Minute)
	cfg.Confirmation.LockTTL = orDefault(cfg.Confirmation.LockTTL, 30*time.Second)

	if cfg.I18n.DefaultLang == "" {
		cfg.I18n.DefaultLang = "en"
	}
}

func validate(cfg *Config) error {
	if cfg.FoodFlow.BaseURL == "" {
		return errors.New("foodflow.base_url is required")
	}
	if cfg.Security.JWTSecret == "" {
		return errors.New("security.jwt_secret is required")
	}
	switch cfg.Tolerance.Source {
	case ToleranceSourceAPI:
	case ToleranceSourcePostgres:
		if cfg.Database.URL == "" {
			return errors.New("database.url is required when tolerance.source is postgres")
		}
	default:
		return fmt.Errorf("tolerance.source %q is not one of api|postgres", cfg.Tolerance.Source)
	}
	if *cfg.Tolerance.DefaultEarlyMinutes < 0 || *cfg.Tolerance.DefaultLateMinutes < 0 {
		return errors.New("tolerance defaults must not be negative")
	}
	if _, err := cfg.Tolerance.Location(); err != nil {
		return fmt.Errorf("tolerance.timezone: %w", err)
	}
	return nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
