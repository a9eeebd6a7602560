package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL       = "http://127.0.0.1:8000"
	defaultTimeoutSecs   = 30
	defaultGracePeriodMS = 3000
	defaultCacheMaxBytes = 64 << 20
	defaultCacheTTLSecs  = 600

	// EnvAPIURL overrides service.base_url.
	EnvAPIURL = "STYLIST_API_URL"
	// EnvLogLevel overrides log.level.
	EnvLogLevel = "STYLIST_LOG_LEVEL"
)

// ServiceConfig holds connection details for the stylist backend.
type ServiceConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
}

// BatchConfig configures the upload batch controller.
type BatchConfig struct {
	GracePeriodMS int `yaml:"grace_period_ms" validate:"gte=0"`
}

// ImageCacheConfig bounds the in-memory image cache.
type ImageCacheConfig struct {
	MaxBytes int64 `yaml:"max_bytes" validate:"gte=0"`
	TTLSecs  int   `yaml:"ttl_secs" validate:"gte=0"`
}

// LogConfig selects log level, format and an optional file.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
	File   string `yaml:"file,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Service    ServiceConfig    `yaml:"service"`
	Batch      BatchConfig      `yaml:"batch"`
	ImageCache ImageCacheConfig `yaml:"image_cache"`
	Log        LogConfig        `yaml:"log"`
}

// Timeout is the per-request timeout for remote calls.
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.Service.TimeoutSecs) * time.Second
}

// GracePeriod is how long batch results stay visible after completion.
func (c *AppConfig) GracePeriod() time.Duration {
	return time.Duration(c.Batch.GracePeriodMS) * time.Millisecond
}

// CacheTTL is how long a fetched image stays cached.
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.ImageCache.TTLSecs) * time.Second
}

// Validate reports the first invalid setting.
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("service.base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("service.base_url: missing host")
	}
	err = validate.Struct(c)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "AppConfig.")
	switch fe.Tag() {
	case "gte":
		return fmt.Errorf("%s must not be negative", field)
	case "oneof":
		return fmt.Errorf("%s: unsupported value %q", field, fe.Value())
	}
	return fmt.Errorf("%s: failed %s check", field, fe.Tag())
}

var validate = newValidator()

// newValidator reports fields by their yaml names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./stylist.yaml first, then ~/.config/stylist/config.yaml.
// If neither exists, it writes defaults to ~/.config/stylist/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "stylist.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns a fresh config with every default applied.
func Default() *AppConfig { return defaultConfig() }

// DefaultUserConfigPath is ~/.config/stylist/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "stylist", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Service:    ServiceConfig{BaseURL: defaultBaseURL, TimeoutSecs: defaultTimeoutSecs},
		Batch:      BatchConfig{GracePeriodMS: defaultGracePeriodMS},
		ImageCache: ImageCacheConfig{MaxBytes: defaultCacheMaxBytes, TTLSecs: defaultCacheTTLSecs},
		Log:        LogConfig{Level: "info", Format: "console"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if strings.TrimSpace(cfg.Service.BaseURL) == "" {
		cfg.Service.BaseURL = defaultBaseURL
	}
	if cfg.Service.TimeoutSecs == 0 {
		cfg.Service.TimeoutSecs = defaultTimeoutSecs
	}
	if cfg.Batch.GracePeriodMS == 0 {
		cfg.Batch.GracePeriodMS = defaultGracePeriodMS
	}
	if cfg.ImageCache.MaxBytes == 0 {
		cfg.ImageCache.MaxBytes = defaultCacheMaxBytes
	}
	if cfg.ImageCache.TTLSecs == 0 {
		cfg.ImageCache.TTLSecs = defaultCacheTTLSecs
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.Service.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
}
