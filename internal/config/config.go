// Package config loads DocVest client configuration from a YAML file
// with environment overrides. Search order: ./.docvest.yaml, then
// ~/.docvest/config.yaml; a missing file yields defaults. A .env file
// in the working directory is loaded first so DOCVEST_* variables can
// live there during development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "300s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds every tunable of the client.
type Config struct {
	// ProcessingURL is the document processing backend base address.
	ProcessingURL string `yaml:"processing_url" validate:"required,http_url"`
	// RealtimeURL is the real-time index backend base address.
	RealtimeURL string `yaml:"realtime_url" validate:"required,http_url"`
	// APIKey, when set, is sent as a bearer token on every request.
	APIKey string `yaml:"api_key"`

	ProcessingTimeout Duration `yaml:"processing_timeout"`
	RealtimeTimeout   Duration `yaml:"realtime_timeout"`
	PollInterval      Duration `yaml:"poll_interval"`

	// Theme selects the color scheme: light, dark, or auto.
	Theme string `yaml:"theme" validate:"omitempty,oneof=light dark auto"`

	// InboxDir, when set, is watched for dropped PDFs which are
	// uploaded automatically.
	InboxDir string `yaml:"inbox_dir"`

	// LogFile overrides the default log location. Empty means
	// <config dir>/docvest.log.
	LogFile string `yaml:"log_file"`
	Debug   bool   `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ProcessingURL:     "http://localhost:8000",
		RealtimeURL:       "http://localhost:8080",
		ProcessingTimeout: Duration(300 * time.Second),
		RealtimeTimeout:   Duration(60 * time.Second),
		PollInterval:      Duration(2 * time.Second),
		Theme:             "auto",
	}
}

// Dir returns the directory where config and logs live. A project-local
// .docvest directory wins over the home-level one.
func Dir() (string, error) {
	if cwd, err := os.Getwd(); err == nil {
		localDir := filepath.Join(cwd, ".docvest")
		if stat, err := os.Stat(localDir); err == nil && stat.IsDir() {
			return localDir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".docvest"), nil
}

// File returns the path of the config file that Load will read.
func File() (string, error) {
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ".docvest.yaml")
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file, applies DOCVEST_* environment overrides,
// and validates the result. A missing file is not an error.
func Load() (Config, error) {
	// Best-effort: a missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Default()

	path, err := File()
	if err == nil {
		if data, readErr := os.ReadFile(path); readErr == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(readErr) {
			return cfg, readErr
		}
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile reads a specific config file path, for --config overrides.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	applyEnv(&cfg)
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DOCVEST_PROCESSING_URL"); v != "" {
		cfg.ProcessingURL = v
	}
	if v := os.Getenv("DOCVEST_REALTIME_URL"); v != "" {
		cfg.RealtimeURL = v
	}
	if v := os.Getenv("DOCVEST_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("DOCVEST_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("DOCVEST_INBOX_DIR"); v != "" {
		cfg.InboxDir = v
	}
	if v := os.Getenv("DOCVEST_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = Duration(d)
		}
	}
	if v := os.Getenv("DOCVEST_DEBUG"); v == "1" || v == "true" {
		cfg.Debug = true
	}
}

// Save writes cfg to the default config location, creating the
// directory if needed.
func Save(cfg Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644)
}
