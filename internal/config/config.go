package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the top-level application configuration.
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	Database   DatabaseConfig            `yaml:"database"`
	Providers  map[string]ProviderConfig `yaml:"providers" validate:"dive"`
	Parse      ParseConfig               `yaml:"parse"`
	Extraction ExtractionConfig          `yaml:"extraction"`
	Storage    StorageConfig             `yaml:"storage"`
	Retention  RetentionConfig           `yaml:"retention"`
	Log        LogConfig                 `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port" validate:"min=1,max=65535"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig holds database connection settings. An empty URL keeps
// import records in memory.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// ProviderConfig holds text-completion provider settings.
type ProviderConfig struct {
	Type   string `yaml:"type" validate:"required"` // "gemini" or "openai"
	URL    string `yaml:"url"`                      // base URL, OpenAI-compatible only
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// ParseConfig selects the provider used for structured parsing. An empty
// provider makes every parse heuristic.
type ParseConfig struct {
	Provider      string `yaml:"provider"`
	MaxAttempts   int    `yaml:"max_attempts" validate:"min=1,max=10"`
	MaxConcurrent int    `yaml:"max_concurrent" validate:"min=1"`
}

// ExtractionConfig bounds document extraction.
type ExtractionConfig struct {
	MaxUploadBytes int64         `yaml:"max_upload_bytes" validate:"min=1"`
	MinTextLength  int           `yaml:"min_text_length" validate:"min=0"`
	Timeout        time.Duration `yaml:"timeout" validate:"min=0"`
	Strict         bool          `yaml:"strict"`
}

// StorageConfig holds the upload directory. A non-empty EncryptionKey (32
// bytes, hex or base64) encrypts uploads at rest.
type StorageConfig struct {
	Dir           string `yaml:"dir" validate:"required"`
	EncryptionKey string `yaml:"encryption_key"`
}

// RetentionConfig controls the purge job. An empty schedule disables it.
type RetentionConfig struct {
	Schedule string        `yaml:"schedule"`
	MaxAge   time.Duration `yaml:"max_age" validate:"required_with=Schedule"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database:  DatabaseConfig{},
		Providers: map[string]ProviderConfig{},
		Parse: ParseConfig{
			MaxAttempts:   3,
			MaxConcurrent: 4,
		},
		Extraction: ExtractionConfig{
			MaxUploadBytes: 50 << 20,
			MinTextLength:  10,
			Timeout:        30 * time.Second,
		},
		Storage: StorageConfig{
			Dir: "./data/uploads",
		},
		Retention: RetentionConfig{
			MaxAge: 30 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML configuration file at path, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Ensure Providers map is never nil even if YAML has "providers: {}" or omits it.
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}

	return finish(cfg)
}

// LoadDefault tries to load "config.yaml" from the current directory.
// If the file does not exist, it returns defaults with environment overrides.
// Any other error (e.g. permission denied, malformed YAML) is returned.
func LoadDefault() (*Config, error) {
	cfg, err := Load("config.yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return finish(defaults())
		}
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config) (*Config, error) {
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables. Provider API keys found in the
// environment also register the provider when the file does not mention it.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("HYDRA_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HYDRA_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HYDRA_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("HYDRA_STORAGE_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("HYDRA_ENCRYPTION_KEY"); v != "" {
		cfg.Storage.EncryptionKey = v
	}
	if v := os.Getenv("HYDRA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HYDRA_PARSE_PROVIDER"); v != "" {
		cfg.Parse.Provider = v
	}

	envKeys := map[string]string{
		"gemini": os.Getenv("GEMINI_API_KEY"),
		"openai": os.Getenv("OPENAI_API_KEY"),
	}
	for name, key := range envKeys {
		if key == "" {
			continue
		}
		p, ok := cfg.Providers[name]
		if !ok {
			p = ProviderConfig{Type: name}
		}
		if p.APIKey == "" {
			p.APIKey = key
		}
		cfg.Providers[name] = p
	}
	return nil
}

// Validate checks field constraints and that the parse provider exists.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Parse.Provider != "" {
		if _, ok := c.Providers[c.Parse.Provider]; !ok {
			return fmt.Errorf("invalid config: parse.provider %q is not configured", c.Parse.Provider)
		}
	}
	return nil
}
