package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the intake service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Intake   IntakeConfig   `mapstructure:"intake"`
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// LLMConfig holds fallback-classifier model settings.
type LLMConfig struct {
	DefaultProvider string              `mapstructure:"default_provider"`
	Providers       map[string]Provider `mapstructure:"providers"`
}

// Provider holds individual LLM provider configuration.
type Provider struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	Timeout           int     `mapstructure:"timeout"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// OCRConfig holds structured-OCR service settings.
type OCRConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"`
}

// StorageConfig holds database and cache settings.
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path"`
}

// QueueConfig holds artifact-queue settings.
type QueueConfig struct {
	Workers            int     `mapstructure:"workers"`
	MaxRetries         int     `mapstructure:"max_retries"`
	AutoMatchThreshold float64 `mapstructure:"auto_match_threshold"`
	RetrySweepSchedule string  `mapstructure:"retry_sweep_schedule"`
}

// IntakeConfig holds drop-folder watcher settings.
type IntakeConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	WatchDir string `mapstructure:"watch_dir"`
}

// SecurityConfig holds API auth settings.
type SecurityConfig struct {
	JWTSecret    string   `mapstructure:"jwt_secret"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Load loads configuration from file, env, and defaults.
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "dealintake.db"))
	v.Set("storage.badger_path", filepath.Join(dataDir, "textcache"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "dealintake.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (DEALINTAKE_SERVER_PORT, DEALINTAKE_OCR_API_KEY, etc.)
	v.SetEnvPrefix("DEALINTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("llm.default_provider", "openai")
	v.SetDefault("llm.providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.providers.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.providers.openai.timeout", 45)
	v.SetDefault("llm.providers.openai.max_tokens", 1024)
	v.SetDefault("llm.providers.openai.requests_per_second", 2)

	v.SetDefault("ocr.timeout", 90)

	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.auto_match_threshold", 0.85)
	v.SetDefault("queue.retry_sweep_schedule", "@every 5m")

	v.SetDefault("intake.enabled", false)

	v.SetDefault("security.allow_origins", []string{"*"})
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "dealintake")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "dealintake")
}

// loadEnvOverrides loads env vars that Viper doesn't handle well with nested maps.
func loadEnvOverrides(cfg *Config) {
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	cfg.LLM.DefaultProvider = getEnv("DEALINTAKE_LLM_DEFAULT_PROVIDER", cfg.LLM.DefaultProvider)

	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]Provider)
	}

	if apiKey := os.Getenv("DEALINTAKE_LLM_PROVIDERS_OPENAI_API_KEY"); apiKey != "" {
		p := cfg.LLM.Providers["openai"]
		p.APIKey = apiKey
		p.BaseURL = getEnv("DEALINTAKE_LLM_PROVIDERS_OPENAI_BASE_URL", p.BaseURL)
		p.Model = getEnv("DEALINTAKE_LLM_PROVIDERS_OPENAI_MODEL", p.Model)
		cfg.LLM.Providers["openai"] = p
	}

	cfg.OCR.BaseURL = getEnv("DEALINTAKE_OCR_BASE_URL", cfg.OCR.BaseURL)
	cfg.OCR.APIKey = getEnv("DEALINTAKE_OCR_API_KEY", cfg.OCR.APIKey)

	cfg.Storage.DataDir = getEnv("DEALINTAKE_STORAGE_DATA_DIR", cfg.Storage.DataDir)
	cfg.Security.JWTSecret = getEnv("DEALINTAKE_SECURITY_JWT_SECRET", cfg.Security.JWTSecret)
	cfg.Intake.WatchDir = getEnv("DEALINTAKE_INTAKE_WATCH_DIR", cfg.Intake.WatchDir)
}

func validate(cfg *Config) error {
	if cfg.Queue.Workers <= 0 {
		return fmt.Errorf("queue.workers must be positive")
	}
	if cfg.Queue.MaxRetries < 0 {
		return fmt.Errorf("queue.max_retries must not be negative")
	}
	if cfg.Queue.AutoMatchThreshold < 0 || cfg.Queue.AutoMatchThreshold > 1 {
		return fmt.Errorf("queue.auto_match_threshold must be in [0,1]")
	}
	if cfg.Intake.Enabled && cfg.Intake.WatchDir == "" {
		return fmt.Errorf("intake.watch_dir is required when intake.enabled is set")
	}

	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = generateRandomString(32)
	}

	return nil
}

func generateRandomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate random secret: %v", err))
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b)
}

// GetProvider returns the provider configuration by name.
func (c *Config) GetProvider(name string) (Provider, bool) {
	p, ok := c.LLM.Providers[name]
	return p, ok
}

// DefaultProvider returns the default provider configuration.
func (c *Config) DefaultProvider() (Provider, error) {
	p, ok := c.LLM.Providers[c.LLM.DefaultProvider]
	if !ok {
		return Provider{}, fmt.Errorf("default provider %s not found", c.LLM.DefaultProvider)
	}
	return p, nil
}
