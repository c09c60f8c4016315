package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port           string   `yaml:"port"`
	LogLevel       string   `yaml:"logLevel"`
	TrustedProxies []string `yaml:"trustedProxies"` // CIDRs/IPs allowed to set forwarded headers

	DatabaseURL string `yaml:"databaseURL"`
	RedisAddr   string `yaml:"redisAddr"`

	Provider        string `yaml:"provider"` // "gemini" or "openai"
	GeminiAPIKey    string `yaml:"geminiAPIKey"`
	OpenAIAPIKey    string `yaml:"openaiAPIKey"`
	OpenAIBaseURL   string `yaml:"openaiBaseURL"`
	GenerationModel string `yaml:"generationModel"`

	JWTSecret     string `yaml:"jwtSecret"`
	JWTIssuer     string `yaml:"jwtIssuer"`
	JWTAudience   string `yaml:"jwtAudience"`
	TokenTTLHours int    `yaml:"tokenTTLHours"`

	ShareBaseURL       string `yaml:"shareBaseURL"`
	TrendingTTLMinutes int    `yaml:"trendingTTLMinutes"`

	GenerateRateLimit  int `yaml:"generateRateLimit"` // requests per window, 0 disables
	GenerateRateWindow int `yaml:"generateRateWindowSeconds"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = strings.Split(v, ",")
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("AI_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := os.Getenv("GENERATION_MODEL"); v != "" {
		cfg.GenerationModel = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("SHARE_BASE_URL"); v != "" {
		cfg.ShareBaseURL = v
	}
	if v := os.Getenv("TRENDING_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TrendingTTLMinutes = n
		}
	}
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "ideaforge"
	}
	if cfg.JWTAudience == "" {
		cfg.JWTAudience = "ideaforge-api"
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.JWTSecret == "" {
		return errors.New("config: jwtSecret is required (set in config.yaml or JWT_SECRET)")
	}
	if cfg.GenerationModel == "" {
		return errors.New("config: generationModel is required (set in config.yaml)")
	}
	switch cfg.Provider {
	case "gemini", "openai":
		// A missing API key is not fatal at boot: the model clients log a
		// warning and fail each call with ErrNotInitialized instead.
	default:
		return fmt.Errorf("config: unknown provider %q (expected gemini or openai)", cfg.Provider)
	}
	if cfg.GenerateRateLimit < 0 {
		return errors.New("config: generateRateLimit must be >= 0")
	}
	return nil
}
