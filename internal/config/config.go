// Package config loads Courseforge configuration from the environment
// and an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names for the generative model.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Generative model
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	OllamaHost      string `yaml:"ollama_host"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	// Moderation provider. The API key falls back to OpenAIAPIKey; the
	// endpoint is overridable for tests.
	ModerationEndpoint string `yaml:"moderation_endpoint"`
	ModerationAPIKey   string `yaml:"moderation_api_key"`

	// HTTP API
	ListenAddr string `yaml:"listen_addr"`
	ServerURL  string `yaml:"server_url"`

	// Client-side job polling
	PollInterval time.Duration `yaml:"poll_interval"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from environment variables, starting from a
// YAML file if COURSEFORGE_CONFIG points at one. Environment variables
// override file values.
func Load() Config {
	cfg := defaults()

	if path := os.Getenv("COURSEFORGE_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			slog.Warn("failed to load config file, using env only", "path", path, "error", err)
		}
	}

	cfg.applyEnv()
	return cfg
}

func defaults() Config {
	return Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "courseforge",
		SurrealDBDatabase:  "courses",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		LLMProvider: ProviderOllama,
		LLMModel:    "llama3.1",
		OllamaHost:  "http://localhost:11434",

		ModerationEndpoint: "https://api.openai.com/v1/moderations",

		ListenAddr: ":8585",
		ServerURL:  "http://localhost:8585",

		PollInterval: 3 * time.Second,

		LogFile:  "/tmp/courseforge.log",
		LogLevel: slog.LevelInfo,
	}
}

// applyFile merges values from a YAML config file.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// applyEnv overlays environment variables on top of current values.
func (c *Config) applyEnv() {
	c.SurrealDBURL = getEnv("SURREALDB_URL", c.SurrealDBURL)
	c.SurrealDBNamespace = getEnv("SURREALDB_NAMESPACE", c.SurrealDBNamespace)
	c.SurrealDBDatabase = getEnv("SURREALDB_DATABASE", c.SurrealDBDatabase)
	c.SurrealDBUser = getEnv("SURREALDB_USER", c.SurrealDBUser)
	c.SurrealDBPass = getEnv("SURREALDB_PASS", c.SurrealDBPass)
	c.SurrealDBAuthLevel = getEnv("SURREALDB_AUTH_LEVEL", c.SurrealDBAuthLevel)

	c.LLMProvider = getEnv("COURSEFORGE_LLM_PROVIDER", c.LLMProvider)
	c.LLMModel = getEnv("COURSEFORGE_LLM_MODEL", c.LLMModel)
	c.OllamaHost = getEnv("OLLAMA_HOST", c.OllamaHost)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)

	c.ModerationEndpoint = getEnv("COURSEFORGE_MODERATION_ENDPOINT", c.ModerationEndpoint)
	c.ModerationAPIKey = getEnv("COURSEFORGE_MODERATION_API_KEY", c.ModerationAPIKey)
	if c.ModerationAPIKey == "" {
		c.ModerationAPIKey = c.OpenAIAPIKey
	}

	c.ListenAddr = getEnv("COURSEFORGE_LISTEN_ADDR", c.ListenAddr)
	c.ServerURL = getEnv("COURSEFORGE_SERVER_URL", c.ServerURL)

	if v := os.Getenv("COURSEFORGE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.PollInterval = d
		}
	}

	c.LogFile = getEnv("COURSEFORGE_LOG_FILE", c.LogFile)
	c.LogLevel = parseLogLevel(getEnv("COURSEFORGE_LOG_LEVEL", "INFO"))
}

// Validate checks values the rest of the system depends on.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderBedrock:
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
