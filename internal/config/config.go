// Package config handles application configuration using Viper.
// Viper supports YAML files, environment variables, and defaults — merged in priority order.
// Go convention: configuration is loaded into structs, not accessed as raw key-value pairs.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration struct. Nested structs organize related settings.
// `mapstructure` tags tell Viper how to map YAML/env keys to struct fields.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Market  MarketConfig  `mapstructure:"market"`
	LLM     LLMConfig     `mapstructure:"llm"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// MarketConfig points at the chart data provider. BaseURL is overridable
// so tests (and the occasional Yahoo mirror host) can swap it out.
type MarketConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LLMConfig holds per-provider settings. An absent API key (or flow URL)
// disables that provider without failing startup — the corresponding
// client then reports "not configured" on every call.
type LLMConfig struct {
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Mistral MistralConfig `mapstructure:"mistral"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type MistralConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig configures the intermediary flow endpoint — Gemini is not
// called through a vendor SDK but through a hosted prompt flow whose URL
// lives in configuration.
type GeminiConfig struct {
	FlowURL string `mapstructure:"flow_url"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
// In Go, functions return errors as the last return value — callers must check them.
// This pattern replaces try/catch: if err != nil { handle it }.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults — these apply when neither file nor env provides a value
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.database_path", "./storage/stockdata.db")
	v.SetDefault("market.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market.timeout_seconds", 15)
	v.SetDefault("llm.openai.model", "gpt-4o")
	v.SetDefault("llm.mistral.model", "mistral-large-latest")
	v.SetDefault("llm.mistral.base_url", "https://api.mistral.ai/v1")
	// Credentials default to empty so Viper knows the keys exist — without a
	// registered key, AutomaticEnv can't surface the env value at Unmarshal.
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.mistral.api_key", "")
	v.SetDefault("llm.gemini.flow_url", "")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:3036"})
	v.SetDefault("log.level", "info")

	// Read from YAML config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read config file (ignore "not found" — defaults + env are enough)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Environment variables override everything.
	// STOCKS_ prefix + nested keys: STOCKS_SERVER_PORT=9090 → server.port=9090,
	// STOCKS_LLM_OPENAI_API_KEY=... → llm.openai.api_key
	v.SetEnvPrefix("STOCKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal into our Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Address returns the listen address string like "0.0.0.0:8080".
// This is a method on ServerConfig — Go attaches methods to types via receiver syntax.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout returns the market request timeout as a time.Duration.
func (m MarketConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}
