// Package config loads flightdesk configuration from a YAML file, a .env
// file and FLIGHTDESK_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FLIGHTDESK_AMADEUS_API_KEY.
const EnvPrefix = "FLIGHTDESK"

// Config represents the complete application configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"     yaml:"llm"`
	Amadeus AmadeusConfig `mapstructure:"amadeus" yaml:"amadeus"`
	Booking BookingConfig `mapstructure:"booking" yaml:"booking"`
	Rates   RatesConfig   `mapstructure:"rates"   yaml:"rates"`
	Notify  NotifyConfig  `mapstructure:"notify"  yaml:"notify"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Primary     string  `mapstructure:"primary"     yaml:"primary"` // "openai" or "ollama"
	OpenAIKey   string  `mapstructure:"openai_key"  yaml:"openai_key"`
	OllamaURL   string  `mapstructure:"ollama_url"  yaml:"ollama_url"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
}

// AmadeusConfig holds flight inventory credentials.
type AmadeusConfig struct {
	APIKey    string `mapstructure:"api_key"    yaml:"api_key"`
	APISecret string `mapstructure:"api_secret" yaml:"api_secret"`
	Hostname  string `mapstructure:"hostname"   yaml:"hostname"` // "test" or "production"
}

// BookingConfig holds pricing and session settings.
type BookingConfig struct {
	Currency   string  `mapstructure:"currency"    yaml:"currency"`
	TaxRate    float64 `mapstructure:"tax_rate"    yaml:"tax_rate"` // percent
	MaxResults int     `mapstructure:"max_results" yaml:"max_results"`
	DemoMode   bool    `mapstructure:"demo_mode"   yaml:"demo_mode"`
}

// RatesConfig holds exchange-rate source settings. Empty URLs disable the
// corresponding source.
type RatesConfig struct {
	Base         string `mapstructure:"base"          yaml:"base"`
	TTLSec       int    `mapstructure:"ttl_sec"       yaml:"ttl_sec"`
	APIURL       string `mapstructure:"api_url"       yaml:"api_url"`
	FeedURL      string `mapstructure:"feed_url"      yaml:"feed_url"`
	TableURL     string `mapstructure:"table_url"     yaml:"table_url"`
	RedisURL     string `mapstructure:"redis_url"     yaml:"redis_url"`

	// Fallback replaces the built-in offline table. Rates are units per
	// one FallbackBase.
	Fallback     map[string]float64 `mapstructure:"fallback"      yaml:"fallback"`
	FallbackBase string             `mapstructure:"fallback_base" yaml:"fallback_base"`
}

// TTL returns the table lifetime.
func (r RatesConfig) TTL() time.Duration {
	return time.Duration(r.TTLSec) * time.Second
}

// NotifyConfig holds booking notification channels.
type NotifyConfig struct {
	KafkaBrokers []string `mapstructure:"kafka_brokers" yaml:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"   yaml:"kafka_topic"`
	EmailEnabled bool     `mapstructure:"email_enabled" yaml:"email_enabled"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Addr returns host:port.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.flightdesk/config.yaml
//  3. /etc/flightdesk/config.yaml
//
// A .env file in the working directory is loaded first; variables already
// set in the environment win over it.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".flightdesk"))
	v.AddConfigPath("/etc/flightdesk")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	cfg.normalize()
	return &cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs without overriding the real environment.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("error reading %s: %w", path, err)
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.primary", "openai")
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 1024)

	v.SetDefault("amadeus.hostname", "test")

	v.SetDefault("booking.currency", "INR")
	v.SetDefault("booking.tax_rate", 18.0)
	v.SetDefault("booking.max_results", 10)
	v.SetDefault("booking.demo_mode", false)

	v.SetDefault("rates.base", "USD")
	v.SetDefault("rates.ttl_sec", 3600)
	v.SetDefault("rates.api_url", "https://open.er-api.com/v6/latest")
	v.SetDefault("rates.feed_url", "")
	v.SetDefault("rates.table_url", "")
	v.SetDefault("rates.redis_url", "")
	v.SetDefault("rates.fallback_base", "USD")

	v.SetDefault("notify.kafka_brokers", []string{})
	v.SetDefault("notify.kafka_topic", "flightdesk.bookings")
	v.SetDefault("notify.email_enabled", true)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv reads secrets explicitly; viper's AutomaticEnv only sees
// keys that have a default or a file value.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(EnvPrefix + "_LLM_OPENAI_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.LLM.OpenAIKey == "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := os.Getenv(EnvPrefix + "_AMADEUS_API_KEY"); key != "" {
		cfg.Amadeus.APIKey = key
	} else if key := os.Getenv("AMADEUS_API_KEY"); key != "" && cfg.Amadeus.APIKey == "" {
		cfg.Amadeus.APIKey = key
	}
	if key := os.Getenv(EnvPrefix + "_AMADEUS_API_SECRET"); key != "" {
		cfg.Amadeus.APISecret = key
	} else if key := os.Getenv("AMADEUS_API_SECRET"); key != "" && cfg.Amadeus.APISecret == "" {
		cfg.Amadeus.APISecret = key
	}
	if brokers := os.Getenv(EnvPrefix + "_NOTIFY_KAFKA_BROKERS"); brokers != "" {
		cfg.Notify.KafkaBrokers = splitList(brokers)
	}
}

func (c *Config) normalize() {
	c.Booking.Currency = strings.ToUpper(strings.TrimSpace(c.Booking.Currency))
	c.Rates.Base = strings.ToUpper(strings.TrimSpace(c.Rates.Base))
	c.Rates.FallbackBase = strings.ToUpper(strings.TrimSpace(c.Rates.FallbackBase))
	// viper lower-cases map keys.
	if len(c.Rates.Fallback) > 0 {
		rates := make(map[string]float64, len(c.Rates.Fallback))
		for code, r := range c.Rates.Fallback {
			rates[strings.ToUpper(strings.TrimSpace(code))] = r
		}
		c.Rates.Fallback = rates
	}
	c.LLM.Primary = strings.ToLower(strings.TrimSpace(c.LLM.Primary))
	// A single env var "a:9092,b:9092" decodes as one element.
	if len(c.Notify.KafkaBrokers) == 1 {
		c.Notify.KafkaBrokers = splitList(c.Notify.KafkaBrokers[0])
	}
}

// Validate reports settings that make the application unusable.
func (c *Config) Validate() error {
	var problems []string
	if len(c.Booking.Currency) != 3 {
		problems = append(problems, fmt.Sprintf("booking.currency %q is not a currency code", c.Booking.Currency))
	}
	if c.Booking.TaxRate < 0 {
		problems = append(problems, "booking.tax_rate must not be negative")
	}
	if c.Booking.MaxResults <= 0 {
		problems = append(problems, "booking.max_results must be positive")
	}
	if c.Rates.TTLSec <= 0 {
		problems = append(problems, "rates.ttl_sec must be positive")
	}
	for code, r := range c.Rates.Fallback {
		if len(code) != 3 || r <= 0 {
			problems = append(problems, fmt.Sprintf("rates.fallback.%s must be a currency code with a positive rate", code))
		}
	}
	switch c.Amadeus.Hostname {
	case "test", "production":
	default:
		problems = append(problems, fmt.Sprintf("amadeus.hostname %q must be test or production", c.Amadeus.Hostname))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// UseDemoInventory reports whether searches run against the offline
// inventory: demo mode was requested or Amadeus credentials are missing.
func (c *Config) UseDemoInventory() bool {
	return c.Booking.DemoMode || c.Amadeus.APIKey == "" || c.Amadeus.APISecret == ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
