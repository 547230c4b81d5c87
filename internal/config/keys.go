package config

import (
	"net/url"
	"os"
)

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of a credential.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "sk-...abc"
}

// CheckAPIKeys returns the status of every credential flightdesk can use.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("OpenAI API Key", cfg.LLM.OpenAIKey, EnvPrefix+"_LLM_OPENAI_KEY", "OPENAI_API_KEY"),
		checkKey("Amadeus API Key", cfg.Amadeus.APIKey, EnvPrefix+"_AMADEUS_API_KEY", "AMADEUS_API_KEY"),
		checkKey("Amadeus API Secret", cfg.Amadeus.APISecret, EnvPrefix+"_AMADEUS_API_SECRET", "AMADEUS_API_SECRET"),
	}
}

// checkKey checks if a key is set and whether any of envVars supplied it.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{Name: name, IsSet: value != "", Source: KeySourceNone}
	if value == "" {
		return status
	}
	status.Source = KeySourceConfig
	for _, ev := range envVars {
		if os.Getenv(ev) == value {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks a key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}

// Redacted returns a copy of cfg safe to show over the API: credentials
// are masked and the Redis URL loses its password.
func (c *Config) Redacted() Config {
	out := *c
	if out.LLM.OpenAIKey != "" {
		out.LLM.OpenAIKey = maskKey(out.LLM.OpenAIKey)
	}
	if out.Amadeus.APIKey != "" {
		out.Amadeus.APIKey = maskKey(out.Amadeus.APIKey)
	}
	if out.Amadeus.APISecret != "" {
		out.Amadeus.APISecret = maskKey(out.Amadeus.APISecret)
	}
	if u, err := url.Parse(out.Rates.RedisURL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
			out.Rates.RedisURL = u.String()
		}
	}
	out.API.CORSOrigins = append([]string(nil), c.API.CORSOrigins...)
	out.Notify.KafkaBrokers = append([]string(nil), c.Notify.KafkaBrokers...)
	return out
}
