package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	StoreMemory  = "memory"
	StoreRedis   = "redis"
	StoreSurreal = "surreal"
)

type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	ModelSettings struct {
		Provider      string  `yaml:"provider"`
		GeminiModel   string  `yaml:"gemini_model"`
		OpenAIModel   string  `yaml:"openai_model"`
		OpenAIBaseURL string  `yaml:"openai_base_url"`
		Temperature   float64 `yaml:"temperature"`
		TopP          float64 `yaml:"top_p"`
	} `yaml:"model_settings"`
	Turns struct {
		ApplyAffinity   bool    `yaml:"apply_affinity"`
		UpstreamRetries int     `yaml:"upstream_retries"`
		InitialBackoff  float64 `yaml:"initial_backoff_seconds"`
		MaxBackoff      float64 `yaml:"max_backoff_seconds"`
	} `yaml:"turns"`
	Store struct {
		Primary      string `yaml:"primary"`
		CookieFile   string `yaml:"cookie_file"`
		RedisPrefix  string `yaml:"redis_prefix"`
		SurrealTable string `yaml:"surreal_table"`
	} `yaml:"store"`
	Logging struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
		Output   string `yaml:"output"`
	} `yaml:"logging"`
}

func defaults() *Config {
	c := &Config{}
	c.Server.Addr = ":8080"
	c.Server.AllowedOrigins = []string{"*"}
	c.ModelSettings.Provider = ProviderGemini
	c.ModelSettings.GeminiModel = "gemini-2.5-flash-lite"
	c.ModelSettings.OpenAIModel = "gpt-4o-mini"
	c.Turns.InitialBackoff = 0.5
	c.Turns.MaxBackoff = 5
	c.Store.Primary = StoreMemory
	c.Store.CookieFile = "data/intimacy.cookie"
	c.Store.RedisPrefix = "crappybird"
	c.Store.SurrealTable = "bird_state"
	c.Logging.Level = "info"
	c.Logging.Encoding = "json"
	return c
}

// LoadConfig reads path over the built-in defaults. A missing file is not an
// error.
func LoadConfig(path string) (*Config, error) {
	config := defaults()

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(file, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings no component can act on.
func (c *Config) Validate() error {
	switch c.ModelSettings.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("model_settings.provider: unknown provider %q", c.ModelSettings.Provider)
	}
	switch c.Store.Primary {
	case StoreMemory, StoreRedis, StoreSurreal:
	default:
		return fmt.Errorf("store.primary: unknown store %q", c.Store.Primary)
	}
	if c.Turns.UpstreamRetries < 0 {
		return fmt.Errorf("turns.upstream_retries must not be negative")
	}
	if c.ModelSettings.Temperature < 0 || c.ModelSettings.TopP < 0 || c.ModelSettings.TopP > 1 {
		return fmt.Errorf("model_settings: temperature must be >= 0 and top_p within [0, 1]")
	}
	return nil
}

func (c *Config) InitialBackoff() time.Duration {
	return time.Duration(c.Turns.InitialBackoff * float64(time.Second))
}

func (c *Config) MaxBackoff() time.Duration {
	return time.Duration(c.Turns.MaxBackoff * float64(time.Second))
}
